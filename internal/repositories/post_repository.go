package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
)

// PostRecordRepository is the durable store for cached posts. The store owns
// the like flag; title and body are refreshed from the network on save.
type PostRecordRepository interface {
	// HasCachedRecords reports whether at least one record is persisted.
	HasCachedRecords(ctx context.Context) (bool, error)
	// LoadRecords returns every complete record ordered by post id.
	// Records missing a title or body are skipped.
	LoadRecords(ctx context.Context) ([]models.Post, error)
	// SaveRecords upserts by post id. An existing record keeps its like flag.
	SaveRecords(ctx context.Context, posts []models.Post) error
	// UpdateLikeState sets the like flag of the record with the given post id.
	// A missing record is not an error.
	UpdateLikeState(ctx context.Context, postID int, isLiked bool) error
}
