package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
	apperrors "github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const saveBatchSize = 200

// GormPostRecordRepository implements PostRecordRepository on any GORM
// dialect. SQLite is the on-device default, PostgreSQL works unchanged.
type GormPostRecordRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormPostRecordRepository creates a new GormPostRecordRepository
func NewGormPostRecordRepository(db *gorm.DB, logger *zap.Logger) *GormPostRecordRepository {
	return &GormPostRecordRepository{db: db, logger: logger}
}

// Migrate creates or updates the post_records table
func (r *GormPostRecordRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.PostRecord{}); err != nil {
		return apperrors.NewPersistence("auto migrate post records", err)
	}
	return nil
}

// HasCachedRecords reports whether any post record exists
func (r *GormPostRecordRepository) HasCachedRecords(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PostRecord{}).Count(&count).Error; err != nil {
		return false, apperrors.NewPersistence("count post records", err)
	}
	return count > 0, nil
}

// LoadRecords retrieves all complete post records ordered by post id
func (r *GormPostRecordRepository) LoadRecords(ctx context.Context) ([]models.Post, error) {
	var records []models.PostRecord
	if err := r.db.WithContext(ctx).Order("post_id asc").Find(&records).Error; err != nil {
		return nil, apperrors.NewPersistence("load post records", err)
	}

	posts, dropped := models.PostsFromRecords(records)
	if dropped > 0 {
		r.logger.Debug("skipped incomplete post records", zap.Int("dropped", dropped))
	}
	return posts, nil
}

// SaveRecords upserts posts by post id, leaving is_liked of existing rows untouched
func (r *GormPostRecordRepository) SaveRecords(ctx context.Context, posts []models.Post) error {
	posts = dedupeByID(posts)
	if len(posts) == 0 {
		return nil
	}

	records := make([]models.PostRecord, len(posts))
	for i, p := range posts {
		records[i] = models.NewPostRecord(p)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"post_title", "post_body", "updated_at"}),
	}).CreateInBatches(&records, saveBatchSize).Error
	if err != nil {
		return apperrors.NewPersistence("save post records", err)
	}
	return nil
}

// UpdateLikeState sets is_liked on the record with the given post id
func (r *GormPostRecordRepository) UpdateLikeState(ctx context.Context, postID int, isLiked bool) error {
	res := r.db.WithContext(ctx).Model(&models.PostRecord{}).
		Where("post_id = ?", postID).
		Update("is_liked", isLiked)
	if res.Error != nil {
		return apperrors.NewPersistence("update like state", res.Error)
	}
	if res.RowsAffected == 0 {
		r.logger.Debug("like state update matched no record", zap.Int("post_id", postID))
	}
	return nil
}

// dedupeByID keeps the first position of each id with the last value seen for it
func dedupeByID(posts []models.Post) []models.Post {
	index := make(map[int]int, len(posts))
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}
