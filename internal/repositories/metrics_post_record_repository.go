package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
	"github.com/anonto42/nano-midea/feedsync/pkg/metrics"
)

// MetricsPostRecordRepository counts and times the operations of another repository
type MetricsPostRecordRepository struct {
	inner   PostRecordRepository
	metrics *metrics.Collector
}

// NewMetricsPostRecordRepository wraps inner
func NewMetricsPostRecordRepository(inner PostRecordRepository, collector *metrics.Collector) *MetricsPostRecordRepository {
	return &MetricsPostRecordRepository{inner: inner, metrics: collector}
}

func (r *MetricsPostRecordRepository) HasCachedRecords(ctx context.Context) (bool, error) {
	started := time.Now()
	has, err := r.inner.HasCachedRecords(ctx)
	r.metrics.ObserveStore("has_cached", started, err)
	return has, err
}

func (r *MetricsPostRecordRepository) LoadRecords(ctx context.Context) ([]models.Post, error) {
	started := time.Now()
	posts, err := r.inner.LoadRecords(ctx)
	r.metrics.ObserveStore("load", started, err)
	return posts, err
}

func (r *MetricsPostRecordRepository) SaveRecords(ctx context.Context, posts []models.Post) error {
	started := time.Now()
	err := r.inner.SaveRecords(ctx, posts)
	r.metrics.ObserveStore("save", started, err)
	return err
}

func (r *MetricsPostRecordRepository) UpdateLikeState(ctx context.Context, postID int, isLiked bool) error {
	started := time.Now()
	err := r.inner.UpdateLikeState(ctx, postID, isLiked)
	r.metrics.ObserveStore("update_like", started, err)
	return err
}
