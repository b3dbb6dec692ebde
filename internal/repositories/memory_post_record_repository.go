package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
)

// MemoryPostRecordRepository keeps post records in process memory. It backs
// the memory store driver and stands in for a real database in tests.
type MemoryPostRecordRepository struct {
	mu      sync.RWMutex
	records map[int]models.PostRecord
}

// NewMemoryPostRecordRepository creates an empty MemoryPostRecordRepository
func NewMemoryPostRecordRepository() *MemoryPostRecordRepository {
	return &MemoryPostRecordRepository{records: make(map[int]models.PostRecord)}
}

// PutRecord stores a raw record as-is, replacing any record with the same post id
func (r *MemoryPostRecordRepository) PutRecord(record models.PostRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.PostID] = record
}

// Count returns the number of stored records, complete or not
func (r *MemoryPostRecordRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// HasCachedRecords reports whether any record exists
func (r *MemoryPostRecordRepository) HasCachedRecords(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.Count() > 0, nil
}

// LoadRecords returns all complete records ordered by post id
func (r *MemoryPostRecordRepository) LoadRecords(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	records := make([]models.PostRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].PostID < records[j].PostID })
	posts, _ := models.PostsFromRecords(records)
	return posts, nil
}

// SaveRecords upserts by post id, keeping the like flag of existing records
func (r *MemoryPostRecordRepository) SaveRecords(ctx context.Context, posts []models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range posts {
		rec := models.NewPostRecord(p)
		rec.UpdatedAt = now
		if existing, ok := r.records[p.ID]; ok {
			rec.IsLiked = existing.IsLiked
			rec.CreatedAt = existing.CreatedAt
		} else {
			rec.CreatedAt = now
		}
		r.records[p.ID] = rec
	}
	return nil
}

// UpdateLikeState sets the like flag of an existing record
func (r *MemoryPostRecordRepository) UpdateLikeState(ctx context.Context, postID int, isLiked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[postID]
	if !ok {
		return nil
	}
	rec.IsLiked = isLiked
	rec.UpdatedAt = time.Now()
	r.records[postID] = rec
	return nil
}
