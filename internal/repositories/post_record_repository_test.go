package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func samplePosts() []models.Post {
	return []models.Post{
		{ID: 2, Title: "second", Body: "body two"},
		{ID: 1, Title: "first", Body: "body one"},
		{ID: 3, Title: "third", Body: "body three", IsLiked: true},
	}
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newGormRepo(t *testing.T) (*GormPostRecordRepository, *gorm.DB) {
	t.Helper()
	db := openSQLite(t)
	repo := NewGormPostRecordRepository(db, zap.NewNop())
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, db
}

// repositoryContract exercises behaviour every PostRecordRepository must share
func repositoryContract(t *testing.T, newRepo func(t *testing.T) PostRecordRepository) {
	t.Run("empty store", func(t *testing.T) {
		repo := newRepo(t)
		has, err := repo.HasCachedRecords(context.Background())
		require.NoError(t, err)
		assert.False(t, has)

		posts, err := repo.LoadRecords(context.Background())
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("save then load round trip", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.SaveRecords(ctx, samplePosts()))

		has, err := repo.HasCachedRecords(ctx)
		require.NoError(t, err)
		assert.True(t, has)

		posts, err := repo.LoadRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Post{
			{ID: 1, Title: "first", Body: "body one"},
			{ID: 2, Title: "second", Body: "body two"},
			{ID: 3, Title: "third", Body: "body three", IsLiked: true},
		}, posts)
	})

	t.Run("repeated save does not duplicate and keeps like state", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.SaveRecords(ctx, samplePosts()))
		require.NoError(t, repo.UpdateLikeState(ctx, 1, true))

		refreshed := []models.Post{
			{ID: 1, Title: "first edited", Body: "body one edited"},
			{ID: 2, Title: "second", Body: "body two"},
			{ID: 3, Title: "third", Body: "body three"},
			{ID: 4, Title: "fourth", Body: "body four"},
		}
		require.NoError(t, repo.SaveRecords(ctx, refreshed))

		posts, err := repo.LoadRecords(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 4)
		assert.Equal(t, models.Post{ID: 1, Title: "first edited", Body: "body one edited", IsLiked: true}, posts[0])
		assert.True(t, posts[2].IsLiked, "stored like flag wins over the fetched default")
		assert.False(t, posts[3].IsLiked)
	})

	t.Run("duplicate ids in one batch collapse to one record", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.SaveRecords(ctx, []models.Post{
			{ID: 5, Title: "old", Body: "old"},
			{ID: 5, Title: "new", Body: "new"},
		}))

		posts, err := repo.LoadRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Post{{ID: 5, Title: "new", Body: "new"}}, posts)
	})

	t.Run("save of empty batch is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveRecords(context.Background(), nil))
	})

	t.Run("like toggled twice returns to original", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.SaveRecords(ctx, samplePosts()))

		require.NoError(t, repo.UpdateLikeState(ctx, 2, true))
		require.NoError(t, repo.UpdateLikeState(ctx, 2, false))

		posts, err := repo.LoadRecords(ctx)
		require.NoError(t, err)
		assert.False(t, posts[1].IsLiked)
	})

	t.Run("update of unknown id is a silent no-op", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.UpdateLikeState(ctx, 404, true))

		has, err := repo.HasCachedRecords(ctx)
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestMemoryPostRecordRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) PostRecordRepository {
		return NewMemoryPostRecordRepository()
	})
}

func TestGormPostRecordRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) PostRecordRepository {
		repo, _ := newGormRepo(t)
		return repo
	})
}

func TestGormPostRecordRepository_SkipsIncompleteRows(t *testing.T) {
	ctx := context.Background()
	repo, db := newGormRepo(t)

	title := "no body"
	require.NoError(t, db.Create(&models.PostRecord{PostID: 8, PostTitle: &title}).Error)
	require.NoError(t, repo.SaveRecords(ctx, []models.Post{{ID: 9, Title: "full", Body: "row"}}))

	has, err := repo.HasCachedRecords(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	posts, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Post{{ID: 9, Title: "full", Body: "row"}}, posts)
}

func TestMemoryPostRecordRepository_SkipsIncompleteRecords(t *testing.T) {
	repo := NewMemoryPostRecordRepository()
	repo.PutRecord(models.PostRecord{PostID: 1})

	posts, err := repo.LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 1, repo.Count())
}

func TestMemoryPostRecordRepository_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryPostRecordRepository()
	assert.Error(t, repo.SaveRecords(ctx, samplePosts()))
	_, err := repo.LoadRecords(ctx)
	assert.Error(t, err)
}
