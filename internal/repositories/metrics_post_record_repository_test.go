package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/feedsync/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsPostRecordRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) PostRecordRepository {
		return NewMetricsPostRecordRepository(NewMemoryPostRecordRepository(), metrics.NewCollector("test"))
	})
}

func TestMetricsPostRecordRepository_CountsOperations(t *testing.T) {
	collector := metrics.NewCollector("test")
	repo := NewMetricsPostRecordRepository(NewMemoryPostRecordRepository(), collector)

	ctx := context.Background()
	require.NoError(t, repo.SaveRecords(ctx, samplePosts()))
	_, err := repo.LoadRecords(ctx)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, repo.SaveRecords(cancelled, samplePosts()))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StoreOperations.WithLabelValues("save", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StoreOperations.WithLabelValues("save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StoreOperations.WithLabelValues("load", "success")))
}
