package config

import (
	"testing"
	"time"

	"github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.FeedBaseURL)
	assert.Equal(t, cfg.FeedBaseURL, cfg.ProbeURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.ReachabilityInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "http://feed.local:9000")
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "http://feed.local:9000", cfg.FeedBaseURL)
	assert.Equal(t, "http://feed.local:9000", cfg.ProbeURL)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Contains(t, cfg.Warnings, `Invalid duration "not-a-duration" for HTTP_TIMEOUT, using 15s`)
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Load()
	cfg.StoreDriver = "cassandra"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	cfg = Load()
	cfg.StoreDriver = DriverPostgres
	cfg.PostgresURL = ""
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.FeedBaseURL = "not a url"
	assert.Error(t, cfg.Validate())
}
