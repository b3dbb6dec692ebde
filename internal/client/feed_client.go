package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
	apperrors "github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"github.com/anonto42/nano-midea/feedsync/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "feedsync/1.0"
	maxImageBytes    = 10 << 20
)

// FeedClient talks to the remote posts API
type FeedClient struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// Option configures a FeedClient
type Option func(*FeedClient)

// WithHTTPClient replaces the underlying http.Client. The client is not
// modified; WithTimeout applies to a copy of it.
func WithHTTPClient(c *http.Client) Option {
	return func(fc *FeedClient) { fc.http = c }
}

// WithTimeout sets the per-request timeout, whatever the option order
func WithTimeout(d time.Duration) Option {
	return func(fc *FeedClient) { fc.timeout = d }
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(fc *FeedClient) { fc.userAgent = ua }
}

// WithLogger sets the client's logger
func WithLogger(l *zap.Logger) Option {
	return func(fc *FeedClient) { fc.logger = l }
}

// WithMetrics records every posts fetch in collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(fc *FeedClient) { fc.metrics = collector }
}

// NewFeedClient creates a client for the API rooted at baseURL
func NewFeedClient(baseURL string, opts ...Option) *FeedClient {
	fc := &FeedClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(fc)
	}
	if fc.timeout > 0 {
		httpClient := *fc.http
		httpClient.Timeout = fc.timeout
		fc.http = &httpClient
	}

	fc.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "feed-posts",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fc.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return fc
}

// FetchPosts issues GET {baseURL}/posts and converts the result in source order.
// Every failure is returned as a single transport error.
func (c *FeedClient) FetchPosts(ctx context.Context) ([]models.Post, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchPosts(ctx)
	})
	if c.metrics != nil {
		c.metrics.ObserveFetch(err)
	}
	if err != nil {
		c.logger.Warn("failed to fetch posts", zap.Error(err))
		return nil, apperrors.NewTransport("failed to fetch posts", err)
	}
	return result.([]models.Post), nil
}

func (c *FeedClient) fetchPosts(ctx context.Context) ([]models.Post, error) {
	resp, err := c.get(ctx, c.baseURL+"/posts")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var remote []models.RemotePost
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]models.Post, len(remote))
	for i, r := range remote {
		posts[i] = r.ToPost()
	}
	c.logger.Debug("fetched posts", zap.Int("count", len(posts)))
	return posts, nil
}

// FetchImage downloads an image. It returns nil when the request fails, the
// status is not 2xx, the body is too large or is not a JPEG, PNG or GIF.
func (c *FeedClient) FetchImage(ctx context.Context, url string) []byte {
	resp, err := c.get(ctx, url)
	if err != nil {
		c.logger.Debug("image fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil || len(data) > maxImageBytes {
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		c.logger.Debug("image decode failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	return data
}

// get performs a GET and rejects non-2xx responses.
func (c *FeedClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return resp, nil
}
