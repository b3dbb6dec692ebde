package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	"github.com/anonto42/nano-midea/feedsync/internal/models"
	"github.com/anonto42/nano-midea/feedsync/internal/repositories"
	"github.com/anonto42/nano-midea/feedsync/pkg/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	posts []models.Post
	err   error
}

func (s stubFetcher) FetchPosts(context.Context) ([]models.Post, error) { return s.posts, s.err }

type stubReachability struct{ reachable bool }

func (s stubReachability) CheckReachable(context.Context) bool { return s.reachable }
func (s stubReachability) ForceCheck(context.Context) bool     { return s.reachable }

func (s stubReachability) LastStatus() (bool, time.Time, bool) {
	return s.reachable, time.Unix(0, 0), true
}

type stubImages struct{ data []byte }

func (s stubImages) FetchImage(context.Context, string) []byte { return s.data }

type fixture struct {
	e     *echo.Echo
	view  *FeedView
	store *repositories.MemoryPostRecordRepository
	coord *feedsync.Coordinator
}

func newFixture(t *testing.T, reachable bool, remote []models.Post, avatar []byte) *fixture {
	t.Helper()
	store := repositories.NewMemoryPostRecordRepository()
	view := NewFeedView()
	reach := stubReachability{reachable: reachable}
	coord := feedsync.NewCoordinator(store, stubFetcher{posts: remote}, reach, view,
		feedsync.WithPollInterval(time.Hour))

	e := echo.New()
	e.Validator = validators.NewValidator()
	api := e.Group("/api/v1")
	NewFeedHandler(coord, stubImages{data: avatar}, view).RegisterFeedRoutes(api)
	NewLikeHandler(coord).RegisterLikeRoutes(api)
	NewNotificationHandler(view).RegisterNotificationRoutes(api)
	e.GET("/health", HealthCheck(reach))

	return &fixture{e: e, view: view, store: store, coord: coord}
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

type feedResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Posts []struct {
			ID        int    `json:"id"`
			Title     string `json:"title"`
			IsLiked   bool   `json:"is_liked"`
			AvatarURL string `json:"avatar_url"`
		} `json:"posts"`
		State      string `json:"state"`
		Refreshing bool   `json:"refreshing"`
	} `json:"data"`
}

func TestRefreshThenGetFeed(t *testing.T) {
	f := newFixture(t, true, []models.Post{{ID: 1, Title: "a", Body: "b"}}, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/feed/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/feed")
	require.Equal(t, http.StatusOK, rec.Code)

	var body feedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Posts, 1)
	assert.Equal(t, 1, body.Data.Posts[0].ID)
	assert.Equal(t, models.DefaultAvatarURL, body.Data.Posts[0].AvatarURL)
	assert.Equal(t, "ready", body.Data.State)
	assert.False(t, body.Data.Refreshing)
}

func TestRefresh_OfflineReturns503AndNotifies(t *testing.T) {
	f := newFixture(t, false, nil, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/feed/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, f.view.Refreshing())

	rec = f.do(t, http.MethodGet, "/api/v1/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Notifications []NotificationEntry `json:"notifications"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Notifications, 1)
	assert.Equal(t, feedsync.NotificationOffline, body.Data.Notifications[0].Kind)
	assert.NotEmpty(t, body.Data.Notifications[0].ID)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false, nil, nil)
	require.NoError(t, f.store.SaveRecords(ctx, []models.Post{{ID: 1, Title: "a", Body: "b"}}))
	f.coord.LoadFromCache(ctx)

	rec := f.do(t, http.MethodPost, "/api/v1/posts/1/like?wait=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"post_id":1,"is_liked":true,"persisted":true}`, rec.Body.String())

	stored, err := f.store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.True(t, stored[0].IsLiked)
	assert.True(t, f.view.Posts()[0].IsLiked)

	rec = f.do(t, http.MethodPost, "/api/v1/posts/1/like")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestToggleLike_BadRequests(t *testing.T) {
	f := newFixture(t, false, nil, nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/v1/posts/99/like").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/posts/abc/like").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/posts/0/like").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/posts/1/like?wait=maybe").Code)
}

func TestGetAvatar(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\n0000")
	f := newFixture(t, false, nil, png)
	require.NoError(t, f.store.SaveRecords(ctx, []models.Post{{ID: 1, Title: "a", Body: "b"}}))
	f.coord.LoadFromCache(ctx)

	rec := f.do(t, http.MethodGet, "/api/v1/posts/1/avatar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, png, rec.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/posts/2/avatar").Code)
}

func TestGetAvatar_Unavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false, nil, nil)
	require.NoError(t, f.store.SaveRecords(ctx, []models.Post{{ID: 1, Title: "a", Body: "b"}}))
	f.coord.LoadFromCache(ctx)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/posts/1/avatar").Code)
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, true, nil, nil)

	rec := f.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reachable":true`)
}

func TestFeedView_NotificationLimit(t *testing.T) {
	v := NewFeedView()
	for i := 0; i < maxNotifications+5; i++ {
		v.Notify(feedsync.Notification{Kind: feedsync.NotificationLoadFailed, Message: "Failed to load posts"})
	}
	v.Notify(feedsync.Notification{Kind: feedsync.NotificationOffline})

	got := v.Notifications()
	assert.Len(t, got, maxNotifications)
	assert.Equal(t, feedsync.NotificationOffline, got[0].Kind, "newest first")
}

func TestFeedView_RenderPostUpdatesInPlace(t *testing.T) {
	v := NewFeedView()
	v.Render([]models.Post{{ID: 1}, {ID: 2}})
	v.RenderPost(models.Post{ID: 2, IsLiked: true})
	v.RenderPost(models.Post{ID: 3, IsLiked: true})

	assert.Equal(t, []models.Post{{ID: 1}, {ID: 2, IsLiked: true}}, v.Posts())
}
