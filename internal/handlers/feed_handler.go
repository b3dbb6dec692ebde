package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	"github.com/anonto42/nano-midea/feedsync/internal/models"
	apperrors "github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"github.com/labstack/echo/v4"
)

// ImageFetcher downloads avatar images
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) []byte
}

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	coordinator *feedsync.Coordinator
	images      ImageFetcher
	view        *FeedView
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(coordinator *feedsync.Coordinator, images ImageFetcher, view *FeedView) *FeedHandler {
	return &FeedHandler{
		coordinator: coordinator,
		images:      images,
		view:        view,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.POST("/feed/refresh", h.RefreshFeed)
	g.GET("/posts/:post_id/avatar", h.GetAvatar)
}

// FeedPost is a post with its derived avatar location
type FeedPost struct {
	models.Post
	AvatarURL string `json:"avatar_url"`
}

func toFeedPosts(posts []models.Post) []FeedPost {
	out := make([]FeedPost, len(posts))
	for i, p := range posts {
		out[i] = FeedPost{Post: p, AvatarURL: p.AvatarURL()}
	}
	return out
}

// GetFeed returns the posts currently displayed by the session
func (h *FeedHandler) GetFeed(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts":      toFeedPosts(h.view.Posts()),
			"state":      h.coordinator.State().String(),
			"refreshing": h.view.Refreshing(),
		},
	})
}

// RefreshFeed is the pull-to-refresh gesture
func (h *FeedHandler) RefreshFeed(c echo.Context) error {
	h.view.BeginRefreshing()
	err := h.coordinator.Refresh(c.Request().Context())
	switch {
	case err == nil:
	case apperrors.IsOffline(err):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "No connection, showing cached posts")
	case apperrors.IsTransport(err):
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to load posts")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": toFeedPosts(h.coordinator.Posts()),
		},
	})
}

// AvatarRequest identifies the post whose avatar is requested
type AvatarRequest struct {
	PostID int `param:"post_id" validate:"required,min=1"`
}

// GetAvatar proxies the avatar image of a post
func (h *FeedHandler) GetAvatar(c echo.Context) error {
	var req AvatarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post id")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, ok := h.coordinator.Post(req.PostID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	data := h.images.FetchImage(c.Request().Context(), post.AvatarURL())
	if data == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Avatar not available")
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}
