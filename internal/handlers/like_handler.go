package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	apperrors "github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	coordinator *feedsync.Coordinator
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(coordinator *feedsync.Coordinator) *LikeHandler {
	return &LikeHandler{coordinator: coordinator}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/like", h.ToggleLike)
}

// ToggleLikeRequest is the like tap. With Wait the response is sent only
// after the new state is persisted.
type ToggleLikeRequest struct {
	PostID int `param:"post_id" validate:"required,min=1"`
	Wait   bool
}

// ToggleLike flips the like state of a post
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	var req ToggleLikeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	// the default binder ignores query parameters on POST
	if err := echo.QueryParamsBinder(c).Bool("wait", &req.Wait).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid wait parameter")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, done, err := h.coordinator.ToggleLike(c.Request().Context(), req.PostID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !req.Wait {
		return c.JSON(http.StatusAccepted, echo.Map{"post_id": post.ID, "is_liked": post.IsLiked, "persisted": false})
	}

	if err := <-done; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Like could not be saved")
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": post.ID, "is_liked": post.IsLiked, "persisted": true})
}
