package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the notifications raised by the feed session
type NotificationHandler struct {
	view *FeedView
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(view *FeedView) *NotificationHandler {
	return &NotificationHandler{view: view}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
}

// GetNotifications returns recent notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	notifications := h.view.Notifications()
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications,
		},
		"meta": echo.Map{
			"totalItems": len(notifications),
		},
	})
}
