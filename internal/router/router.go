package router

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	"github.com/anonto42/nano-midea/feedsync/internal/handlers"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies are the session components the routes are built on
type Dependencies struct {
	Coordinator  *feedsync.Coordinator
	View         *handlers.FeedView
	Images       handlers.ImageFetcher
	Reachability handlers.ReachabilityStatus
	Metrics      http.Handler
	Logger       *zap.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.GET("/health", handlers.HealthCheck(deps.Reachability))
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}

	api := e.Group("/api/v1")

	feedHandler := handlers.NewFeedHandler(deps.Coordinator, deps.Images, deps.View)
	feedHandler.RegisterFeedRoutes(api)
	deps.Logger.Debug("Feed routes configured.")

	likeHandler := handlers.NewLikeHandler(deps.Coordinator)
	likeHandler.RegisterLikeRoutes(api)
	deps.Logger.Debug("Like routes configured.")

	notificationHandler := handlers.NewNotificationHandler(deps.View)
	notificationHandler.RegisterNotificationRoutes(api)
	deps.Logger.Debug("Notification routes configured.")

	deps.Logger.Info("All routes configured.")
}
