package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/handlers"
	"github.com/anonto42/nano-midea/feedsync/internal/router"
	"github.com/anonto42/nano-midea/feedsync/pkg/config"
	"github.com/anonto42/nano-midea/feedsync/pkg/validators"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the feed session behind the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	view := handlers.NewFeedView()
	coordinator := a.coordinator(view)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, a.logger.Named("http"))
	router.SetupRoutes(e, router.Dependencies{
		Coordinator:  coordinator,
		View:         view,
		Images:       a.client,
		Reachability: a.monitor,
		Metrics:      a.metrics.Handler(),
		Logger:       a.logger,
	})

	if err := coordinator.Start(ctx); err != nil {
		return err
	}
	defer coordinator.Stop()

	go func() {
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	a.logger.Info("Server started", zap.String("port", a.cfg.Port), zap.String("store", a.cfg.StoreDriver))

	<-ctx.Done()
	a.logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}
