package cli

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/feedsync/internal/client"
	"github.com/anonto42/nano-midea/feedsync/internal/feedsync"
	"github.com/anonto42/nano-midea/feedsync/internal/reachability"
	"github.com/anonto42/nano-midea/feedsync/internal/repositories"
	"github.com/anonto42/nano-midea/feedsync/pkg/config"
	"github.com/anonto42/nano-midea/feedsync/pkg/logger"
	"github.com/anonto42/nano-midea/feedsync/pkg/metrics"
	"go.uber.org/zap"
)

// app holds the components shared by every command
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *config.DB
	store   repositories.PostRecordRepository
	client  *client.FeedClient
	monitor *reachability.Monitor
	metrics *metrics.Collector
}

// newApp loads configuration and wires the store, client and monitor
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	for _, warning := range cfg.Warnings {
		log.Warn(warning)
	}

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	store, err := newStore(ctx, cfg, db, log)
	if err != nil {
		db.CloseDB()
		log.Fatal("Failed to prepare store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	collector := metrics.NewCollector("feedsync")
	store = repositories.NewMetricsPostRecordRepository(store, collector)

	feedClient := client.NewFeedClient(cfg.FeedBaseURL,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(log.Named("client")),
		client.WithMetrics(collector),
	)
	prober := reachability.NewHTTPProber(cfg.ProbeURL, cfg.HTTPTimeout)
	monitor := reachability.NewMonitor(
		reachability.ProberFunc(func(ctx context.Context) bool {
			ok := prober.Probe(ctx)
			collector.SetReachable(ok)
			return ok
		}),
		reachability.WithCheckInterval(cfg.ReachabilityInterval),
		reachability.WithLogger(log.Named("reachability")),
	)

	return &app{
		cfg:     cfg,
		logger:  log,
		db:      db,
		store:   store,
		client:  feedClient,
		monitor: monitor,
		metrics: collector,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config, db *config.DB, log *zap.Logger) (repositories.PostRecordRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverPostgres:
		repo := repositories.NewGormPostRecordRepository(db.Gorm, log.Named("store"))
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate post records: %w", err)
		}
		return repo, nil
	case config.DriverMongo:
		repo := repositories.NewMongoPostRecordRepository(db.Mongo.Database(cfg.MongoDatabase), log.Named("store"))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create post record indexes: %w", err)
		}
		return repo, nil
	default:
		return repositories.NewMemoryPostRecordRepository(), nil
	}
}

// coordinator creates a feed session rendering to view
func (a *app) coordinator(view feedsync.View) *feedsync.Coordinator {
	return feedsync.NewCoordinator(a.store, a.client, a.monitor, view,
		feedsync.WithPollInterval(a.cfg.PollInterval),
		feedsync.WithLogger(a.logger.Named("feedsync")),
	)
}

func (a *app) close() {
	a.db.CloseDB()
	_ = a.logger.Sync()
}
