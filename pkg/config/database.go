package config

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the connection for whichever store driver is configured.
// Both handles are nil for the memory driver.
type DB struct {
	Driver string
	Gorm   *gorm.DB
	Mongo  *mongo.Client

	logger *zap.Logger
}

// InitDB opens and pings the store configured by cfg.StoreDriver
func InitDB(ctx context.Context, cfg *Config, logger *zap.Logger) (*DB, error) {
	db := &DB{Driver: cfg.StoreDriver, logger: logger}

	switch cfg.StoreDriver {
	case DriverSQLite:
		g, err := initGorm(sqlite.Open(cfg.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite cache at %s: %w", cfg.SQLitePath, err)
		}
		db.Gorm = g
		logger.Info("Successfully opened SQLite cache", zap.String("path", cfg.SQLitePath))
	case DriverPostgres:
		g, err := initGorm(postgres.Open(cfg.PostgresURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		db.Gorm = g
		logger.Info("Successfully connected to PostgreSQL!")
	case DriverMongo:
		client, err := initMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.Mongo = client
		logger.Info("Successfully connected to MongoDB!")
	case DriverMemory:
		logger.Warn("Using in-memory store, cached posts will not survive a restart")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	return db, nil
}

// initGorm opens a gorm connection and pings it
func initGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// initMongo connects to MongoDB and pings the primary
func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Gorm != nil {
		sqlDB, err := db.Gorm.DB()
		if err != nil {
			db.logger.Error("Error getting SQL DB from GORM", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			db.logger.Error("Error closing SQL connection", zap.Error(err))
		} else {
			db.logger.Info("SQL connection closed.", zap.String("driver", db.Driver))
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Error("Error closing MongoDB connection", zap.Error(err))
		} else {
			db.logger.Info("MongoDB connection closed.")
		}
	}
}
