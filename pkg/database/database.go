package database

import (
	"context"
	"time"

	"locallibrary/pkg/config"
	"locallibrary/pkg/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var retryDelay = 5 * time.Second

// Open connects to the configured store, retrying while it comes up.
func Open(ctx context.Context, cfg config.Database, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverPostgres {
		logger.Info("Connecting to database",
			zap.String("host", cfg.Host),
			zap.String("port", cfg.Port),
			zap.String("user", cfg.User),
			zap.String("name", cfg.Name))
	} else {
		logger.Info("Opening sqlite database", zap.String("path", cfg.Path))
	}

	gormCfg := &gorm.Config{Logger: gormLogger(logger)}

	var db *gorm.DB
	for i := 0; i < cfg.ConnectRetries; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		logger.Warn("Database connection attempt failed",
			zap.Int("attempt", i+1),
			zap.Int("max", cfg.ConnectRetries),
			zap.Error(err))
		if i < cfg.ConnectRetries-1 {
			select {
			case <-ctx.Done():
				return nil, errors.WithStack(ctx.Err())
			case <-time.After(retryDelay):
			}
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database instance")
	}
	if cfg.InMemory() {
		// every new connection to :memory: is a fresh, empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "database ping failed")
	}

	logger.Info("Database connection established successfully")
	return db, nil
}

// Migrate creates or updates the catalog tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.Close())
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	}
	return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
}

func gormLogger(logger *zap.Logger) gormlogger.Interface {
	level := gormlogger.Silent
	switch {
	case logger.Core().Enabled(zap.DebugLevel):
		level = gormlogger.Info
	case logger.Core().Enabled(zap.WarnLevel):
		level = gormlogger.Warn
	}
	return gormlogger.New(zap.NewStdLog(logger), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
