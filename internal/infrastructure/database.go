package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tomorunn/zisaku/internal/domain"
)

// Database wraps the gorm connection with pool tuning and schema helpers
type Database struct {
	*gorm.DB
	logger *zap.Logger
}

// NewDatabase opens the postgres connection holding users, contests,
// problems and the submission ledger. TranslateError is on so unique
// violations surface as gorm.ErrDuplicatedKey and the repositories can map
// them to domain errors.
func NewDatabase(config *DatabaseConfig, zapLogger *zap.Logger) (*Database, error) {
	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger:                 newGormLogger(zapLogger),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	zapLogger.Info("Database connection established",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.DBName),
		zap.Int("max_open_conns", config.MaxOpenConns),
	)

	return &Database{DB: db, logger: zapLogger}, nil
}

// AutoMigrate creates or updates the schema for every domain entity.
// The submissions table only ever grows; nothing here deletes data.
func (d *Database) AutoMigrate() error {
	d.logger.Info("Running database migrations")

	err := d.DB.AutoMigrate(
		&domain.User{},
		&domain.Contest{},
		&domain.Problem{},
		&domain.Submission{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed")
	return nil
}

// HealthCheck pings the database, bounded by the request context
func (d *Database) HealthCheck(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newGormLogger routes gorm's own logging through zap, warning on slow
// queries and staying silent about ErrRecordNotFound, which the
// repositories translate into domain errors anyway.
func newGormLogger(zapLogger *zap.Logger) gormlogger.Interface {
	return gormlogger.New(
		zapWriter{zapLogger},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

type zapWriter struct {
	logger *zap.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}
