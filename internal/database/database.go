package database

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/procurement-api/internal/config"
	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		&domain.Project{},
		&domain.BidPackage{},
		&domain.ImportBatch{},
		&domain.SpecItem{},
		&domain.Invite{},
		&domain.Bid{},
		&domain.BidLineItem{},
		&domain.BidSubmissionVersion{},
		&domain.BidAwardEvent{},
	}
}

// AutoMigrate runs automatic migrations (for development and tests only,
// production schema is owned by the goose migrations)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// HealthCheck pings the database with a short timeout
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// PoolStats is the connection pool snapshot returned by the db health endpoint
type PoolStats struct {
	Status             string `json:"status"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	MaxOpenConnections int    `json:"maxOpenConnections"`
	WaitCount          int64  `json:"waitCount"`
	WaitDurationMs     int64  `json:"waitDurationMs"`
}

// HealthCheckWithStats pings the database and reports pool statistics
func HealthCheckWithStats(db *gorm.DB) (*PoolStats, error) {
	if err := HealthCheck(db); err != nil {
		return &PoolStats{Status: "unhealthy"}, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return &PoolStats{Status: "unhealthy"}, err
	}

	s := sqlDB.Stats()
	return &PoolStats{
		Status:             "healthy",
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		MaxOpenConnections: s.MaxOpenConnections,
		WaitCount:          s.WaitCount,
		WaitDurationMs:     s.WaitDuration.Milliseconds(),
	}, nil
}
