package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grouporder-workers/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type Client struct {
	db *gorm.DB
}

func NewClient(cfg config.PostgresConfig) (*Client, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Client{db: db}, nil
}

// Migrate creates or updates the snapshot table.
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&OrderSnapshot{}); err != nil {
		return fmt.Errorf("failed to migrate order_snapshots: %w", err)
	}
	return nil
}

// SaveSnapshot inserts snap, or overwrites the row with the same request ID
// so that redelivered lookups stay idempotent. snap.ID is set on return.
func (c *Client) SaveSnapshot(ctx context.Context, snap *OrderSnapshot) error {
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		UpdateAll: true,
	}).Create(snap).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.RequestID, err)
	}
	return nil
}

func (c *Client) GetSnapshot(ctx context.Context, id int64) (*OrderSnapshot, error) {
	var snap OrderSnapshot
	err := c.db.WithContext(ctx).First(&snap, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %d: %w", id, err)
	}
	return &snap, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
