package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

const (
	itemsTable    = "inventory_items"
	mappingsTable = "vendor_item_mappings"
)

// Config holds PostgreSQL connection settings
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL and applies pool settings
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.OrNop(log).Info("connected to postgres", zap.Int("maxOpenConns", cfg.MaxOpenConns))
	return db, nil
}

// schema creates the tables the repositories use. pg_trgm backs candidate ordering.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		name            TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT '',
		pack_size       TEXT,
		unit_price      DOUBLE PRECISION,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_items_user_name_idx ON inventory_items (user_id, normalized_name)`,
	`CREATE INDEX IF NOT EXISTS inventory_items_name_trgm_idx ON inventory_items USING gin (normalized_name gin_trgm_ops)`,
	`CREATE TABLE IF NOT EXISTS vendor_item_mappings (
		id                     TEXT PRIMARY KEY,
		user_id                TEXT NOT NULL,
		vendor_id              TEXT NOT NULL,
		vendor_description     TEXT NOT NULL,
		normalized_description TEXT NOT NULL,
		inventory_item_id      TEXT NOT NULL REFERENCES inventory_items (id),
		confidence             DOUBLE PRECISION NOT NULL,
		match_method           TEXT NOT NULL,
		needs_review           BOOLEAN NOT NULL DEFAULT FALSE,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, vendor_id, normalized_description)
	)`,
}

// Migrate creates the schema if it does not exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// storeError wraps a driver error so callers can match domain.ErrStoreUnavailable
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
