// Package postgres implements the History Sink's multi-instance
// backend, a thin pgxpool wrapper modeled on the connection-pool
// pattern used for this codebase's primary datastore.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/reqflux/reqflux/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config dials a PostgreSQL history sink.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultConfig mirrors the pool sizing this is grounded on.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		ConnectTimeout:  5 * time.Second,
	}
}

// Store writes HistoryRecords to a "request_history" table, never
// consulted by the hot path.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects, runs pending migrations, and returns a ready Store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := runMigrations(cfg.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// Record inserts a terminal outcome. Errors are returned to the
// orchestrator, which logs and discards them (HistorySinkError, §7).
func (s *Store) Record(ctx context.Context, rec domain.HistoryRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO request_history (item_id, endpoint, priority, attempts, success, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ItemID, rec.Endpoint, int(rec.Priority), rec.Attempts, rec.Success, rec.Error,
		rec.Duration.Milliseconds(), rec.CreatedAt)
	return err
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
