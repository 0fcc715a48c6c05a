// Package sqlite implements the History Sink's embedded, single-node
// backend: no external dependencies, pure Go via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/pressly/goose/v3"

	"github.com/reqflux/reqflux/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store writes HistoryRecords to a local SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the SQLite file at path and applies
// pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers per file

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Record(ctx context.Context, rec domain.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_history (item_id, endpoint, priority, attempts, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ItemID, rec.Endpoint, int(rec.Priority), rec.Attempts, rec.Success, rec.Error,
		rec.Duration.Milliseconds(), rec.CreatedAt.Unix())
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
