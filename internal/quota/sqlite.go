package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a local SQLite database for single-node
// deployments that should survive restarts without running Redis.
type SQLiteStore struct {
	conn *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent increments
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.createTables(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS quota (
		identity TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		reset_at INTEGER NOT NULL
	);
	`
	_, err := s.conn.Exec(query)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, identity string) (Record, bool, error) {
	var count int
	var resetAt int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT count, reset_at FROM quota WHERE identity = ?`, identity,
	).Scan(&count, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return Record{Count: count, ResetAt: time.UnixMilli(resetAt)}, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, identity string, rec Record) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO quota (identity, count, reset_at) VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET count = excluded.count, reset_at = excluded.reset_at`,
		identity, rec.Count, rec.ResetAt.UnixMilli(),
	)
	if err != nil {
		return err
	}

	// rows whose window ended before this one started are expired
	_, err = s.conn.ExecContext(ctx, `DELETE FROM quota WHERE reset_at < ?`, rec.ResetAt.Add(-Window).UnixMilli())
	return err
}

func (s *SQLiteStore) Incr(ctx context.Context, identity string) (Record, error) {
	var count int
	var resetAt int64
	err := s.conn.QueryRowContext(ctx,
		`UPDATE quota SET count = count + 1 WHERE identity = ? RETURNING count, reset_at`, identity,
	).Scan(&count, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, err
	}
	return Record{Count: count, ResetAt: time.UnixMilli(resetAt)}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
