package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

// SQLite persists values in a single prefs table of a SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store.OpenSQLite: open: %w", err)
	}
	// One writer keeps read-modify-write sequences from interleaving.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prefs (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		);
	`)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("store.OpenSQLite: create prefs table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM prefs WHERE namespace = ? AND key = ?", namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store.SQLite.Get: %w", err)
	}
	return value, true, nil
}

func (s *SQLite) Put(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO prefs (namespace, key, value, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(namespace, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		namespace, key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store.SQLite.Put: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM prefs WHERE namespace = ? AND key = ?", namespace, key); err != nil {
		return fmt.Errorf("store.SQLite.Delete: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
