// Package sqlitestore is a wordstore.Store backed by SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/store/sqlitestore/migrations"
	"github.com/wippyai/wordstore/word"
)

// Store persists words in a single table keyed by the 32-byte word.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

var _ wordstore.Store = (*Store)(nil)

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.Store("open", errors.InvalidInput(errors.PhaseStore, nil, "storage path is required"))
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Store("open "+cleanPath, err)
	}
	// single writer; readers share the connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Store("ping "+cleanPath, err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, errors.Store("migrate", err)
	}

	Logger().Debug("opened sqlite store", zap.String("path", cleanPath))
	return &Store{db: db, path: cleanPath}, nil
}

// GetWords returns the words at key.
func (s *Store) GetWords(ctx context.Context, key word.Word) ([]word.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Store("get", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.Store("get", wordstore.ErrClosed)
	}

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM words WHERE key = ?`, key[:]).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Store("get", err)
	}
	words, err := word.Split(raw)
	if err != nil {
		return nil, errors.Store("get", err)
	}
	return words, nil
}

// SetWords upserts the words at key, deleting the row when words is empty.
func (s *Store) SetWords(ctx context.Context, key word.Word, words []word.Word) error {
	if err := ctx.Err(); err != nil {
		return errors.Store("set", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.Store("set", wordstore.ErrClosed)
	}

	var err error
	if len(words) == 0 {
		_, err = s.db.ExecContext(ctx, `DELETE FROM words WHERE key = ?`, key[:])
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO words (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key[:], word.Concat(words),
		)
	}
	if err != nil {
		return errors.Store("set", err)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.Store("len", wordstore.ErrClosed)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, errors.Store("len", err)
	}
	return n, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	Logger().Debug("closing sqlite store", zap.String("path", s.path))
	if err := s.db.Close(); err != nil {
		return errors.Store("close", err)
	}
	return nil
}
