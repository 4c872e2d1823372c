// Package boltstore is a wordstore.Store backed by a bbolt file.
package boltstore

import (
	"context"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

var bucketName = []byte("words")

// DefaultTimeout bounds how long Open waits for the file lock.
const DefaultTimeout = time.Second

// Store keeps every key in a single bucket.
type Store struct {
	db     *bolt.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

var _ wordstore.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: DefaultTimeout})
	if err != nil {
		return nil, errors.Store("open "+path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Store("create bucket", err)
	}
	Logger().Debug("opened bolt store", zap.String("path", path))
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
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

	var out []word.Word
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get(key[:])
		if raw == nil {
			return nil
		}
		words, err := word.Split(raw)
		if err != nil {
			return err
		}
		out = words
		return nil
	})
	if err != nil {
		return nil, errors.Store("get", err)
	}
	return out, nil
}

// SetWords replaces the words at key in one transaction.
func (s *Store) SetWords(ctx context.Context, key word.Word, words []word.Word) error {
	if err := ctx.Err(); err != nil {
		return errors.Store("set", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.Store("set", wordstore.ErrClosed)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if len(words) == 0 {
			return b.Delete(key[:])
		}
		return b.Put(key[:], word.Concat(words))
	})
	if err != nil {
		return errors.Store("set", err)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.Store("len", wordstore.ErrClosed)
	}

	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	Logger().Debug("closing bolt store", zap.String("path", s.path))
	if err := s.db.Close(); err != nil {
		return errors.Store("close", err)
	}
	return nil
}
