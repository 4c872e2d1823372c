// Package memstore is an in-memory wordstore.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

// Store keeps words in a map guarded by a RWMutex.
type Store struct {
	entries map[word.Word][]word.Word
	mu      sync.RWMutex
	closed  bool
}

var _ wordstore.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[word.Word][]word.Word, 64)}
}

// GetWords returns a copy of the words at key.
func (s *Store) GetWords(ctx context.Context, key word.Word) ([]word.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Store("get", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.Store("get", wordstore.ErrClosed)
	}
	stored, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return append([]word.Word(nil), stored...), nil
}

// SetWords stores a copy of words at key, deleting it when words is empty.
func (s *Store) SetWords(ctx context.Context, key word.Word, words []word.Word) error {
	if err := ctx.Err(); err != nil {
		return errors.Store("set", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.Store("set", wordstore.ErrClosed)
	}
	if len(words) == 0 {
		delete(s.entries, key)
		return nil
	}
	s.entries[key] = append([]word.Word(nil), words...)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close releases all entries. Later calls fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	return nil
}
