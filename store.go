package wordstore

import (
	"context"
	"errors"

	"github.com/wippyai/wordstore/word"
)

// ErrClosed is returned by a Store used after Close.
var ErrClosed = errors.New("word store closed")

// Store is the word persistence consumed by the world and the ACL.
type Store interface {
	// GetWords returns the words stored at key, or nil if none are.
	GetWords(ctx context.Context, key word.Word) ([]word.Word, error)
	// SetWords replaces the words at key. Empty words delete the key.
	SetWords(ctx context.Context, key word.Word, words []word.Word) error
	Close() error
}
