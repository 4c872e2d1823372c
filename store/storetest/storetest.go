// Package storetest is a conformance suite for wordstore.Store backends.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/word"
)

// Opener returns a fresh, empty store.
type Opener func(t *testing.T) wordstore.Store

// Run exercises the Store contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("MissingKey", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		got, err := s.GetWords(context.Background(), word.FromUint64(1))
		if err != nil {
			t.Fatalf("GetWords failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no words, got %v", got)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		key := word.MustParse("0x7ff")
		want := []word.Word{word.FromUint64(1), word.MustFromBig(word.Mask()), word.Zero}
		if err := s.SetWords(ctx, key, want); err != nil {
			t.Fatalf("SetWords failed: %v", err)
		}
		got, err := s.GetWords(ctx, key)
		if err != nil {
			t.Fatalf("GetWords failed: %v", err)
		}
		if !word.Equal(got, want) {
			t.Fatalf("GetWords = %v, want %v", got, want)
		}

		// Returned slices are copies
		got[0] = word.FromUint64(99)
		again, _ := s.GetWords(ctx, key)
		if !word.Equal(again, want) {
			t.Fatalf("stored words changed through returned slice: %v", again)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		key := word.FromUint64(5)
		_ = s.SetWords(ctx, key, word.Words(1, 2, 3))
		if err := s.SetWords(ctx, key, word.Words(4)); err != nil {
			t.Fatalf("SetWords failed: %v", err)
		}
		got, _ := s.GetWords(ctx, key)
		if !word.Equal(got, word.Words(4)) {
			t.Fatalf("GetWords = %v, want [4]", got)
		}
	})

	t.Run("EmptyDeletes", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		key := word.FromUint64(6)
		_ = s.SetWords(ctx, key, word.Words(1))
		if err := s.SetWords(ctx, key, nil); err != nil {
			t.Fatalf("SetWords(nil) failed: %v", err)
		}
		got, _ := s.GetWords(ctx, key)
		if len(got) != 0 {
			t.Fatalf("expected key deleted, got %v", got)
		}
		// Deleting a missing key is fine
		if err := s.SetWords(ctx, word.FromUint64(7), nil); err != nil {
			t.Fatalf("deleting missing key failed: %v", err)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		for i := uint64(1); i <= 20; i++ {
			if err := s.SetWords(ctx, word.FromUint64(i), word.Words(i, i*i)); err != nil {
				t.Fatalf("SetWords(%d) failed: %v", i, err)
			}
		}
		for i := uint64(1); i <= 20; i++ {
			got, _ := s.GetWords(ctx, word.FromUint64(i))
			if !word.Equal(got, word.Words(i, i*i)) {
				t.Fatalf("key %d = %v", i, got)
			}
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i uint64) {
				defer wg.Done()
				for j := uint64(0); j < 10; j++ {
					key := word.FromUint64(i*100 + j)
					if err := s.SetWords(ctx, key, word.Words(j)); err != nil {
						t.Errorf("SetWords failed: %v", err)
						return
					}
					if _, err := s.GetWords(ctx, key); err != nil {
						t.Errorf("GetWords failed: %v", err)
						return
					}
				}
			}(uint64(i))
		}
		wg.Wait()
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := s.SetWords(ctx, word.FromUint64(1), word.Words(1)); !errors.Is(err, context.Canceled) {
			t.Fatalf("SetWords with canceled context = %v, want context.Canceled", err)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		s := open(t)
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("second Close failed: %v", err)
		}
		if _, err := s.GetWords(context.Background(), word.FromUint64(1)); !errors.Is(err, wordstore.ErrClosed) {
			t.Fatalf("GetWords after Close = %v, want ErrClosed", err)
		}
		if err := s.SetWords(context.Background(), word.FromUint64(1), word.Words(1)); !errors.Is(err, wordstore.ErrClosed) {
			t.Fatalf("SetWords after Close = %v, want ErrClosed", err)
		}
	})
}
