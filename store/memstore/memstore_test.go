package memstore

import (
	"context"
	"testing"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/store/storetest"
	"github.com/wippyai/wordstore/word"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) wordstore.Store {
		return New()
	})
}

func TestLen(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.SetWords(ctx, word.FromUint64(1), word.Words(1))
	_ = s.SetWords(ctx, word.FromUint64(2), word.Words(2))
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	_ = s.SetWords(ctx, word.FromUint64(1), nil)
	if s.Len() != 1 {
		t.Fatalf("Len() after delete = %d, want 1", s.Len())
	}
}

func TestSetWordsCopiesInput(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := word.Words(1, 2)
	_ = s.SetWords(ctx, word.FromUint64(1), in)
	in[0] = word.FromUint64(9)

	got, _ := s.GetWords(ctx, word.FromUint64(1))
	if !word.Equal(got, word.Words(1, 2)) {
		t.Fatalf("stored words changed through caller slice: %v", got)
	}
}
