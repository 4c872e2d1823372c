package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/store/storetest"
	"github.com/wippyai/wordstore/word"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) wordstore.Store {
		s, err := Open(filepath.Join(t.TempDir(), "world.db"))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return s
	})
}

func TestReopenKeepsWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	key := word.MustParse("0x1234")
	if err := s.SetWords(ctx, key, word.Words(7, 8, 9)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.GetWords(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !word.Equal(got, word.Words(7, 8, 9)) {
		t.Fatalf("GetWords after reopen = %v", got)
	}
	if n, err := s.Len(); err != nil || n != 1 {
		t.Fatalf("Len() = %d, %v; want 1", n, err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q", s.Path())
	}
}
