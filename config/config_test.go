package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/store/boltstore"
	"github.com/wippyai/wordstore/store/memstore"
	"github.com/wippyai/wordstore/store/sqlitestore"
	"github.com/wippyai/wordstore/word"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendMemory || cfg.CacheSize != 128 || cfg.LogLevel != "info" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.EncodingValue() != schema.EncodingLegacy {
		t.Errorf("encoding = %s, want legacy", cfg.EncodingValue())
	}
	if cfg.Owner() != word.Address(word.FromUint64(1)) {
		t.Errorf("owner = %s, want 0x1", cfg.Owner())
	}

	st, err := cfg.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(*memstore.Store); !ok {
		t.Fatalf("store = %T, want memstore", st)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORDSTORE_BACKEND", "BOLT")
	t.Setenv("WORDSTORE_PATH", filepath.Join(t.TempDir(), "world.db"))
	t.Setenv("WORDSTORE_ENCODING", "native")
	t.Setenv("WORDSTORE_WORLD_OWNER", "0xad")
	t.Setenv("WORDSTORE_CACHE_SIZE", "16")
	t.Setenv("WORDSTORE_LOG_LEVEL", "debug")
	t.Setenv("WORDSTORE_METRICS_ADDR", ":9100")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendBolt || cfg.CacheSize != 16 || cfg.MetricsAddr != ":9100" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.EncodingValue() != schema.EncodingNative {
		t.Errorf("encoding = %s, want native", cfg.EncodingValue())
	}

	ctx := context.Background()
	w, st, err := cfg.OpenWorld(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(*boltstore.Store); !ok {
		t.Fatalf("store = %T, want boltstore", st)
	}
	if w.Encoding() != schema.EncodingNative {
		t.Errorf("world encoding = %s", w.Encoding())
	}
	if ok, err := w.IsOwner(ctx, word.Zero, word.Address(word.FromUint64(0xad))); err != nil || !ok {
		t.Fatalf("configured owner does not own the world: %v, %v", ok, err)
	}
}

func TestOpenSQLite(t *testing.T) {
	t.Setenv("WORDSTORE_BACKEND", "sqlite")
	t.Setenv("WORDSTORE_PATH", filepath.Join(t.TempDir(), "world.sqlite"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	st, err := cfg.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(*sqlitestore.Store); !ok {
		t.Fatalf("store = %T, want sqlitestore", st)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"WORDSTORE_BACKEND": "redis"}},
		{"bolt without path", map[string]string{"WORDSTORE_BACKEND": "bolt"}},
		{"sqlite without path", map[string]string{"WORDSTORE_BACKEND": "sqlite"}},
		{"bad encoding", map[string]string{"WORDSTORE_ENCODING": "zigzag"}},
		{"bad owner", map[string]string{"WORDSTORE_WORLD_OWNER": "not-hex"}},
		{"zero cache", map[string]string{"WORDSTORE_CACHE_SIZE": "0"}},
		{"bad level", map[string]string{"WORDSTORE_LOG_LEVEL": "loud"}},
		{"cache not a number", map[string]string{"WORDSTORE_CACHE_SIZE": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if !errors.Is(err, wserr.Sentinel(wserr.KindInvalidInput)) {
				t.Fatalf("Load() error = %v, want invalid_input", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, dev := range []bool{false, true} {
		cfg := Config{LogLevel: "warn", Development: dev}
		log, err := cfg.NewLogger()
		if err != nil {
			t.Fatal(err)
		}
		if log.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("dev=%v: debug enabled at warn level", dev)
		}
		if !log.Core().Enabled(zapcore.ErrorLevel) {
			t.Errorf("dev=%v: error disabled at warn level", dev)
		}
	}
}
