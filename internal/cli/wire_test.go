package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/koscakluka/ema-interview/core/store"
	"github.com/koscakluka/ema-interview/core/store/sqlite"
	"github.com/koscakluka/ema-interview/internal/config"
)

func TestBuildRuntimeWithDefaults(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	cfg := config.DefaultConfig()
	cfg.Backend.URL = backend.URL

	rt, err := buildRuntime(context.Background(), cfg, t.TempDir())
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	defer rt.Close()

	if rt.orchestrator == nil || rt.notifier == nil {
		t.Fatalf("expected an orchestrator and a notifier")
	}
	if id := rt.orchestrator.SessionID(); id != "00001-00001" {
		t.Errorf("SessionID: got %s", id)
	}
}

func TestBuildRuntimeRejectsMalformedSeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Session.Seed = "not-an-id"

	if _, err := buildRuntime(context.Background(), cfg, t.TempDir()); err == nil {
		t.Fatalf("expected an error for a malformed seed")
	}
}

func TestBuildRuntimeGroqNeedsKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := config.DefaultConfig()
	cfg.Backend.URL = "http://127.0.0.1:0"
	cfg.Assessment.Provider = config.ProviderGroq

	if _, err := buildRuntime(context.Background(), cfg, t.TempDir()); err == nil {
		t.Fatalf("expected an error without a groq api key")
	}
}

func TestOpenStoreResolvesRelativeSQLitePath(t *testing.T) {
	dir := t.TempDir()

	s, err := openStore(config.StoreConfig{Driver: config.DriverSQLite, Path: "state/session.db"}, dir)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	sqliteStore, ok := s.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected a sqlite store, got %T", s)
	}
	defer sqliteStore.Close()

	if _, err := os.Stat(filepath.Join(dir, "state", "session.db")); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	memory, err := openStore(config.StoreConfig{Driver: config.DriverMemory}, dir)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if _, ok := memory.(*store.MemoryStore); !ok {
		t.Fatalf("expected a memory store, got %T", memory)
	}
}

func TestReadOptional(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "job.md"), []byte("job ad"), 0644); err != nil {
		t.Fatal(err)
	}

	if text, err := readOptional("", dir); err != nil || text != "" {
		t.Fatalf("expected empty text for no path, got %q (%v)", text, err)
	}
	if text, err := readOptional("job.md", dir); err != nil || text != "job ad" {
		t.Fatalf("expected file contents, got %q (%v)", text, err)
	}
	if _, err := readOptional("missing.md", dir); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
