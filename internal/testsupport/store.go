package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"storyforge/internal/config"
	"storyforge/internal/runs"
)

// MustOpenStore opens a runs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runs.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := runs.Open(filepath.Join(cfg.Paths.LogDir, "runs.db"))
	if err != nil {
		t.Fatalf("runs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun creates a pending run for tests using the provided store.
func NewRun(t testing.TB, store *runs.Store, topic string) *runs.Run {
	t.Helper()

	run, err := store.Create(context.Background(), topic)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return run
}
