package runs

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestCreateAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.Create(ctx, "a brave goat")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run has no identifier")
	}
	if run.Status != StatusPending {
		t.Fatalf("status = %q, want pending", run.Status)
	}
	if run.Topic != "a brave goat" {
		t.Fatalf("topic = %q", run.Topic)
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("created_at not recorded")
	}

	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.ID != run.ID {
		t.Fatalf("fetched = %+v", fetched)
	}
}

func TestGetUnknownRunReturnsNil(t *testing.T) {
	store := openTestStore(t)
	run, err := store.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run != nil {
		t.Fatalf("run = %+v, want nil", run)
	}
}

func TestCompleteRecordsArtifacts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.Create(ctx, "a brave goat")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.MarkRunning(ctx, run.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}

	run.Prompt = "a refined prompt"
	run.Title = "A Brave Goat Adventure"
	run.VideoPath = "/out/video.mp4"
	run.ThumbnailPath = "/out/thumbnail.png"
	run.MetadataPath = "/out/metadata.json"
	run.Segments = 6
	run.VideoSeconds = 42.5
	if err := store.Complete(ctx, run); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", fetched.Status)
	}
	if fetched.Title != "A Brave Goat Adventure" || fetched.Segments != 6 {
		t.Fatalf("artifacts not persisted: %+v", fetched)
	}
	if fetched.VideoSeconds != 42.5 {
		t.Fatalf("video seconds = %v, want 42.5", fetched.VideoSeconds)
	}
	if fetched.ErrorMessage != "" {
		t.Fatalf("completed run carries error %q", fetched.ErrorMessage)
	}
}

func TestFailRecordsMessage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.Create(ctx, "a brave goat")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Fail(ctx, run.ID, "speech synthesis exhausted"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", fetched.Status)
	}
	if fetched.ErrorMessage != "speech synthesis exhausted" {
		t.Fatalf("error message = %q", fetched.ErrorMessage)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, topic := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, topic); err != nil {
			t.Fatalf("Create %q failed: %v", topic, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d runs, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatal("runs not ordered newest first")
		}
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("listed %d runs, want 2", len(limited))
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	completed, err := store.Create(ctx, "done")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Complete(ctx, completed); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if _, err := store.Create(ctx, "waiting"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[StatusCompleted] != 1 || stats[StatusPending] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestLockRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyforge.lock")

	first := NewLock(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer first.Release()

	second := NewLock(path)
	if err := second.Acquire(); err == nil {
		second.Release()
		t.Fatal("second acquire should fail while the lock is held")
	}
}
