package labstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"labnote/internal/config"
	"labnote/internal/labnote"
)

func TestKeyedMutexHonorsContext(t *testing.T) {
	var k keyedMutex
	unlock, err := k.lock(context.Background(), "EXP-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := k.lock(ctx, "EXP-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second lock error = %v, want deadline exceeded", err)
	}

	other, err := k.lock(context.Background(), "EXP-2")
	if err != nil {
		t.Fatalf("independent key should not wait: %v", err)
	}
	other()
	unlock()

	if len(k.locks) != 0 {
		t.Fatalf("expected idle locks to be released, got %d", len(k.locks))
	}
}

func TestUpsertFailsClosedWhileWriterHeld(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.DSN = filepath.Join(base, "data", "labnote.db")
	cfg.Store.TimeoutSeconds = 1

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	unlock, err := store.writers.lock(context.Background(), "EXP-held")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	done := make(chan error, 1)
	started := time.Now()
	go func() {
		done <- store.Upsert(context.Background(), labnote.Record{ExperimentID: "EXP-held", Title: "held"})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Upsert error = %v, want deadline exceeded", err)
		}
		if elapsed := time.Since(started); elapsed > 2*time.Second {
			t.Fatalf("Upsert returned after %s, store timeout is 1s", elapsed)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Upsert still blocked on the writer lock past the store timeout")
	}
}
