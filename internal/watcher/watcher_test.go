package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherTriggersRebuildOnWrite(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	w := New([]string{dir}, []string{".md"}, true, func() {
		rebuilds.Add(1)
	}, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "doc.md"), []byte("# T\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for rebuilds.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if rebuilds.Load() == 0 {
		t.Fatal("no rebuild triggered")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	w := New([]string{dir}, []string{".md"}, true, func() {
		rebuilds.Add(1)
	}, WithDebounce(200*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "burst.md")
		if err := os.WriteFile(name, []byte("content"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(600 * time.Millisecond)
	if got := rebuilds.Load(); got != 1 {
		t.Errorf("rebuilds = %d, want 1 (burst coalesced)", got)
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	w := New([]string{dir}, []string{".md"}, true, func() {
		rebuilds.Add(1)
	}, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "junk.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := rebuilds.Load(); got != 0 {
		t.Errorf("rebuilds = %d, want 0 for filtered extension", got)
	}
}

func TestWatcherRebuildsOnDirectoryRemoval(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "chapter")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "doc.md"), []byte("# T\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	var rebuilds atomic.Int32
	w := New([]string{dir}, []string{".md"}, true, func() {
		rebuilds.Add(1)
	}, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Moving the subtree out of the corpus emits Rename/Remove for the
	// directory itself, which has no extension; its sections must still be
	// invalidated by a rebuild.
	if err := os.Rename(sub, filepath.Join(t.TempDir(), "chapter")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for rebuilds.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if rebuilds.Load() == 0 {
		t.Fatal("no rebuild after directory removal")
	}
}

func TestWatcherStartMissingRoot(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, nil, true, func() {})
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing root")
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := New([]string{dir}, nil, true, func() {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
