package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsNothingForExistingDir(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.debounce != DefaultDebounceDuration {
		t.Fatalf("expected default debounce duration, got %v", w.debounce)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	var called int32
	w, err := New(dir,
		WithDebounceDuration(10*time.Millisecond),
		WithOnChange(func() { atomic.AddInt32(&called, 1) }),
		WithOnError(func(error) {}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.debounce != 10*time.Millisecond {
		t.Fatalf("expected overridden debounce duration, got %v", w.debounce)
	}
}

func TestStartTwiceReturnsErrAlreadyStarted(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted on second Start, got %v", err)
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Stop() // must not panic
}

func TestWriteTriggersDebouncedOnChange(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var fireCount int
	done := make(chan struct{}, 1)

	w, err := New(dir,
		WithDebounceDuration(20*time.Millisecond),
		WithOnChange(func() {
			mu.Lock()
			fireCount++
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("skills: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// a quick second write within the debounce window should collapse
	// into the same fire
	time.Sleep(5 * time.Millisecond)
	if err := os.WriteFile(path, []byte("skills: [a]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for onChange to fire")
	}

	// give the debounce timer a moment to settle, then confirm the burst
	// of two writes produced at least one fire.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	count := fireCount
	mu.Unlock()
	if count == 0 {
		t.Fatalf("expected at least one onChange fire")
	}
}
