package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shopflow/internal/common"
)

func testConfig() common.WatchConfig {
	return common.WatchConfig{
		PollInterval:      time.Minute,
		StabilityChecks:   3,
		StabilityInterval: time.Millisecond,
		BatchSlots:        2,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fastWatcher skips real stability sleeps.
func fastWatcher(dir string, cfg common.WatchConfig) *Watcher {
	w := NewWatcher(dir, cfg, nil)
	w.sleep = func(context.Context, time.Duration) error { return nil }
	return w
}

func TestPollPairsStableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01_front.jpg", "front")
	writeFile(t, dir, "02_back.jpg", "back")

	w := fastWatcher(dir, testConfig())
	batches, err := w.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	b := batches[0]
	if len(b.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(b.Items))
	}
	if b.Items[0].Slot != SlotFront || b.Items[1].Slot != SlotBack {
		t.Errorf("slots = %q,%q, want front,back", b.Items[0].Slot, b.Items[1].Slot)
	}
	if b.Items[0].Name != "01_front.jpg" {
		t.Errorf("first slot = %q, want discovery order preserved", b.Items[0].Name)
	}
}

func TestPollHoldsIncompleteGroup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.jpg", "x")

	w := fastWatcher(dir, testConfig())
	batches, err := w.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 0 {
		t.Fatalf("a lone file must be held, got %d batches", len(batches))
	}

	// The pair completes on a later poll.
	writeFile(t, dir, "second.jpg", "y")
	batches, err = w.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1 after pair completes", len(batches))
	}
}

func TestPollSkipsGrowingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01_front.jpg", "front")
	growing := writeFile(t, dir, "02_back.jpg", "partial")

	w := NewWatcher(dir, testConfig(), nil)
	// Simulate a sync still writing: the file grows between samples.
	w.sleep = func(context.Context, time.Duration) error {
		f, err := os.OpenFile(growing, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString("more")
		return err
	}

	batches, err := w.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 0 {
		t.Fatal("a file whose size changes between samples must not be batched")
	}
}

func TestPollSkipsHiddenAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".DS_Store", "junk")
	writeFile(t, dir, "~sync.tmp.jpg", "junk")
	writeFile(t, dir, "notes.txt", "junk")
	writeFile(t, dir, "01_front.jpg", "front")
	writeFile(t, dir, "02_back.jpg", "back")

	w := fastWatcher(dir, testConfig())
	batches, err := w.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || len(batches[0].Items) != 2 {
		t.Fatalf("hidden/unsupported entries leaked into batching: %+v", batches)
	}
}

func TestPollDiscoveryOrderAcrossPolls(t *testing.T) {
	dir := t.TempDir()
	w := fastWatcher(dir, testConfig())

	// z arrives first, a second: discovery order beats name order.
	writeFile(t, dir, "z.jpg", "1")
	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.now = func() time.Time { return time.Now().Add(time.Minute) }
	writeFile(t, dir, "a.jpg", "2")

	batches, err := w.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	if batches[0].Items[0].Name != "z.jpg" {
		t.Errorf("first slot = %q, want the earlier-discovered z.jpg", batches[0].Items[0].Name)
	}
}

func TestForgetResetsDiscovery(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.jpg", "1")

	w := fastWatcher(dir, testConfig())
	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.firstSeen[path]; !ok {
		t.Fatal("file should be tracked after poll")
	}
	w.Forget(path)
	if _, ok := w.firstSeen[path]; ok {
		t.Error("Forget should drop discovery bookkeeping")
	}
}
