package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"shopflow/constants"
	"shopflow/internal/common"
)

// Watcher polls a source directory for new media files, defers any file
// whose size is still changing (drive-sync writes arrive in chunks), and
// groups stable files into fixed-size batches in discovery order.
type Watcher struct {
	cfg       common.WatchConfig
	sourceDir string
	logger    *slog.Logger

	firstSeen map[string]time.Time
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewWatcher(sourceDir string, cfg common.WatchConfig, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:       cfg,
		sourceDir: sourceDir,
		logger:    logger,
		firstSeen: make(map[string]time.Time),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Poll lists the source directory, runs the stability check over every
// candidate, and returns the batches that are ready to process. An
// incomplete trailing group is held for a later poll rather than processed
// short. Per-file I/O errors are logged and that file is skipped for this
// cycle.
func (w *Watcher) Poll(ctx context.Context) ([]*Batch, error) {
	candidates, err := w.listCandidates()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	stable, err := w.stableFiles(ctx, candidates)
	if err != nil {
		return nil, err
	}

	slots := w.cfg.BatchSlots
	var batches []*Batch
	for len(stable) >= slots {
		group := stable[:slots]
		stable = stable[slots:]

		b := &Batch{ID: uuid.New()}
		for i, it := range group {
			it.Slot = slotName(i, slots)
			b.Items = append(b.Items, it)
		}
		batches = append(batches, b)
	}
	if len(stable) > 0 {
		w.logger.Debug("watcher.holding_incomplete_group", "files", len(stable))
	}
	return batches, nil
}

// Forget drops discovery bookkeeping for paths that reached a terminal
// transition, so a later re-delivery counts as a fresh discovery.
func (w *Watcher) Forget(paths ...string) {
	for _, p := range paths {
		delete(w.firstSeen, p)
	}
}

func (w *Watcher) listCandidates() ([]WorkItem, error) {
	entries, err := os.ReadDir(w.sourceDir)
	if err != nil {
		return nil, common.WrapError(err, "list source directory")
	}

	present := make(map[string]struct{}, len(entries))
	var items []WorkItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(w.sourceDir, name)
		if constants.IsHidden(path) || !constants.AllowedExt(constants.NormalizeExt(filepath.Ext(name))) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			w.logger.Warn("watcher.stat_failed", "path", path, "error", err)
			continue
		}
		present[path] = struct{}{}
		if _, ok := w.firstSeen[path]; !ok {
			w.firstSeen[path] = w.now()
		}
		items = append(items, WorkItem{
			Path:         path,
			Name:         name,
			Size:         info.Size(),
			DiscoveredAt: w.firstSeen[path],
		})
	}

	// Drop bookkeeping for files that disappeared between polls.
	for p := range w.firstSeen {
		if _, ok := present[p]; !ok {
			delete(w.firstSeen, p)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].DiscoveredAt.Equal(items[j].DiscoveredAt) {
			return items[i].Name < items[j].Name
		}
		return items[i].DiscoveredAt.Before(items[j].DiscoveredAt)
	})
	return items, nil
}

// stableFiles samples every candidate's size stabilityChecks times at a
// fixed interval; a file qualifies only when no two consecutive samples
// differ. Sampling is done across the whole candidate set at once so the
// wait cost is one interval per check, not per file.
func (w *Watcher) stableFiles(ctx context.Context, candidates []WorkItem) ([]WorkItem, error) {
	unstable := make(map[string]bool)
	last := make(map[string]int64, len(candidates))
	for _, c := range candidates {
		last[c.Path] = c.Size
	}

	for check := 1; check < w.cfg.StabilityChecks; check++ {
		if err := w.sleep(ctx, w.cfg.StabilityInterval); err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if unstable[c.Path] {
				continue
			}
			info, err := os.Stat(c.Path)
			if err != nil {
				w.logger.Warn("watcher.stat_failed", "path", c.Path, "error", err)
				unstable[c.Path] = true
				continue
			}
			if info.Size() != last[c.Path] {
				w.logger.Debug("watcher.size_changing", "path", c.Path, "was", last[c.Path], "now", info.Size())
				unstable[c.Path] = true
				last[c.Path] = info.Size()
			}
		}
	}

	var stable []WorkItem
	for _, c := range candidates {
		if !unstable[c.Path] {
			stable = append(stable, c)
		}
	}
	return stable, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
