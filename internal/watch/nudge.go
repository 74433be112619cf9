package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"shopflow/constants"
)

// StartNudger emits a signal whenever a supported media file lands in dir,
// so the poll loop can wake early instead of waiting out its interval.
// Polling remains authoritative; nudges are best-effort and a missed one
// only delays pickup until the next tick. Rapid event bursts from synced
// folders are coalesced with debounce.
func StartNudger(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("nudger.close_failed", "error", err)
			}
		}()

		var timer *time.Timer
		fire := func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if constants.IsHidden(e.Name) || !constants.AllowedExt(constants.NormalizeExt(extOf(e.Name))) {
					continue
				}
				if debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, fire)
				} else {
					fire()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("nudger.watch_error", "error", err)
			}
		}
	}()

	return ch, nil
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
