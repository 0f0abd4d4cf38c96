package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watch emits a signal whenever the feed file changes, debounced so editors
// and atomic writers that touch the file several times trigger one resync.
// The channel closes when ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *zap.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: replace-by-rename drops inotify
	// watches bound to the old inode.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	target := filepath.Clean(path)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !relevantEvent(event, target) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					timerC = timer.C
					continue
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)

			case <-timerC:
				timer = nil
				timerC = nil
				select {
				case out <- struct{}{}:
				default: // receiver still busy with the previous resync
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Feed watcher error", zap.Error(err))
			}
		}
	}()

	return out, nil
}

// relevantEvent reports whether a filesystem event means the feed file got
// new content. Chmod and events for sibling files are noise.
func relevantEvent(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
