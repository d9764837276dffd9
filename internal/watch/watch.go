// Package watch follows a single markdown file on disk and reports its
// content after every write, for `inkpad serve --watch`.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler receives the file's content after a change settles.
type Handler func(content string)

// debounceWindow coalesces editor write bursts (many editors write a temp
// file and rename it over the target, producing several events per save).
const debounceWindow = 50 * time.Millisecond

// File watches path until ctx is cancelled, invoking h after each settled
// change. The parent directory is watched rather than the file itself, so
// rename-over-save editors keep working.
func File(ctx context.Context, path string, h Handler) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("watch target: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	arm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceWindow, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				arm()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		case <-fire:
			b, err := os.ReadFile(abs)
			if err != nil {
				// File may be mid-rename; the next event retries.
				continue
			}
			h(string(b))
		}
	}
}
