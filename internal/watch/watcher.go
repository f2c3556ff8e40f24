// Package watch re-runs a validation whenever the test product
// changes on disk. Useful while iterating on processing parameters
// locally; CI runs never enable it.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/goldcheck/internal/log"
)

// DefaultDebounce batches the write bursts large product files
// generate while being staged.
const DefaultDebounce = 2 * time.Second

// Watch blocks, invoking onChange after each debounced modification of
// the watched product file, until the context is canceled.
func Watch(ctx context.Context, productPath string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the parent directory: staging tools typically replace the
	// product file, which drops inode-level watches.
	dir := filepath.Dir(productPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.Info(log.CatWatch, "watching for product changes", "dir", dir, "debounce", debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	target := filepath.Clean(productPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug(log.CatWatch, "product change detected", "event", ev.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatWatch, "watcher error", err)
		case <-timer.C:
			pending = false
			onChange()
		}
	}
}
