package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of filesystem events editors emit
// for a single save.
const debounceDelay = 100 * time.Millisecond

// Watch runs a script file, then re-runs it every time it changes on
// disk, delivering each outcome to onRun. Script failures are delivered,
// not returned; Watch only returns an error when the file cannot be run
// at all or the watcher cannot be set up. It blocks until ctx is
// cancelled.
func (r *Runner) Watch(ctx context.Context, path string, onRun func(*RunResult, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory rather than the file: editors that save
	// through a rename would otherwise detach the watch. The watch is
	// armed before the first run so a save during it is not lost.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	base := filepath.Base(path)

	result, err := r.RunFile(ctx, path)
	if err != nil && result == nil {
		return err
	}
	onRun(result, err)

	r.logger.Info("watching script", "path", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			debounce = time.After(debounceDelay)

		case <-debounce:
			debounce = nil
			r.logger.Debug("change detected", "path", path)
			result, err := r.RunFile(ctx, path)
			onRun(result, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)
		}
	}
}
