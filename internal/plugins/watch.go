package plugins

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the whole index on any change under the plugin tree.
// Reloads are best-effort and idempotent: overlapping events just run
// Load again. Returns once the watcher is installed; reloading happens
// in a background goroutine until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	addTree := func() {
		_ = fs.WalkDir(os.DirFS(r.root), ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if err := watcher.Add(filepath.Join(r.root, path)); err != nil {
				r.log.Warn("watch add failed", "path", path, "error", err)
			}
			return nil
		})
	}
	addTree()

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				r.log.Info("plugin tree changed, reloading", "path", event.Name, "op", event.Op.String())
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						addTree()
					}
				}
				if err := r.Load(); err != nil {
					r.log.Error("plugin reload failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.log.Warn("plugin watcher error", "error", err)
			}
		}
	}()

	r.log.Info("watching plugin tree", "root", r.root)
	return nil
}
