package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// Files sends the batches of scene files, and optionally resends a file
// whenever it changes on disk.
type Files struct {
	log   *zap.Logger
	paths []string
	watch bool
}

func NewFiles(log *zap.Logger, paths []string, watch bool) *Files {
	return &Files{log: log, paths: paths, watch: watch}
}

// Run sends every file once. A file that fails to load at startup is an
// error; later reload failures are logged.
func (f *Files) Run(ctx context.Context, out Sink) error {
	for _, path := range f.paths {
		if err := f.send(path, out); err != nil {
			return err
		}
	}
	if !f.watch || len(f.paths) == 0 {
		return nil
	}
	return f.watchFiles(ctx, out)
}

func (f *Files) send(path string, out Sink) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}
	batches, err := doc.Decode()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, b := range batches {
		if !out.Send(b) {
			return nil
		}
	}
	f.log.Info("scene file loaded", zap.String("path", path), zap.Int("batches", len(batches)))
	return nil
}

// watchFiles watches the parent directories, since editors often replace
// files by rename.
func (f *Files) watchFiles(ctx context.Context, out Sink) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	tracked := make(map[string]struct{}, len(f.paths))
	dirs := make(map[string]struct{})
	for _, p := range f.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		tracked[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	f.log.Info("watching scene files", zap.Int("files", len(tracked)))

	dirty := make(map[string]struct{})
	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := tracked[abs]; !ok {
				continue
			}
			dirty[abs] = struct{}{}
			timer.Reset(reloadDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			for path := range dirty {
				if err := f.send(path, out); err != nil {
					f.log.Error("scene reload failed", zap.String("path", path), zap.Error(err))
				}
			}
			clear(dirty)
		}
	}
}
