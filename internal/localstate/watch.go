package localstate

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchSettle batches bursts of events for one rewrite (temp file, rename).
const watchSettle = 100 * time.Millisecond

// Watch calls onChange whenever another writer replaces the file with
// different content. Rewrites by this File are ignored. It blocks until ctx
// is done.
func (f *File) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// The file is replaced by rename, so watch its directory.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	f.log.Debug("watching local state", zap.String("path", f.path))

	ticker := time.NewTicker(watchSettle)
	defer ticker.Stop()
	name := filepath.Clean(f.path)
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == name && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending = true
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watch local state", zap.Error(err))
		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			if f.changedOnDisk() {
				f.log.Debug("local state changed by another writer", zap.String("path", f.path))
				onChange()
			}
		}
	}
}

// changedOnDisk reports whether the file differs from what this File last
// read or wrote.
func (f *File) changedOnDisk() bool {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(b)
	f.mu.Lock()
	defer f.mu.Unlock()
	return sum != f.sum
}
