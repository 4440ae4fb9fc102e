package fs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// CheckpointWatcher follows one operation's checkpoint file and reports each
// change. A nil checkpoint means the file was removed.
type CheckpointWatcher struct {
	store     *CheckpointFileStore
	operation string
	logger    ports.Logger
}

// NewCheckpointWatcher creates a watcher for operation's checkpoint in store.
func NewCheckpointWatcher(store *CheckpointFileStore, operation string, logger ports.Logger) *CheckpointWatcher {
	return &CheckpointWatcher{
		store:     store,
		operation: operation,
		logger:    logger,
	}
}

// Run calls onChange with the current checkpoint and again after every write
// or removal, until ctx is done.
func (w *CheckpointWatcher) Run(ctx context.Context, onChange func(*domain.Checkpoint)) error {
	path := w.store.Path(w.operation)
	dir := filepath.Dir(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file by rename.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.emit(ctx, onChange)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.emit(ctx, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("checkpoint watcher error", ports.Err(err))
		}
	}
}

func (w *CheckpointWatcher) emit(ctx context.Context, onChange func(*domain.Checkpoint)) {
	cp, err := w.store.Load(ctx, w.operation)
	if err != nil {
		// Partial writes show up between events; the next event rereads.
		w.logger.Debug("checkpoint unreadable", ports.Err(err))
		return
	}
	onChange(cp)
}
