package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/bulkload/internal/domain"
)

// CheckpointFilePrefix prefixes the per-operation checkpoint file name.
const CheckpointFilePrefix = "batch_state_"

// CheckpointFileStore implements ports.CheckpointStore with one JSON file
// per operation name.
type CheckpointFileStore struct {
	dir  string
	path string
}

// NewCheckpointFileStore creates a store writing batch_state_<operation>.json
// files under dir.
func NewCheckpointFileStore(dir string) *CheckpointFileStore {
	return &CheckpointFileStore{dir: dir}
}

// NewCheckpointFileStoreAt creates a store that keeps its checkpoint at an
// explicit path. The file holds one operation's resume point at a time;
// loading it for any other operation fails with domain.ErrCheckpointMismatch,
// and saving for another operation replaces it.
func NewCheckpointFileStoreAt(path string) *CheckpointFileStore {
	return &CheckpointFileStore{dir: filepath.Dir(path), path: path}
}

// Path returns the checkpoint file for operation.
func (s *CheckpointFileStore) Path(operation string) string {
	if s.path != "" {
		return s.path
	}
	return filepath.Join(s.dir, CheckpointFilePrefix+sanitize(operation)+".json")
}

// Load reads the checkpoint for operation.
// Returns nil and no error if no checkpoint file exists.
func (s *CheckpointFileStore) Load(ctx context.Context, operation string) (*domain.Checkpoint, error) {
	path := s.Path(operation)

	cp, err := readCheckpoint(path)
	if err != nil || cp == nil {
		return nil, err
	}
	if cp.Operation != "" && cp.Operation != operation {
		return nil, fmt.Errorf("%w: %s holds %q, not %q",
			domain.ErrCheckpointMismatch, path, cp.Operation, operation)
	}
	return cp, nil
}

func readCheckpoint(path string) (*domain.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	return &cp, nil
}

// Save persists the checkpoint atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (s *CheckpointFileStore) Save(ctx context.Context, operation string, cp domain.Checkpoint) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	path := s.Path(operation)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	return os.Rename(tmp, path)
}

// Clear removes the checkpoint for operation. Clearing a missing
// checkpoint is not an error. An explicit-path file holding another
// operation's checkpoint is left in place.
func (s *CheckpointFileStore) Clear(ctx context.Context, operation string) error {
	path := s.Path(operation)
	if s.path != "" {
		if cp, err := readCheckpoint(path); err == nil && cp != nil &&
			cp.Operation != "" && cp.Operation != operation {
			return nil
		}
	}
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// sanitize keeps operation names from escaping the state directory.
func sanitize(operation string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, operation)
}
