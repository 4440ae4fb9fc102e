package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// CheckpointStore implements ports.CheckpointStore for BadgerDB.
type CheckpointStore struct {
	backend *Backend
}

var _ ports.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(backend *Backend) *CheckpointStore {
	return &CheckpointStore{backend: backend}
}

// Save persists the checkpoint for operation.
func (s *CheckpointStore) Save(ctx context.Context, operation string, cp domain.Checkpoint) error {
	value, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCheckpointKey(operation), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Load retrieves the checkpoint for operation.
// Returns nil, nil if no checkpoint exists.
func (s *CheckpointStore) Load(ctx context.Context, operation string) (*domain.Checkpoint, error) {
	var cp *domain.Checkpoint
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCheckpointKey(operation))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var decoded domain.Checkpoint
			if err := json.Unmarshal(val, &decoded); err != nil {
				return fmt.Errorf("decode checkpoint %s: %w", operation, err)
			}
			cp = &decoded
			return nil
		})
	}, false)

	return cp, err
}

// Clear deletes the checkpoint for operation. Deleting a missing key is a
// no-op in badger.
func (s *CheckpointStore) Clear(ctx context.Context, operation string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCheckpointKey(operation)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
