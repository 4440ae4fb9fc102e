package ports

import (
	"context"

	"github.com/bft-labs/bulkload/internal/domain"
)

// CheckpointStore persists resume state, one record per operation name.
// The engine treats every error from a store as a warning: a failed Load
// starts from zero, a failed Save only loses crash safety for that step.
type CheckpointStore interface {
	// Load returns the saved checkpoint, or nil and no error if none exists.
	// Unreadable or corrupt data is reported as an error.
	Load(ctx context.Context, operation string) (*domain.Checkpoint, error)

	// Save overwrites the checkpoint for the operation.
	// Implementations should write atomically so a crash never leaves a
	// half-written record.
	Save(ctx context.Context, operation string, cp domain.Checkpoint) error

	// Clear removes the checkpoint. Clearing a missing checkpoint is not an error.
	Clear(ctx context.Context, operation string) error
}
