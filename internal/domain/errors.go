package domain

import "errors"

// Domain errors represent error conditions in the bulkload domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrUnsupportedOperation is reported by a sink asked for a write
	// operation it does not implement.
	ErrUnsupportedOperation = errors.New("bulkload: unsupported write operation")

	// ErrInvalidChunkSize is returned when a chunk size is below 1.
	ErrInvalidChunkSize = errors.New("bulkload: chunk size must be positive")

	// ErrStartOutOfRange is returned when a resume offset lies outside [0, total].
	ErrStartOutOfRange = errors.New("bulkload: start index out of range")

	// ErrNilSink is returned when an engine is built without a write sink.
	ErrNilSink = errors.New("bulkload: write sink is required")

	// ErrCheckpointMismatch is returned when a checkpoint file holds the
	// resume point of a different operation.
	ErrCheckpointMismatch = errors.New("bulkload: checkpoint belongs to another operation")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("bulkload: invalid configuration")
)
