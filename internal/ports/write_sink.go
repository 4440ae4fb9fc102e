package ports

import (
	"context"

	"github.com/bft-labs/bulkload/internal/domain"
)

// WriteSink applies chunks of records to the target document store.
// Sinks are not assumed to be idempotent: re-applying a chunk after a retry
// may duplicate documents unless the store deduplicates by natural key.
type WriteSink interface {
	// Apply writes records with the given operation and reports a structured
	// outcome. Sinks report unsupported operations as a total failure
	// wrapping domain.ErrUnsupportedOperation.
	Apply(ctx context.Context, op domain.WriteOp, records []domain.Record) domain.ApplyResult
}

// Counter is implemented by sinks that can count stored documents.
// Count validators use it after a run completes.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Truncater is implemented by sinks that can empty their target before a
// fresh run.
type Truncater interface {
	Truncate(ctx context.Context) error
}

// Validator is the advisory post-run check. Its result is logged only.
type Validator func(ctx context.Context, sink WriteSink) (bool, error)
