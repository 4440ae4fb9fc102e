package ports

import (
	"context"

	"github.com/bft-labs/bulkload/internal/domain"
)

// RecordSource produces the ordered records for a run. The order must be
// stable across runs for resume offsets to stay meaningful.
type RecordSource interface {
	Records(ctx context.Context) ([]domain.Record, error)
}
