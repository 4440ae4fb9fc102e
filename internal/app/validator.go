package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/bulkload/internal/ports"
)

// CountValidator returns a validator that passes when the sink holds at
// least expected documents. The sink must implement ports.Counter.
func CountValidator(expected int64) ports.Validator {
	return func(ctx context.Context, sink ports.WriteSink) (bool, error) {
		counter, ok := sink.(ports.Counter)
		if !ok {
			return false, fmt.Errorf("sink %T cannot count documents", sink)
		}
		n, err := counter.Count(ctx)
		if err != nil {
			return false, fmt.Errorf("count documents: %w", err)
		}
		return n >= expected, nil
	}
}
