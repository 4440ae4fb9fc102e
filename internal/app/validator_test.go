package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bulkload/internal/adapters/log"
)

type countingSink struct {
	*fakeSink
	count  int64
	err    error
	counts int
}

func (s *countingSink) Count(ctx context.Context) (int64, error) {
	s.counts++
	return s.count, s.err
}

func TestCountValidator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		count  int64
		expect int64
		want   bool
	}{
		{"exact", 10, 10, true},
		{"more than expected", 12, 10, true},
		{"fewer than expected", 9, 10, false},
		{"empty input", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := CountValidator(tt.expect)(ctx, &countingSink{count: tt.count})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCountValidator_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := CountValidator(1)(ctx, &countingSink{err: errors.New("timeout")})
	assert.ErrorContains(t, err, "count documents")

	_, err = CountValidator(1)(ctx, newFakeSink())
	assert.ErrorContains(t, err, "cannot count")
}

func TestProcessBatches_CountValidation(t *testing.T) {
	sink := &countingSink{fakeSink: newFakeSink(), count: 6}
	engine, err := NewEngine(EngineConfig{OperationName: "op", ChunkSize: 4}, sink, newMemStore(), log.NewNoopLogger(), nil)
	require.NoError(t, err)

	stats, err := engine.ProcessBatches(context.Background(), makeRecords(6), WithCountValidation())
	require.NoError(t, err)
	assert.Equal(t, 1, sink.counts)
	assert.Equal(t, 6, stats.ProcessedItems)
}
