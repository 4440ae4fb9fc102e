package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bulkload/internal/domain"
)

func TestPlan_Partition(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for size := 1; size <= 12; size++ {
			for start := 0; start <= total; start += 3 {
				plan, err := Plan(total, start, size)
				require.NoError(t, err)

				chunks := plan.Chunks()
				assert.Len(t, chunks, (total-start+size-1)/size)

				next := start
				for _, c := range chunks {
					assert.Equal(t, next, c.Start, "chunks must be contiguous")
					assert.Greater(t, c.End, c.Start)
					assert.LessOrEqual(t, c.Len(), size)
					assert.Equal(t, c.Start/size+1, c.BatchNumber)
					next = c.End
				}
				assert.Equal(t, total, next, "chunks must cover [start, total)")
			}
		}
	}
}

func TestPlan_TwelveByFive(t *testing.T) {
	plan, err := Plan(12, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.TotalBatches())

	chunks := plan.Chunks()
	assert.Equal(t, []domain.Chunk{
		{Start: 0, End: 5, BatchNumber: 1},
		{Start: 5, End: 10, BatchNumber: 2},
		{Start: 10, End: 12, BatchNumber: 3},
	}, chunks)
}

func TestPlan_ResumeKeepsAbsoluteBatchNumbers(t *testing.T) {
	plan, err := Plan(10, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.TotalBatches())

	c, ok := plan.Next()
	require.True(t, ok)
	assert.Equal(t, domain.Chunk{Start: 5, End: 10, BatchNumber: 2}, c)

	_, ok = plan.Next()
	assert.False(t, ok)
}

func TestPlan_Remaining(t *testing.T) {
	plan, err := Plan(12, 0, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, plan.Remaining())
	plan.Next()
	assert.Equal(t, 2, plan.Remaining())
	plan.Next()
	plan.Next()
	assert.Equal(t, 0, plan.Remaining())
	assert.Equal(t, 3, plan.TotalBatches())
}

func TestPlan_Empty(t *testing.T) {
	plan, err := Plan(0, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, plan.TotalBatches())
	assert.Empty(t, plan.Chunks())

	plan, err = Plan(10, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, plan.Chunks())
}

func TestPlan_Errors(t *testing.T) {
	_, err := Plan(10, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidChunkSize)

	_, err = Plan(10, -1, 5)
	assert.ErrorIs(t, err, domain.ErrStartOutOfRange)

	_, err = Plan(10, 11, 5)
	assert.ErrorIs(t, err, domain.ErrStartOutOfRange)
}
