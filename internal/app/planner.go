package app

import (
	"fmt"

	"github.com/bft-labs/bulkload/internal/domain"
)

// ChunkPlan yields the chunk boundaries covering [start, total) lazily and
// in ascending order. It performs no I/O.
type ChunkPlan struct {
	total   int
	size    int
	next    int
	batches int
}

// Plan computes the chunks remaining for total records when resuming at
// start with the given chunk size. start == total yields an empty plan.
func Plan(total, start, size int) (*ChunkPlan, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidChunkSize, size)
	}
	if start < 0 || start > total {
		return nil, fmt.Errorf("%w: start %d, total %d", domain.ErrStartOutOfRange, start, total)
	}

	remaining := total - start
	return &ChunkPlan{
		total:   total,
		size:    size,
		next:    start,
		batches: (remaining + size - 1) / size,
	}, nil
}

// TotalBatches returns the number of chunks in the plan, including those
// already yielded.
func (p *ChunkPlan) TotalBatches() int {
	return p.batches
}

// Remaining returns the number of chunks not yet yielded.
func (p *ChunkPlan) Remaining() int {
	left := p.total - p.next
	return (left + p.size - 1) / p.size
}

// Next returns the next chunk, or false once the plan is exhausted.
func (p *ChunkPlan) Next() (domain.Chunk, bool) {
	if p.next >= p.total {
		return domain.Chunk{}, false
	}

	start := p.next
	end := start + p.size
	if end > p.total {
		end = p.total
	}
	p.next = end

	return domain.Chunk{
		Start:       start,
		End:         end,
		BatchNumber: start/p.size + 1,
	}, true
}

// Chunks drains the rest of the plan into a slice.
func (p *ChunkPlan) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, 0, p.Remaining())
	for {
		c, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}
