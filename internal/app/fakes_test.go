package app

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/bulkload/internal/domain"
)

// fakeSink applies records into memory. failures maps a chunk's first
// record index to how many attempts on it fail before it succeeds.
type fakeSink struct {
	mu       sync.Mutex
	applied  []domain.Record
	calls    int
	failures map[int]int
	partial  map[int]int
	panics   bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		failures: map[int]int{},
		partial:  map[int]int{},
	}
}

func (s *fakeSink) Apply(_ context.Context, op domain.WriteOp, records []domain.Record) domain.ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.panics {
		panic("sink exploded")
	}
	if op != domain.OpInsert {
		return domain.TotalFailure(domain.ErrUnsupportedOperation)
	}

	first := records[0]["i"].(int)
	if n := s.failures[first]; n > 0 {
		s.failures[first] = n - 1
		return domain.TotalFailure(errors.New("connection reset"))
	}
	if rejected, ok := s.partial[first]; ok {
		kept := len(records) - rejected
		s.applied = append(s.applied, records[:kept]...)
		return domain.PartialSuccess(kept, []string{"duplicate key"})
	}

	s.applied = append(s.applied, records...)
	return domain.FullSuccess(len(records))
}

func (s *fakeSink) indexes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.applied))
	for _, r := range s.applied {
		out = append(out, r["i"].(int))
	}
	return out
}

// memStore is an in-memory checkpoint store that records every save.
type memStore struct {
	mu      sync.Mutex
	data    map[string]domain.Checkpoint
	saves   []domain.Checkpoint
	clears  int
	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]domain.Checkpoint{}}
}

func (m *memStore) Load(_ context.Context, op string) (*domain.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	cp, ok := m.data[op]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, op string, cp domain.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, cp)
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[op] = cp
	return nil
}

func (m *memStore) Clear(_ context.Context, op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	delete(m.data, op)
	return nil
}

func (m *memStore) get(op string) (domain.Checkpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.data[op]
	return cp, ok
}

func makeRecords(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{"i": i, "name": "patient"}
	}
	return out
}

// recordingEvents captures run events.
type recordingEvents struct {
	BaseEventHandler
	states   []RunState
	outcomes []domain.BatchOutcome
}

func (r *recordingEvents) OnStateChange(_, current RunState, _ string) {
	r.states = append(r.states, current)
}

func (r *recordingEvents) OnBatch(outcome domain.BatchOutcome, _ domain.Checkpoint) {
	r.outcomes = append(r.outcomes, outcome)
}
