package domain

import "time"

// RunStatus is the terminal status of a run.
type RunStatus string

const (
	// StatusCompleted means every planned chunk was attempted and applied.
	StatusCompleted RunStatus = "completed"

	// StatusPaused means a chunk failed twice; the checkpoint points at it.
	StatusPaused RunStatus = "paused"

	// StatusInterrupted means the run was cancelled between chunks.
	StatusInterrupted RunStatus = "interrupted"
)

// BatchOutcome records what happened to one chunk.
type BatchOutcome struct {
	BatchNumber int       `json:"batch_number" yaml:"batch_number"`
	ItemsCount  int       `json:"items_count" yaml:"items_count"`
	Success     bool      `json:"success" yaml:"success"`
	Retried     bool      `json:"retried,omitempty" yaml:"retried,omitempty"`
	Rejected    int       `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// Statistics is the accumulated outcome of one run.
// Values are merged with Record and returned to callers as snapshots.
type Statistics struct {
	RunID             string         `json:"run_id" yaml:"run_id"`
	Operation         string         `json:"operation" yaml:"operation"`
	Status            RunStatus      `json:"status" yaml:"status"`
	TotalItems        int            `json:"total_items" yaml:"total_items"`
	ResumedFrom       int            `json:"resumed_from" yaml:"resumed_from"`
	ProcessedItems    int            `json:"processed_items" yaml:"processed_items"`
	RejectedItems     int            `json:"rejected_items" yaml:"rejected_items"`
	SuccessfulBatches int            `json:"successful_batches" yaml:"successful_batches"`
	FailedBatches     int            `json:"failed_batches" yaml:"failed_batches"`
	RetriedBatches    int            `json:"retried_batches" yaml:"retried_batches"`
	StartTime         time.Time      `json:"start_time" yaml:"start_time"`
	EndTime           time.Time      `json:"end_time" yaml:"end_time"`
	Batches           []BatchOutcome `json:"batches" yaml:"batches"`
}

// Record merges one chunk outcome and returns the updated statistics.
// The receiver is not modified.
func (s Statistics) Record(o BatchOutcome) Statistics {
	next := s
	next.Batches = make([]BatchOutcome, len(s.Batches), len(s.Batches)+1)
	copy(next.Batches, s.Batches)
	next.Batches = append(next.Batches, o)

	if !o.Success {
		next.FailedBatches++
		return next
	}
	next.SuccessfulBatches++
	next.ProcessedItems += o.ItemsCount
	next.RejectedItems += o.Rejected
	if o.Retried {
		next.RetriedBatches++
	}
	return next
}

// Finish stamps the end time and terminal status.
func (s Statistics) Finish(status RunStatus, at time.Time) Statistics {
	s.Status = status
	s.EndTime = at
	return s
}

// Snapshot returns a copy that shares no memory with s.
func (s Statistics) Snapshot() Statistics {
	out := s
	out.Batches = append([]BatchOutcome(nil), s.Batches...)
	return out
}

// Elapsed returns the run duration, or zero before the run ends.
func (s Statistics) Elapsed() time.Duration {
	if s.EndTime.IsZero() || s.StartTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Throughput returns processed items per second; zero when no time elapsed.
func (s Statistics) Throughput() float64 {
	secs := s.Elapsed().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.ProcessedItems) / secs
}

// Resumable reports whether a later run with the same operation name
// continues where this one stopped.
func (s Statistics) Resumable() bool {
	return s.Status == StatusPaused || s.Status == StatusInterrupted
}
