package domain

import "time"

// Checkpoint is the durable resume state for one named operation.
// Every record before LastProcessedIndex has been applied or abandoned.
//
// JSON uses snake_case field names; the layout is read by other tooling and
// by the status command.
type Checkpoint struct {
	// LastProcessedIndex is the offset a resumed run starts from
	LastProcessedIndex int `json:"last_processed_index" yaml:"last_processed_index"`

	// TotalBatches is the number of chunks planned by the run that wrote this
	TotalBatches int `json:"total_batches" yaml:"total_batches"`

	// CurrentBatch is the batch number of the chunk last attempted
	CurrentBatch int `json:"current_batch" yaml:"current_batch"`

	// Operation is the operation name the checkpoint belongs to
	Operation string `json:"operation" yaml:"operation"`

	// Timestamp is the time of the last update
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewCheckpoint builds a checkpoint stamped with the current time.
func NewCheckpoint(operation string, lastIndex, currentBatch, totalBatches int) Checkpoint {
	return Checkpoint{
		LastProcessedIndex: lastIndex,
		TotalBatches:       totalBatches,
		CurrentBatch:       currentBatch,
		Operation:          operation,
		Timestamp:          time.Now(),
	}
}

// Valid reports whether the checkpoint can resume a run over total records.
func (c Checkpoint) Valid(total int) bool {
	return c.LastProcessedIndex >= 0 && c.LastProcessedIndex <= total
}
