package domain

// Chunk is a contiguous view [Start, End) over the input records.
// It is never persisted; only its boundary reaches a Checkpoint.
type Chunk struct {
	// Start is the index of the first record in the chunk
	Start int

	// End is one past the index of the last record in the chunk
	End int

	// BatchNumber is the 1-based ordinal over the full record range,
	// Start/chunkSize + 1, independent of where a run resumed.
	BatchNumber int
}

// Len returns the number of records in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Slice returns the records covered by the chunk.
func (c Chunk) Slice(records []Record) []Record {
	return records[c.Start:c.End]
}
