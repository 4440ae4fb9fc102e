package app

// DefaultMaxChunkSize is the chunk size used for large inputs and the
// default when no chunk size is configured.
const DefaultMaxChunkSize = 5000

// OptimalChunkSize picks a chunk size for total records: 100 up to 1000
// records, 1000 up to 10000, maxChunkSize above that. Small inputs are
// capped at total. The result is never below 1.
func OptimalChunkSize(total, maxChunkSize int) int {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	var size int
	switch {
	case total <= 1000:
		size = min(100, total)
	case total <= 10000:
		size = min(1000, total)
	default:
		size = maxChunkSize
	}

	if size < 1 {
		return 1
	}
	return size
}
