package badger

import "github.com/bft-labs/bulkload/internal/ports"

// OpenMemoryBackend opens an in-memory backend for tests and dry runs.
// Caller must close the backend when done.
func OpenMemoryBackend(logger ports.Logger) (*Backend, error) {
	return OpenBackend("", true, logger)
}
