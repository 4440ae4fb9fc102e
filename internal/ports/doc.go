// Package ports defines the interfaces (ports) that connect the batch engine
// to infrastructure adapters.
//
// # Port Interfaces
//
//   - [CheckpointStore]: persists, loads and clears per-operation resume state
//   - [WriteSink]: applies a chunk of records to the document store
//   - [RecordSource]: produces the ordered input records
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// backends (JSON files, badger, MongoDB, MySQL, zerolog).
package ports
