// Package domain contains the core entities and value objects for bulkload.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (file system, databases, logging) and contains
// only the types the batch engine reasons about.
//
// # Entities
//
//   - [Chunk]: a contiguous slice [Start, End) of the input, numbered by its
//     absolute position in the full record range
//   - [Checkpoint]: the durable resume point for one named operation
//   - [Statistics]: the accumulated outcome of one run
//   - [ApplyResult]: the structured outcome of applying one chunk to a sink
//   - [WriteOp]: the closed set of write operations a sink may be asked for
//
// # Design Principles
//
// Domain values are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
