package bulkload

import (
	"io"

	logAdapter "github.com/bft-labs/bulkload/internal/adapters/log"
	"github.com/bft-labs/bulkload/internal/app"
	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// Re-export types so embedders do not need the internal packages.
type (
	// Record is one document: field name to value.
	Record = domain.Record

	// Statistics is the outcome of one run.
	Statistics = domain.Statistics

	// BatchOutcome records what happened to one chunk.
	BatchOutcome = domain.BatchOutcome

	// Checkpoint is the persisted resume state of an operation.
	Checkpoint = domain.Checkpoint

	// WriteOp selects the write operation applied to each chunk.
	WriteOp = domain.WriteOp

	// ApplyResult is a sink's report for one chunk.
	ApplyResult = domain.ApplyResult

	// WriteSink applies chunks to the target store.
	WriteSink = ports.WriteSink

	// RecordSource produces the ordered input records.
	RecordSource = ports.RecordSource

	// CheckpointStore persists resume state.
	CheckpointStore = ports.CheckpointStore

	// Validator is the advisory post-run check.
	Validator = ports.Validator

	// Logger is the structured logging interface.
	Logger = ports.Logger

	// LogField is a structured log field.
	LogField = ports.Field

	// EventHandler receives run events.
	EventHandler = app.EventHandler

	// BaseEventHandler provides no-op EventHandler methods for embedding.
	BaseEventHandler = app.BaseEventHandler

	// RunState is the state of a run.
	RunState = app.RunState
)

// Write operations.
const (
	OpInsert = domain.OpInsert
	OpUpdate = domain.OpUpdate
	OpDelete = domain.OpDelete
)

// Run statuses.
const (
	StatusCompleted   = domain.StatusCompleted
	StatusPaused      = domain.StatusPaused
	StatusInterrupted = domain.StatusInterrupted
)

// Sentinel errors, checkable with errors.Is.
var (
	ErrUnsupportedOperation = domain.ErrUnsupportedOperation
	ErrInvalidChunkSize     = domain.ErrInvalidChunkSize
	ErrNilSink              = domain.ErrNilSink
	ErrInvalidConfig        = domain.ErrInvalidConfig
)

// FullSuccess reports n records applied.
func FullSuccess(n int) ApplyResult { return domain.FullSuccess(n) }

// PartialSuccess reports applied records and the reasons for the rest.
func PartialSuccess(applied int, reasons []string) ApplyResult {
	return domain.PartialSuccess(applied, reasons)
}

// TotalFailure reports a chunk of which nothing was applied.
func TotalFailure(cause error) ApplyResult { return domain.TotalFailure(cause) }

// Option configures optional behavior of a Loader.
type Option func(*options)

// options holds the optional configuration for a Loader.
type options struct {
	logger       ports.Logger
	store        ports.CheckpointStore
	eventHandler app.EventHandler
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConsoleLogger logs human-readable lines to w at level
// (debug, info, warn, error). An unknown level falls back to info.
func WithConsoleLogger(w io.Writer, level string) Option {
	return func(o *options) {
		o.logger = logAdapter.NewZerologAdapterTo(w, level)
	}
}

// WithCheckpointStore replaces the default JSON file checkpoint store.
func WithCheckpointStore(store CheckpointStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithEventHandler sets a handler for run events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// RunOption configures a single run.
type RunOption = app.RunOption

// WithResume controls whether a run starts from the saved checkpoint.
// Resuming is the default.
func WithResume(resume bool) RunOption { return app.WithResume(resume) }

// WithValidator sets an advisory check invoked after a complete run.
func WithValidator(v Validator) RunOption { return app.WithValidator(v) }

// WithWriteOp selects the write operation. Insert is the default.
func WithWriteOp(op WriteOp) RunOption { return app.WithWriteOp(op) }

// WithCountValidation checks a complete run by comparing the sink's document
// count with the number of input records. The sink must be able to count.
func WithCountValidation() RunOption { return app.WithCountValidation() }

// CountValidator returns a validator that passes when the sink holds at
// least expected documents.
func CountValidator(expected int64) Validator { return app.CountValidator(expected) }
