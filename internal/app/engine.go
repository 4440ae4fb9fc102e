package app

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// EngineConfig contains configuration for the batch engine.
type EngineConfig struct {
	// OperationName namespaces the checkpoint of this engine's runs
	OperationName string

	// ChunkSize is the number of records per chunk
	ChunkSize int

	// RetryDelay is the base delay before retrying a failed chunk.
	// Zero retries immediately.
	RetryDelay time.Duration
}

// Engine applies records to a sink in fixed-size chunks, retrying each
// failed chunk once and checkpointing after every chunk.
//
// An Engine holds no locks. Only one run per operation name may be active
// at a time; concurrent runs with the same name overwrite each other's
// checkpoints.
type Engine struct {
	config EngineConfig
	sink   ports.WriteSink
	store  ports.CheckpointStore
	logger ports.Logger
	events EventHandler
	now    func() time.Time
}

// NewEngine creates a new engine with the given dependencies.
// events may be nil.
func NewEngine(
	config EngineConfig,
	sink ports.WriteSink,
	store ports.CheckpointStore,
	logger ports.Logger,
	events EventHandler,
) (*Engine, error) {
	if sink == nil {
		return nil, domain.ErrNilSink
	}
	if store == nil {
		return nil, fmt.Errorf("%w: checkpoint store is required", domain.ErrInvalidConfig)
	}
	if config.OperationName == "" {
		return nil, fmt.Errorf("%w: operation name is required", domain.ErrInvalidConfig)
	}
	if config.ChunkSize < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidChunkSize, config.ChunkSize)
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}

	return &Engine{
		config: config,
		sink:   sink,
		store:  store,
		logger: logger,
		events: events,
		now:    time.Now,
	}, nil
}

// Sink returns the sink the engine writes to.
func (e *Engine) Sink() ports.WriteSink {
	return e.sink
}

// RunOption configures a single ProcessBatches call.
type RunOption func(*runOptions)

type runOptions struct {
	resume     bool
	validator  ports.Validator
	countCheck bool
	op         domain.WriteOp
}

func defaultRunOptions() runOptions {
	return runOptions{
		resume: true,
		op:     domain.OpInsert,
	}
}

// WithResume controls whether the run starts from the saved checkpoint.
// Resuming is the default.
func WithResume(resume bool) RunOption {
	return func(o *runOptions) {
		o.resume = resume
	}
}

// WithValidator sets an advisory check invoked after a complete run.
func WithValidator(v ports.Validator) RunOption {
	return func(o *runOptions) {
		o.validator = v
	}
}

// WithCountValidation validates a complete run by comparing the sink's
// document count with the number of input records. An explicit
// WithValidator takes precedence.
func WithCountValidation() RunOption {
	return func(o *runOptions) {
		o.countCheck = true
	}
}

// WithWriteOp selects the write operation. Insert is the default.
func WithWriteOp(op domain.WriteOp) RunOption {
	return func(o *runOptions) {
		o.op = op
	}
}

// ProcessBatches applies records to the sink chunk by chunk.
//
// A chunk that fails twice pauses the run: the checkpoint is left at the
// start of that chunk and the statistics are returned with Status paused.
// Cancelling ctx stops the run after the current chunk's checkpoint write;
// the in-flight chunk itself is not cut short. Neither case is an error.
func (e *Engine) ProcessBatches(ctx context.Context, records []domain.Record, opts ...RunOption) (domain.Statistics, error) {
	ro := defaultRunOptions()
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.countCheck && ro.validator == nil {
		ro.validator = CountValidator(int64(len(records)))
	}

	// Sink and checkpoint calls must complete even after cancellation.
	work := context.WithoutCancel(ctx)

	r := &run{
		engine:    e,
		opts:      ro,
		records:   records,
		lifecycle: newRunLifecycle(e.logger, e.events),
		stats: domain.Statistics{
			RunID:      ulid.Make().String(),
			Operation:  e.config.OperationName,
			TotalItems: len(records),
			StartTime:  e.now(),
			Batches:    []domain.BatchOutcome{},
		},
	}

	start := r.resolveStart(work)
	r.stats.ResumedFrom = start

	if err := r.lifecycle.TransitionTo(StatePlanning, "resume resolved"); err != nil {
		return r.stats.Snapshot(), err
	}
	plan, err := Plan(len(records), start, e.config.ChunkSize)
	if err != nil {
		return r.stats.Snapshot(), err
	}

	e.logger.Info("batch run starting",
		ports.String("operation", e.config.OperationName),
		ports.String("run_id", r.stats.RunID),
		ports.Int("total_items", len(records)),
		ports.Int("chunk_size", e.config.ChunkSize),
		ports.Int("batches", plan.TotalBatches()),
		ports.Int("resume_from", start),
		ports.String("write_op", ro.op.String()),
	)

	for {
		chunk, ok := plan.Next()
		if !ok {
			break
		}

		if !r.processChunk(work, chunk, plan.TotalBatches()) {
			return r.finish(StatePaused, domain.StatusPaused, "chunk failed after retry")
		}

		if ctx.Err() != nil && plan.Remaining() > 0 {
			e.logger.Warn("batch run interrupted, checkpoint kept",
				ports.String("operation", e.config.OperationName),
				ports.Int("next_index", chunk.End),
			)
			return r.finish(StateInterrupted, domain.StatusInterrupted, "context canceled")
		}
	}

	if ro.validator != nil {
		if err := r.lifecycle.TransitionTo(StateValidating, "all chunks applied"); err != nil {
			return r.stats.Snapshot(), err
		}
		r.validate(work)
	}

	if err := r.lifecycle.TransitionTo(StateFinalizing, "run complete"); err != nil {
		return r.stats.Snapshot(), err
	}
	if err := e.store.Clear(work, e.config.OperationName); err != nil {
		e.logger.Warn("failed to clear checkpoint", ports.String("operation", e.config.OperationName), ports.Err(err))
	}

	return r.finish(StateDone, domain.StatusCompleted, "checkpoint cleared")
}

// Checkpoint returns the saved resume point for the engine's operation,
// or nil if there is none.
func (e *Engine) Checkpoint(ctx context.Context) (*domain.Checkpoint, error) {
	return e.store.Load(ctx, e.config.OperationName)
}

// ResetCheckpoint discards the saved resume point so the next run starts
// from the first record.
func (e *Engine) ResetCheckpoint(ctx context.Context) error {
	if err := e.store.Clear(ctx, e.config.OperationName); err != nil {
		return fmt.Errorf("clear checkpoint %s: %w", e.config.OperationName, err)
	}
	e.logger.Info("checkpoint cleared", ports.String("operation", e.config.OperationName))
	return nil
}

// run carries the state of one ProcessBatches call.
type run struct {
	engine    *Engine
	opts      runOptions
	records   []domain.Record
	lifecycle *runLifecycle
	stats     domain.Statistics
}

// resolveStart returns the index the run starts from.
// Checkpoint load failures degrade to zero.
func (r *run) resolveStart(ctx context.Context) int {
	e := r.engine
	if !r.opts.resume {
		return 0
	}

	cp, err := e.store.Load(ctx, e.config.OperationName)
	if err != nil {
		e.logger.Warn("failed to load checkpoint, starting from zero",
			ports.String("operation", e.config.OperationName),
			ports.Err(err),
		)
		return 0
	}
	if cp == nil {
		return 0
	}
	if !cp.Valid(len(r.records)) {
		e.logger.Warn("checkpoint out of range, starting from zero",
			ports.String("operation", e.config.OperationName),
			ports.Int("last_processed_index", cp.LastProcessedIndex),
			ports.Int("total_items", len(r.records)),
		)
		return 0
	}

	e.logger.Info("resuming from checkpoint",
		ports.String("operation", e.config.OperationName),
		ports.Int("last_processed_index", cp.LastProcessedIndex),
		ports.Int("current_batch", cp.CurrentBatch),
		ports.Int("total_batches", cp.TotalBatches),
	)
	return cp.LastProcessedIndex
}

// processChunk applies one chunk with a single retry, checkpoints it and
// records its outcome. Returns false if the chunk failed both attempts.
func (r *run) processChunk(ctx context.Context, chunk domain.Chunk, totalBatches int) bool {
	e := r.engine
	batch := chunk.Slice(r.records)

	_ = r.lifecycle.TransitionTo(StateChunkInFlight, fmt.Sprintf("batch %d", chunk.BatchNumber))
	result := r.apply(ctx, batch)
	retried := false

	if !result.Succeeded() {
		e.logger.Warn("batch failed, retrying",
			ports.Int("batch", chunk.BatchNumber),
			ports.Int("items", chunk.Len()),
			ports.Err(result.Cause),
		)
		_ = r.lifecycle.TransitionTo(StateChunkRetry, fmt.Sprintf("batch %d failed", chunk.BatchNumber))
		_ = waitRetry(ctx, e.config.RetryDelay)
		result = r.apply(ctx, batch)
		retried = true
	}

	_ = r.lifecycle.TransitionTo(StateCheckpointing, fmt.Sprintf("batch %d attempted", chunk.BatchNumber))

	outcome := domain.BatchOutcome{
		BatchNumber: chunk.BatchNumber,
		ItemsCount:  chunk.Len(),
		Success:     result.Succeeded(),
		Retried:     retried && result.Succeeded(),
		Rejected:    result.Rejected(chunk.Len()),
		Timestamp:   e.now(),
	}

	next := chunk.End
	if !outcome.Success {
		next = chunk.Start
	}
	cp := domain.NewCheckpoint(e.config.OperationName, next, chunk.BatchNumber, totalBatches)
	if err := e.store.Save(ctx, e.config.OperationName, cp); err != nil {
		e.logger.Warn("failed to save checkpoint",
			ports.String("operation", e.config.OperationName),
			ports.Int("last_processed_index", next),
			ports.Err(err),
		)
	}

	r.stats = r.stats.Record(outcome)
	if e.events != nil {
		e.events.OnBatch(outcome, cp)
	}

	if !outcome.Success {
		e.logger.Error("batch failed after retry, pausing run",
			ports.Int("batch", chunk.BatchNumber),
			ports.Int("total_batches", totalBatches),
			ports.Int("resume_index", chunk.Start),
			ports.Err(result.Cause),
		)
		return false
	}

	fields := []ports.Field{
		ports.Int("batch", chunk.BatchNumber),
		ports.Int("total_batches", totalBatches),
		ports.Int("items", chunk.Len()),
		ports.Bool("retried", retried),
	}
	if outcome.Rejected > 0 {
		fields = append(fields, ports.Int("rejected", outcome.Rejected))
		if len(result.Rejections) > 0 {
			fields = append(fields, ports.String("first_rejection", result.Rejections[0]))
		}
		e.logger.Warn("batch partially applied", fields...)
	} else {
		e.logger.Info("batch applied", fields...)
	}
	return true
}

// apply dispatches one attempt on the write operation. A panicking sink is
// reported as a total failure.
func (r *run) apply(ctx context.Context, batch []domain.Record) (result domain.ApplyResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = domain.TotalFailure(fmt.Errorf("sink panic: %v", rec))
		}
	}()

	if !r.opts.op.Implemented() {
		return domain.TotalFailure(fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, r.opts.op))
	}
	return r.engine.sink.Apply(ctx, r.opts.op, batch)
}

// validate runs the advisory validator. Its result never changes the run
// outcome.
func (r *run) validate(ctx context.Context) {
	e := r.engine
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("validation panicked", ports.Any("panic", rec))
		}
	}()

	ok, err := r.opts.validator(ctx, e.sink)
	switch {
	case err != nil:
		e.logger.Error("validation error", ports.Err(err))
	case ok:
		e.logger.Info("validation passed")
	default:
		e.logger.Warn("validation failed")
	}
}

// finish moves the run to a terminal state and returns its statistics.
func (r *run) finish(state RunState, status domain.RunStatus, reason string) (domain.Statistics, error) {
	e := r.engine
	r.stats = r.stats.Finish(status, e.now())
	if err := r.lifecycle.TransitionTo(state, reason); err != nil {
		return r.stats.Snapshot(), err
	}

	fields := []ports.Field{
		ports.String("operation", e.config.OperationName),
		ports.String("status", string(status)),
		ports.Int("processed_items", r.stats.ProcessedItems),
		ports.Int("successful_batches", r.stats.SuccessfulBatches),
		ports.Int("failed_batches", r.stats.FailedBatches),
		ports.Int("retried_batches", r.stats.RetriedBatches),
		ports.Duration("elapsed", r.stats.Elapsed()),
		ports.Float64("items_per_second", r.stats.Throughput()),
	}
	if r.stats.Resumable() {
		e.logger.Warn("batch run stopped; resume by re-running with the same operation name", fields...)
	} else {
		e.logger.Info("batch run complete", fields...)
	}
	return r.stats.Snapshot(), nil
}
