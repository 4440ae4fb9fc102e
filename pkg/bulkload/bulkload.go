package bulkload

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/bulkload/internal/adapters/fs"
	logAdapter "github.com/bft-labs/bulkload/internal/adapters/log"
	"github.com/bft-labs/bulkload/internal/app"
	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// Config holds the configuration of a Loader.
type Config struct {
	// Operation names the run and its checkpoint
	Operation string

	// ChunkSize is the number of records per chunk.
	// Zero picks a size from the record count, capped at MaxChunkSize.
	ChunkSize    int
	MaxChunkSize int

	// RetryDelay is the base delay before retrying a failed chunk
	RetryDelay time.Duration

	// StateDir holds the checkpoint files of the default store
	StateDir string
}

// DefaultConfig returns a Config with default values.
// Operation must still be set.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    app.DefaultMaxChunkSize,
		MaxChunkSize: app.DefaultMaxChunkSize,
		RetryDelay:   app.DefaultRetryDelay,
		StateDir:     ".",
	}
}

// SetDefaults fills zero values that have a default.
func (c *Config) SetDefaults() {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = app.DefaultMaxChunkSize
	}
	if c.StateDir == "" {
		c.StateDir = "."
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Operation == "" {
		return fmt.Errorf("%w: operation is required", domain.ErrInvalidConfig)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Loader runs resumable chunked loads of one named operation into a sink.
type Loader struct {
	config Config
	sink   ports.WriteSink
	store  ports.CheckpointStore
	logger ports.Logger
	events app.EventHandler
}

// New creates a Loader writing to sink.
// Returns an error if the configuration is invalid or sink is nil.
func New(cfg Config, sink WriteSink, opts ...Option) (*Loader, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, domain.ErrNilSink
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logAdapter.NewNoopLogger()
	}
	store := o.store
	if store == nil {
		store = fs.NewCheckpointFileStore(cfg.StateDir)
	}

	return &Loader{
		config: cfg,
		sink:   sink,
		store:  store,
		logger: logger,
		events: o.eventHandler,
	}, nil
}

// Operation returns the operation name.
func (l *Loader) Operation() string {
	return l.config.Operation
}

// ChunkSize returns the chunk size used for total records.
func (l *Loader) ChunkSize(total int) int {
	if l.config.ChunkSize > 0 {
		return l.config.ChunkSize
	}
	return app.OptimalChunkSize(total, l.config.MaxChunkSize)
}

// Run applies records to the sink.
//
// A chunk that fails twice pauses the run with the checkpoint at its start.
// Cancelling ctx stops the run once the current chunk is checkpointed.
// Neither case is an error; inspect Statistics.Status.
func (l *Loader) Run(ctx context.Context, records []Record, opts ...RunOption) (Statistics, error) {
	engine, err := app.NewEngine(app.EngineConfig{
		OperationName: l.config.Operation,
		ChunkSize:     l.ChunkSize(len(records)),
		RetryDelay:    l.config.RetryDelay,
	}, l.sink, l.store, l.logger, l.events)
	if err != nil {
		return Statistics{}, err
	}
	return engine.ProcessBatches(ctx, records, opts...)
}

// Load reads every record from src and runs them.
func (l *Loader) Load(ctx context.Context, src RecordSource, opts ...RunOption) (Statistics, error) {
	started := time.Now()
	records, err := src.Records(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("read records: %w", err)
	}
	l.logger.Info("source read",
		ports.String("operation", l.config.Operation),
		ports.Int("records", len(records)),
		ports.Duration("took", time.Since(started)))

	return l.Run(ctx, records, opts...)
}

// Checkpoint returns the saved checkpoint, or nil if there is none.
func (l *Loader) Checkpoint(ctx context.Context) (*Checkpoint, error) {
	return l.store.Load(ctx, l.config.Operation)
}

// Reset clears the saved checkpoint so the next run starts from zero.
func (l *Loader) Reset(ctx context.Context) error {
	if err := l.store.Clear(ctx, l.config.Operation); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	l.logger.Info("checkpoint cleared", ports.String("operation", l.config.Operation))
	return nil
}

// Truncate empties the sink's target.
// Returns ErrInvalidConfig if the sink cannot be truncated.
func (l *Loader) Truncate(ctx context.Context) error {
	t, ok := l.sink.(ports.Truncater)
	if !ok {
		return fmt.Errorf("%w: sink does not support truncate", domain.ErrInvalidConfig)
	}
	if err := t.Truncate(ctx); err != nil {
		return fmt.Errorf("truncate sink: %w", err)
	}
	l.logger.Info("sink truncated", ports.String("operation", l.config.Operation))
	return nil
}
