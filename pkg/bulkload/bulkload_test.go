package bulkload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bulkload/internal/adapters/fs"
)

// flakySink fails every chunk starting at failAt until healed.
type flakySink struct {
	failAt    int
	healed    bool
	applied   []int
	truncated bool
}

func (s *flakySink) Apply(ctx context.Context, op WriteOp, records []Record) ApplyResult {
	first := records[0]["i"].(int)
	if !s.healed && first == s.failAt {
		return TotalFailure(errors.New("connection reset"))
	}
	for _, r := range records {
		s.applied = append(s.applied, r["i"].(int))
	}
	return FullSuccess(len(records))
}

func (s *flakySink) Truncate(ctx context.Context) error {
	s.truncated = true
	s.applied = nil
	return nil
}

type sliceSource struct {
	records []Record
	err     error
}

func (s sliceSource) Records(ctx context.Context) ([]Record, error) {
	return s.records, s.err
}

func records(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"i": i}
	}
	return out
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Operation = "patients"
	cfg.ChunkSize = 5
	cfg.RetryDelay = 0
	cfg.StateDir = t.TempDir()
	return cfg
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		sink    WriteSink
		wantErr error
	}{
		{"missing operation", func(c *Config) { c.Operation = "" }, &flakySink{}, ErrInvalidConfig},
		{"negative chunk size", func(c *Config) { c.ChunkSize = -1 }, &flakySink{}, ErrInvalidChunkSize},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -1 }, &flakySink{}, ErrInvalidConfig},
		{"nil sink", func(*Config) {}, nil, ErrNilSink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			_, err := New(cfg, tt.sink)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_PauseThenResume(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	sink := &flakySink{failAt: 10}

	loader, err := New(cfg, sink)
	require.NoError(t, err)

	stats, err := loader.Run(ctx, records(20))
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, stats.Status)
	assert.Equal(t, 10, stats.ProcessedItems)
	assert.FileExists(t, filepath.Join(cfg.StateDir, "batch_state_patients.json"))

	cp, err := loader.Checkpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 10, cp.LastProcessedIndex)

	sink.healed = true
	stats, err = loader.Run(ctx, records(20))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Equal(t, 10, stats.ResumedFrom)
	assert.Len(t, sink.applied, 20)

	_, err = os.Stat(filepath.Join(cfg.StateDir, "batch_state_patients.json"))
	assert.True(t, os.IsNotExist(err), "completed run should clear the checkpoint")
}

func TestLoader_Reset(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	sink := &flakySink{failAt: 5}

	loader, err := New(cfg, sink)
	require.NoError(t, err)

	_, err = loader.Run(ctx, records(10))
	require.NoError(t, err)

	require.NoError(t, loader.Reset(ctx))
	cp, err := loader.Checkpoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestLoader_ChunkSize(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChunkSize = 0

	loader, err := New(cfg, &flakySink{failAt: -1})
	require.NoError(t, err)

	assert.Equal(t, 100, loader.ChunkSize(500))
	assert.Equal(t, 1000, loader.ChunkSize(5000))
	assert.Equal(t, 5000, loader.ChunkSize(50000))
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	sink := &flakySink{failAt: -1}

	loader, err := New(testConfig(t), sink)
	require.NoError(t, err)

	stats, err := loader.Load(ctx, sliceSource{records: records(7)})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Equal(t, 2, stats.SuccessfulBatches)

	_, err = loader.Load(ctx, sliceSource{err: errors.New("no such file")})
	assert.ErrorContains(t, err, "read records")
}

type plainSink struct{}

func (plainSink) Apply(ctx context.Context, op WriteOp, records []Record) ApplyResult {
	return FullSuccess(len(records))
}

func TestLoader_Truncate(t *testing.T) {
	ctx := context.Background()

	sink := &flakySink{failAt: -1}
	loader, err := New(testConfig(t), sink)
	require.NoError(t, err)
	require.NoError(t, loader.Truncate(ctx))
	assert.True(t, sink.truncated)

	loader, err = New(testConfig(t), plainSink{})
	require.NoError(t, err)
	assert.ErrorIs(t, loader.Truncate(ctx), ErrInvalidConfig)
}

type memStore struct {
	cp *Checkpoint
}

func (m *memStore) Load(ctx context.Context, operation string) (*Checkpoint, error) {
	return m.cp, nil
}

func (m *memStore) Save(ctx context.Context, operation string, cp Checkpoint) error {
	m.cp = &cp
	return nil
}

func (m *memStore) Clear(ctx context.Context, operation string) error {
	m.cp = nil
	return nil
}

func TestLoader_WithCheckpointStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := &memStore{}

	loader, err := New(cfg, &flakySink{failAt: 0}, WithCheckpointStore(store))
	require.NoError(t, err)

	stats, err := loader.Run(ctx, records(5))
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, stats.Status)
	require.NotNil(t, store.cp)
	assert.Equal(t, 0, store.cp.LastProcessedIndex)

	entries, err := os.ReadDir(cfg.StateDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "custom store should replace the file store")
}

func TestLoader_SharedStateFileDoesNotLeakAcrossOperations(t *testing.T) {
	ctx := context.Background()
	store := fs.NewCheckpointFileStoreAt(filepath.Join(t.TempDir(), "resume.json"))

	ordersCfg := testConfig(t)
	ordersCfg.Operation = "orders"
	orders, err := New(ordersCfg, &flakySink{failAt: 5}, WithCheckpointStore(store))
	require.NoError(t, err)
	stats, err := orders.Run(ctx, records(10))
	require.NoError(t, err)
	require.Equal(t, StatusPaused, stats.Status)

	patientsCfg := testConfig(t)
	sink := &flakySink{failAt: -1}
	patients, err := New(patientsCfg, sink, WithCheckpointStore(store))
	require.NoError(t, err)
	stats, err = patients.Run(ctx, records(10))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Equal(t, 0, stats.ResumedFrom)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sink.applied)
}

func TestLoader_WithConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	loader, err := New(testConfig(t), &flakySink{failAt: -1}, WithConsoleLogger(&buf, "warn"))
	require.NoError(t, err)

	_, err = loader.Run(context.Background(), records(5))
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "info lines are below the warn level")

	buf.Reset()
	loader, err = New(testConfig(t), &flakySink{failAt: 0}, WithConsoleLogger(&buf, "info"))
	require.NoError(t, err)

	_, err = loader.Run(context.Background(), records(5))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "batch failed after retry")
}
