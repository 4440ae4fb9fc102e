package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bulkload/internal/domain"
)

func TestCheckpointFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointFileStore(dir)
	ctx := context.Background()

	cp, err := store.Load(ctx, "patients")
	if err != nil {
		t.Fatalf("Load on empty dir returned error: %v", err)
	}
	if cp != nil {
		t.Fatalf("expected nil checkpoint, got %+v", cp)
	}

	want := domain.NewCheckpoint("patients", 500, 5, 10)
	require.NoError(t, store.Save(ctx, "patients", want))

	path := store.Path("patients")
	if filepath.Clean(path) != filepath.Join(dir, "batch_state_patients.json") {
		t.Fatalf("unexpected checkpoint path %s", path)
	}

	got, err := store.Load(ctx, "patients")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 500, got.LastProcessedIndex)
	assert.Equal(t, 5, got.CurrentBatch)
	assert.Equal(t, 10, got.TotalBatches)
	assert.Equal(t, "patients", got.Operation)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestCheckpointFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointFileStore(dir)

	require.NoError(t, store.Save(context.Background(), "import", domain.NewCheckpoint("import", 5, 2, 3)))

	data, err := os.ReadFile(store.Path("import"))
	require.NoError(t, err)
	for _, key := range []string{"last_processed_index", "total_batches", "current_batch", "operation", "timestamp"} {
		assert.Contains(t, string(data), `"`+key+`"`)
	}
}

func TestCheckpointFileStore_OperationsAreIsolated(t *testing.T) {
	store := NewCheckpointFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewCheckpoint("a", 1, 1, 1)))
	require.NoError(t, store.Save(ctx, "b", domain.NewCheckpoint("b", 2, 1, 1)))
	require.NoError(t, store.Clear(ctx, "a"))

	a, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, a)

	b, err := store.Load(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, 2, b.LastProcessedIndex)
}

func TestCheckpointFileStore_ClearIsIdempotent(t *testing.T) {
	store := NewCheckpointFileStore(t.TempDir())

	assert.NoError(t, store.Clear(context.Background(), "missing"))
	assert.NoError(t, store.Clear(context.Background(), "missing"))
}

func TestCheckpointFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointFileStore(dir)
	require.NoError(t, os.WriteFile(store.Path("broken"), []byte("{not json"), 0o600))

	cp, err := store.Load(context.Background(), "broken")
	assert.Error(t, err)
	assert.Nil(t, cp)
}

func TestCheckpointFileStore_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "resume.json")
	store := NewCheckpointFileStoreAt(path)

	require.NoError(t, store.Save(context.Background(), "any", domain.NewCheckpoint("any", 3, 1, 2)))
	assert.Equal(t, path, store.Path("other"))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCheckpointFileStore_SanitizesOperation(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointFileStore(dir)

	assert.Equal(t, filepath.Join(dir, "batch_state_.._etc.json"), store.Path("../etc"))
}

func TestCheckpointFileStore_ExplicitPathRejectsOtherOperation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	store := NewCheckpointFileStoreAt(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "orders", domain.NewCheckpoint("orders", 5, 1, 2)))

	cp, err := store.Load(ctx, "patients")
	assert.ErrorIs(t, err, domain.ErrCheckpointMismatch)
	assert.Nil(t, cp)

	require.NoError(t, store.Clear(ctx, "patients"))
	orders, err := store.Load(ctx, "orders")
	require.NoError(t, err)
	require.NotNil(t, orders, "clearing another operation must keep the file")
	assert.Equal(t, 5, orders.LastProcessedIndex)

	require.NoError(t, store.Clear(ctx, "orders"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
