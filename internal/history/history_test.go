package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

func sampleResult(mode types.Mode, total int) *report.Result {
	return &report.Result{
		Mode:    mode,
		Header:  []string{"K", "Remarks"},
		Summary: report.Summary{TotalRows: total, Matches: total},
		Details: []report.Detail{},
		Rows:    []report.Row{},
	}
}

// storeSuite exercises the Store contract.
func storeSuite(t *testing.T, store Store) {
	ctx := context.Background()

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	first := Entry{ID: "1", Timestamp: time.Unix(100, 0).UTC(), ReferenceFile: "m1.csv", GoverningFile: "i1.csv", Mode: types.ModeTariff, Result: sampleResult(types.ModeTariff, 1)}
	second := Entry{ID: "2", Timestamp: time.Unix(200, 0).UTC(), ReferenceFile: "m2.csv", GoverningFile: "i2.csv", Mode: types.ModeCost, Result: sampleResult(types.ModeCost, 2)}

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	entries, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].ID)
	assert.Equal(t, "1", entries[1].ID)
	assert.Equal(t, "m2.csv", entries[0].ReferenceFile)
	assert.Equal(t, 2, entries[0].Result.TotalRows)
	assert.True(t, second.Timestamp.Equal(entries[0].Timestamp))

	require.NoError(t, store.Clear(ctx))
	entries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	storeSuite(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	storeSuite(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "history.json")))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).List(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	storeSuite(t, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("RECON_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RECON_TEST_REDIS_ADDR not set")
	}

	store, err := DialRedis(context.Background(), addr, "", 0, "recon:test:"+t.Name())
	require.NoError(t, err)
	require.NoError(t, store.Clear(context.Background()))
	storeSuite(t, store)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		store, err := Open(context.Background(), config.HistoryConfig{
			Backend: backend,
			Path:    filepath.Join(dir, backend+".db"),
		})
		require.NoError(t, err, backend)
		require.NoError(t, store.Close())
	}

	_, err := Open(context.Background(), config.HistoryConfig{Backend: "mongo"})
	assert.Error(t, err)
}

type holder struct {
	current *report.Result
	err     error
}

func (h *holder) TryRestore(r *report.Result) error {
	if h.err != nil {
		return h.err
	}
	h.current = r
	return nil
}

func TestRecorderRecordAndList(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)

	e1, err := rec.Record(ctx, "m.csv", "i.csv", types.ModeTariff, sampleResult(types.ModeTariff, 1))
	require.NoError(t, err)
	e2, err := rec.Record(ctx, "m.csv", "i.csv", types.ModeCost, sampleResult(types.ModeCost, 2))
	require.NoError(t, err)

	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Less(t, e1.ID, e2.ID, "UUIDv7 ids sort by creation time")

	all, err := rec.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, e2.ID, all[0].ID)

	cost, err := rec.List(ctx, types.ModeCost)
	require.NoError(t, err)
	require.Len(t, cost, 1)
	assert.Equal(t, e2.ID, cost[0].ID)
}

func TestRecorderListTreatsMissingModeAsTariff(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, Entry{ID: "legacy"}))

	rec := NewRecorder(store, nil)

	tariff, err := rec.List(ctx, types.ModeTariff)
	require.NoError(t, err)
	require.Len(t, tariff, 1)
	assert.Equal(t, "legacy", tariff[0].ID)

	cost, err := rec.List(ctx, types.ModeCost)
	require.NoError(t, err)
	assert.Empty(t, cost)
}

func TestRecorderClearRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)
	_, err := rec.Record(ctx, "m.csv", "i.csv", types.ModeTariff, sampleResult(types.ModeTariff, 1))
	require.NoError(t, err)

	assert.ErrorIs(t, rec.Clear(ctx, false), types.ErrNotConfirmed)
	entries, _ := rec.List(ctx, "")
	assert.Len(t, entries, 1)

	require.NoError(t, rec.Clear(ctx, true))
	entries, _ = rec.List(ctx, "")
	assert.Empty(t, entries)
}

func TestRecorderRestore(t *testing.T) {
	ctx := context.Background()
	h := &holder{}
	rec := NewRecorder(NewMemoryStore(), h)

	result := sampleResult(types.ModeCost, 7)
	entry, err := rec.Record(ctx, "m.csv", "i.csv", types.ModeCost, result)
	require.NoError(t, err)

	restored, err := rec.Restore(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, restored.ID)
	assert.Same(t, result, h.current)

	_, err = rec.Restore(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	h.err = types.ErrBusy
	_, err = rec.Restore(ctx, entry.ID)
	assert.ErrorIs(t, err, types.ErrBusy)
}
