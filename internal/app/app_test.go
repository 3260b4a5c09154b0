package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/engine"
	"github.com/ginjaninja78/tariff-reconciler/internal/export"
	"github.com/ginjaninja78/tariff-reconciler/internal/history"
	"github.com/ginjaninja78/tariff-reconciler/internal/metrics"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

const (
	tariffReference = "ORIGIN,DEST,SYS_CODE,Service REG,Tarif REG,sla form REG,sla thru REG\n" +
		"DJJ10000,AMI10000,K1,REG23,107000,4,5\n" +
		"DJJ10000,AMI10000,K2,REG23,100,1,2\n"
	tariffGoverning = "ORIGIN,DEST,SYS_CODE,SERVICE,TARIF,SLA_FORM,SLA_THRU\n" +
		"DJJ10000,AMI10000,K1,REG23,107000,4,5\n" +
		"DJJ10000,AMI10000,K2,REG23,200,1,2\n"
)

func newService(t *testing.T) *Service {
	t.Helper()

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.ArchiveDir = filepath.Join(t.TempDir(), "archive")

	svc := New(cfg, config.BuiltinProfiles(), history.NewMemoryStore(), metrics.New(), zerolog.Nop())
	t.Cleanup(func() { svc.Close() })
	return svc
}

func input(name, content string) engine.Input {
	return engine.Input{Name: name, Reader: strings.NewReader(content), Size: int64(len(content))}
}

func TestReconcileRecordsAndPublishes(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var progress []int
	run, err := svc.Reconcile(ctx, RunRequest{
		Mode:      types.ModeTariff,
		Reference: input("master.csv", tariffReference),
		Governing: input("it.csv", tariffGoverning),
		Progress:  func(p int) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, run.Result.TotalRows)
	assert.Equal(t, 1, run.Result.Matches)
	assert.Equal(t, 1, run.Result.Mismatches)
	assert.Equal(t, 100, progress[len(progress)-1])

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, run.Result, current)
	assert.False(t, svc.Session().Busy())

	require.NotNil(t, run.Entry)
	entries, err := svc.History().List(ctx, types.ModeTariff)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "master.csv", entries[0].ReferenceFile)
	assert.Equal(t, "it.csv", entries[0].GoverningFile)

	m := svc.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("tariff", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryEntries))
}

func TestReconcileSkipHistory(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	run, err := svc.Reconcile(ctx, RunRequest{
		Mode:        types.ModeTariff,
		Reference:   input("master.csv", tariffReference),
		Governing:   input("it.csv", tariffGoverning),
		SkipHistory: true,
	})
	require.NoError(t, err)
	assert.Nil(t, run.Entry)

	entries, err := svc.History().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconcileFailureLeavesNothing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, RunRequest{
		Mode:      types.ModeTariff,
		Reference: input("master.csv", tariffReference),
		Governing: input("it.csv", tariffGoverning),
	})
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, RunRequest{
		Mode:      types.ModeTariff,
		Reference: input("master.csv", "ORIGIN,DEST\nA,B\n"),
		Governing: input("it.csv", tariffGoverning),
	})
	require.ErrorIs(t, err, types.ErrMissingColumn)
	assert.True(t, IsInputError(err))

	_, err = svc.Current()
	assert.ErrorIs(t, err, types.ErrNotFound, "a failed run leaves no current result")
	assert.False(t, svc.Session().Busy())

	entries, err := svc.History().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a failed run is not recorded")
}

func TestReconcileUnknownMode(t *testing.T) {
	svc := newService(t)
	_, err := svc.Reconcile(context.Background(), RunRequest{Mode: "other"})
	assert.ErrorIs(t, err, types.ErrUnknownMode)
}

// blockingReader blocks its first Read until release is closed.
type blockingReader struct {
	release chan struct{}
	r       io.Reader
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.release
	return b.r.Read(p)
}

func TestReconcileRejectsConcurrentRun(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	blocked := &blockingReader{release: make(chan struct{}), r: strings.NewReader(tariffReference)}
	done := make(chan error, 1)
	go func() {
		_, err := svc.Reconcile(ctx, RunRequest{
			Mode:      types.ModeTariff,
			Reference: engine.Input{Name: "master.csv", Reader: blocked},
			Governing: input("it.csv", tariffGoverning),
		})
		done <- err
	}()

	require.Eventually(t, svc.Session().Busy, time.Second, time.Millisecond)

	_, err := svc.Reconcile(ctx, RunRequest{
		Mode:      types.ModeTariff,
		Reference: input("master.csv", tariffReference),
		Governing: input("it.csv", tariffGoverning),
	})
	assert.ErrorIs(t, err, types.ErrBusy)

	_, err = svc.Restore(ctx, "any")
	assert.ErrorIs(t, err, types.ErrBusy)

	close(blocked.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics().RunsTotal.WithLabelValues("tariff", metrics.OutcomeRejected)))
}

func TestRestore(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Reconcile(ctx, RunRequest{
		Mode:      types.ModeTariff,
		Reference: input("master.csv", tariffReference),
		Governing: input("it.csv", tariffGoverning),
	})
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, RunRequest{
		Mode:      types.ModeCost,
		Reference: input("master.csv", "DESTINASI,BP REG23\nAMI10000,2000\n"),
		Governing: input("it.csv", "DESTINASI,SERVICE,BP\nAMI10000,REG23,2000\n"),
	})
	require.NoError(t, err)

	_, err = svc.Restore(ctx, first.Entry.ID)
	require.NoError(t, err)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeTariff, current.Mode)

	_, err = svc.Restore(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, svc.Session().TryBegin())
	_, err = svc.Restore(ctx, first.Entry.ID)
	assert.ErrorIs(t, err, types.ErrBusy)
	assert.Nil(t, svc.Session().Current())
	svc.Session().End(nil)
}

func TestWriteReportAndSummary(t *testing.T) {
	svc := newService(t)

	run, err := svc.Reconcile(context.Background(), RunRequest{
		Mode:      types.ModeTariff,
		Reference: input("master.csv", tariffReference),
		Governing: input("it.csv", tariffGoverning),
	})
	require.NoError(t, err)

	path, err := svc.WriteReport(run.Result, export.FormatCSV, types.CategoryMismatch)
	require.NoError(t, err)
	assert.Equal(t, "Laporan_Validasi_TARIF_MISMATCH.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "K2")

	summary, err := svc.WriteSummary(run, []string{path})
	require.NoError(t, err)
	text, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(text), run.Entry.ID)

	_, err = svc.WriteReport(nil, export.FormatCSV, types.CategoryAll)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestReconcileFilesArchivesInputs(t *testing.T) {
	svc := newService(t)
	svc.Config().ArchiveInputs = true

	dir := t.TempDir()
	ref := filepath.Join(dir, "master.csv")
	gov := filepath.Join(dir, "it.csv")
	require.NoError(t, os.WriteFile(ref, []byte(tariffReference), 0o644))
	require.NoError(t, os.WriteFile(gov, []byte(tariffGoverning), 0o644))

	run, err := svc.ReconcileFiles(context.Background(), types.ModeTariff, ref, gov, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "master.csv", run.ReferenceName)
	require.Len(t, run.Archived, 2)
	for _, p := range run.Archived {
		assert.FileExists(t, p)
	}

	_, err = svc.ReconcileFiles(context.Background(), types.ModeTariff, filepath.Join(dir, "nope.csv"), gov, false, nil)
	assert.Error(t, err)
}
