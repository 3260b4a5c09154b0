package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("Laporan_Validasi_{mode}_{filter}", map[string]string{
		"mode":   "TARIF",
		"filter": "MISMATCH",
	}, ".xlsx")
	assert.Equal(t, "Laporan_Validasi_TARIF_MISMATCH.xlsx", name)

	// Extension already present.
	assert.Equal(t, "report.CSV", GenerateOutputFileName("report.CSV", nil, ".csv"))

	// No extension enforced.
	assert.Equal(t, "plain", GenerateOutputFileName("plain", nil, ""))

	stamped := GenerateOutputFileName("r_{date}_{uuid}", nil, ".json")
	assert.NotContains(t, stamped, "{")
	assert.True(t, strings.HasPrefix(stamped, "r_"+time.Now().Format("2006")))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "data.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestArchiveInputFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "master.csv")
	require.NoError(t, os.WriteFile(src, []byte("SYSCODE\nA\n"), 0o644))

	fm := NewFileManager(filepath.Join(dir, "out"), filepath.Join(dir, "archive"))
	fm.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, fm.EnsureDirectories())

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive", "2024", "01", "15", "master.csv"), archived)

	assert.True(t, FileExists(src), "source stays in place")
	info, err := os.Stat(archived)
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())

	fm.UseTimestampSubdirs = false
	archived, err = fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive", "master.csv"), archived)
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	path, err := WriteSummaryLog(RunSummary{
		StartTime:     start,
		EndTime:       start.Add(2 * time.Second),
		Mode:          "tariff",
		ReferenceFile: "master.csv",
		GoverningFile: "it.csv",
		TotalRows:     3,
		Matches:       1,
		Mismatches:    1,
		Missing:       1,
		Outputs:       []string{"out/report.csv"},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run_summary_20240115_100000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Mode:           tariff")
	assert.Contains(t, text, "Mismatches:     1")
	assert.Contains(t, text, "out/report.csv")
	assert.NotContains(t, text, "Archived Inputs")
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists(filepath.Join(t.TempDir(), "nope")))
}
