package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

func TestLoadMainConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, BackendFile, cfg.History.Backend)
	assert.Equal(t, "./data/history.json", cfg.History.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMainConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_dir: /tmp/reports
chunk_size: 65536
log_level: debug
history:
  backend: SQLite
`), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/reports", cfg.OutputDir)
	assert.Equal(t, 65536, cfg.ChunkSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendSQLite, cfg.History.Backend)
	assert.Equal(t, "./data/history.db", cfg.History.Path)
}

func TestLoadMainConfigRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  backend: mongo\n"), 0o644))

	_, err := LoadMainConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown history backend")
}

func TestBuiltinProfilesAreValid(t *testing.T) {
	for mode, p := range BuiltinProfiles() {
		require.NoError(t, ValidateProfile(p), "mode %s", mode)
		assert.Equal(t, mode, p.Mode)
	}
}

func TestReportHeader(t *testing.T) {
	assert.Equal(t, []string{
		"ORIGIN", "DEST", "SYS_CODE",
		"Service REG", "Tarif REG", "sla form REG", "sla thru REG",
		"SERVICE", "TARIF", "SLA_FORM", "SLA_THRU",
		"Remarks",
	}, TariffProfile().ReportHeader())

	assert.Equal(t, []string{
		"ORIGIN", "DESTINASI", "SERVICE",
		"BP Master", "BP Next Master", "BT Master", "BD Master", "BD Next Master",
		"BP IT", "BP Next IT", "BT IT", "BD IT", "BD Next IT",
		"Remarks",
	}, CostProfile().ReportHeader())
}

func TestDefaultServiceFamilies(t *testing.T) {
	families := DefaultServiceFamilies()
	assert.Equal(t, "REG23", families["CTC19"])
	assert.Equal(t, "OKE23", families["OKE"])
	assert.Equal(t, "JTR23", families["JTR18"])
	assert.Len(t, families, 15)
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(`
mode: biaya
reference_columns:
  - name: key
    required: true
    match: [{type: contains, value: DEST}]
governing_columns:
  - name: key
    match: [{type: contains, value: DEST}]
  - name: service
    match: [{type: contains, value: SERVICE}]
  - name: bp
    match: [{type: equals, value: BP}]
fields:
  - name: BP
    governing_column: bp
    reference_prefix: BP
remarks:
  label: Keterangan
  match: Sesuai
`))
	require.NoError(t, err)

	assert.Equal(t, types.ModeCost, p.Mode)
	assert.Equal(t, "BIAYA", p.Name)
	assert.Equal(t, "service", p.FamilyColumn)
	assert.Equal(t, KindNumeric, p.Fields[0].Kind)
	assert.Equal(t, "Sesuai", p.Remarks.Match)
	assert.Equal(t, "Reference row missing", p.Remarks.MissingReference)
}

func TestParseProfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown mode",
			yaml:    "mode: freight\n",
			wantErr: "unknown reconciliation mode",
		},
		{
			name: "missing key column",
			yaml: `
mode: tariff
reference_columns: [{name: other, match: [{type: equals, value: X}]}]
governing_columns: [{name: key, match: [{type: equals, value: X}]}]
`,
			wantErr: "key column",
		},
		{
			name: "bad matcher",
			yaml: `
mode: tariff
reference_columns: [{name: key, match: [{type: regex, value: X}]}]
governing_columns: [{name: key, match: [{type: equals, value: X}]}]
fields: [{name: A, governing_column: key, reference_column: key}]
`,
			wantErr: "unknown matcher type",
		},
		{
			name: "no fields",
			yaml: `
mode: tariff
reference_columns: [{name: key, match: [{type: equals, value: X}]}]
governing_columns: [{name: key, match: [{type: equals, value: X}]}]
`,
			wantErr: "compares no fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProfilesOverlaysFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tariff.yaml"), []byte(`
mode: tariff
name: Custom Tariff
reference_columns: [{name: key, match: [{type: normalized, value: SYSCODE}]}, {name: t, match: [{type: prefix, value: TARIF}]}]
governing_columns: [{name: key, match: [{type: normalized, value: SYSCODE}]}, {name: t, match: [{type: prefix, value: TARIF}]}]
fields: [{name: Tarif, governing_column: t, reference_column: t}]
`), 0o644))

	profiles, err := LoadProfiles(dir)
	require.NoError(t, err)

	assert.Equal(t, "Custom Tariff", profiles[types.ModeTariff].Name)
	assert.Equal(t, "BIAYA", profiles[types.ModeCost].Name)
}

func TestLoadProfilesMissingDir(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
}
