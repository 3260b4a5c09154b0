package keys

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/csvparser"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

func open(t *testing.T, input string) *csvparser.Reader {
	t.Helper()
	rd, err := csvparser.Open(context.Background(), strings.NewReader(input), csvparser.Options{})
	require.NoError(t, err)
	return rd
}

func TestMatches(t *testing.T) {
	tests := []struct {
		matcher config.Matcher
		header  string
		want    bool
	}{
		{config.Matcher{Type: config.MatchEquals, Value: "BP"}, " bp ", true},
		{config.Matcher{Type: config.MatchEquals, Value: "BP"}, "BP NEXT", false},
		{config.Matcher{Type: config.MatchNormalized, Value: "SYSCODE"}, "Sys_Code", true},
		{config.Matcher{Type: config.MatchNormalized, Value: "SYSCODE"}, "SYS CODE 2", false},
		{config.Matcher{Type: config.MatchPrefix, Value: "Tarif REG"}, "TARIF REG 2023", true},
		{config.Matcher{Type: config.MatchPrefix, Value: "TARIF"}, "Old TARIF", false},
		{config.Matcher{Type: config.MatchContains, Value: "DEST"}, "Destinasi", true},
		{config.Matcher{Type: "regex", Value: "DEST"}, "DEST", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.matcher, tt.header), "%s %q vs %q", tt.matcher.Type, tt.matcher.Value, tt.header)
	}
}

func TestResolveMissingRequiredColumn(t *testing.T) {
	p := config.TariffProfile()
	_, err := Resolve([]string{"ORIGIN", "DEST"}, p.GoverningColumns, p.Mode, types.SideGoverning)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMissingColumn)

	var mc *types.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "key", mc.Column)
	assert.Equal(t, types.SideGoverning, mc.Side)
	assert.Equal(t, types.ModeTariff, mc.Mode)
	assert.Equal(t, []string{"SYSCODE (normalized)"}, mc.Expected)
	assert.Equal(t, `tariff mode: governing header has no key column (expected SYSCODE (normalized)) in [ORIGIN, DEST]`, err.Error())
}

func TestResolvePrefersMatcherOrder(t *testing.T) {
	rules := []config.ColumnRule{{
		Name: "tarif",
		Match: []config.Matcher{
			{Type: config.MatchPrefix, Value: "Tarif REG"},
			{Type: config.MatchPrefix, Value: "TARIF"},
		},
	}}

	cols, err := Resolve([]string{"TARIF", "TARIF REG"}, rules, types.ModeTariff, types.SideReference)
	require.NoError(t, err)

	row := csvparser.Row{Fields: []string{"1", "2"}}
	assert.Equal(t, "2", cols.Value(row, "tarif"))
	assert.Equal(t, "", cols.Value(row, "unknown"))
	assert.False(t, cols.Has("unknown"))
}

func TestColumnsLookup(t *testing.T) {
	cols, err := Resolve([]string{"DESTINASI", "BP REG23", "bp next  reg23"}, nil, types.ModeCost, types.SideReference)
	require.NoError(t, err)

	row := csvparser.Row{Fields: []string{"AMI", " 2000 ", "0"}}

	v, ok := cols.Lookup(row, "BP REG23")
	assert.True(t, ok)
	assert.Equal(t, "2000", v)

	v, ok = cols.Lookup(row, "BP NEXT REG23")
	assert.True(t, ok)
	assert.Equal(t, "0", v)

	_, ok = cols.Lookup(row, "BP OKE23")
	assert.False(t, ok)
}

func TestFamilyTable(t *testing.T) {
	table := NewFamilyTable(config.DefaultServiceFamilies())

	assert.Equal(t, "REG23", table.Normalize("ctc 19"))
	assert.Equal(t, "OKE23", table.Normalize("oke"))
	assert.Equal(t, "SPS", table.Normalize(" sps "))
	assert.Equal(t, "", table.Normalize(""))
}

func TestBuildIndexTariff(t *testing.T) {
	b := NewBuilder(config.TariffProfile())
	rd := open(t, "ORIGIN,DEST,SYS_CODE,TARIF\nA,B, ab1 ,10\nA,B,,20\nC,D,CD2,30\nA,B,AB1,40\n")

	ix, err := b.BuildIndex(rd, types.SideGoverning)
	require.NoError(t, err)

	assert.Equal(t, []string{"AB1", "CD2"}, ix.Keys())
	assert.Equal(t, 1, ix.Skipped)
	assert.Equal(t, 1, ix.Duplicates)

	e, ok := ix.Get("AB1")
	require.True(t, ok)
	assert.Equal(t, "40", ix.Columns.Value(e.Row, "tarif"))
}

func TestBuildIndexCompositeGoverning(t *testing.T) {
	b := NewBuilder(config.CostProfile())
	rd := open(t, "ORIGIN,DESTINASI,SERVICE,BP\nX,ami10000,reg19,1\nX,AMI10000,OKE,2\nX,AMI10000,CTC,3\nX,AMI10000,REG19,4\n")

	ix, err := b.BuildIndex(rd, types.SideGoverning)
	require.NoError(t, err)

	assert.Equal(t, []string{"AMI10000|REG23|X|REG19", "AMI10000|OKE23|X|OKE", "AMI10000|REG23|X|CTC"}, ix.Keys())
	assert.Equal(t, 1, ix.Duplicates)

	e, ok := ix.Get("AMI10000|REG23|X|REG19")
	require.True(t, ok)
	assert.Equal(t, "AMI10000|REG23", e.Key)
	assert.Equal(t, "AMI10000", e.Group)
	assert.Equal(t, "REG23", e.Family)
	assert.Equal(t, "4", ix.Columns.Value(e.Row, "bp"))
}

func TestBuildIndexCompositeGoverningKeepsOrigins(t *testing.T) {
	b := NewBuilder(config.CostProfile())
	rd := open(t, "ORIGIN,DESTINASI,SERVICE,BP\nMES10612,AMI10000,REG23,1999\nDJJ10000,AMI10000,REG23,2000\n")

	ix, err := b.BuildIndex(rd, types.SideGoverning)
	require.NoError(t, err)

	assert.Equal(t, 2, ix.Len())
	assert.Zero(t, ix.Duplicates)
}

func TestBuildIndexCompositeReferenceKeyedByDestination(t *testing.T) {
	b := NewBuilder(config.CostProfile())
	rd := open(t, "DESTINASI,ZONA,BP REG23\nAMI10000,A,2000\n")

	ix, err := b.BuildIndex(rd, types.SideReference)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMI10000"}, ix.Keys())
}

func TestBuildIndexCompositeRequiresService(t *testing.T) {
	b := NewBuilder(config.CostProfile())
	rd := open(t, "ORIGIN,DESTINASI,BP\nX,AMI,1\n")

	_, err := b.BuildIndex(rd, types.SideGoverning)
	assert.ErrorIs(t, err, types.ErrMissingColumn)
}

func TestBuildIndexEmptyReference(t *testing.T) {
	b := NewBuilder(config.TariffProfile())

	_, err := b.BuildIndex(open(t, ""), types.SideReference)
	assert.ErrorIs(t, err, types.ErrEmptyReference)

	_, err = b.BuildIndex(open(t, "SYS_CODE,TARIF\n,1\n"), types.SideReference)
	assert.ErrorIs(t, err, types.ErrEmptyReference)
}

func TestBuildIndexEmptyGoverningIsAllowed(t *testing.T) {
	b := NewBuilder(config.TariffProfile())

	ix, err := b.BuildIndex(open(t, "SYS_CODE,TARIF\n"), types.SideGoverning)
	require.NoError(t, err)
	assert.Zero(t, ix.Len())
}

func TestBuildIndexDuplicateReferencePolicy(t *testing.T) {
	input := "SYS_CODE,TARIF\nA,1\nA,2\n"

	p := config.TariffProfile()
	ix, err := NewBuilder(p).BuildIndex(open(t, input), types.SideReference)
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Duplicates)

	p.FailOnDuplicateReference = true
	_, err = NewBuilder(p).BuildIndex(open(t, input), types.SideReference)
	assert.ErrorIs(t, err, types.ErrDuplicateKey)
}
