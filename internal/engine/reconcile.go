package engine

import (
	"github.com/ginjaninja78/tariff-reconciler/internal/compare"
	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/keys"
	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// side is one optional half of a key pair.
type side struct {
	entry keys.Entry
	cols  *keys.Columns
	ok    bool
}

// Reconcile compares two indexes and assembles the result. It is a pure
// function of its inputs.
func Reconcile(profile *config.ModeProfile, reference, governing *keys.Index) *report.Result {
	asm := report.NewAssembler(profile)
	asm.SetStats(report.IndexStats{
		ReferenceKeys:       reference.Len(),
		GoverningKeys:       governing.Len(),
		ReferenceDuplicates: reference.Duplicates,
		GoverningDuplicates: governing.Duplicates,
		SkippedRows:         reference.Skipped + governing.Skipped,
	})

	for _, slot := range governing.Keys() {
		g := side{cols: governing.Columns}
		g.entry, g.ok = governing.Get(slot)
		key := g.entry.Key

		r := side{cols: reference.Columns}
		r.entry, r.ok = reference.Get(g.entry.Group)

		identity := identityValues(profile, key, g, r)
		if !r.ok {
			asm.AddMissing(key, identity, fieldValues(profile, g, r), types.SideReference)
			continue
		}
		asm.Add(key, identity, fieldValues(profile, g, r))
	}

	if profile.Mode.Composite() {
		return asm.Result()
	}

	for _, key := range reference.Keys() {
		if _, found := governing.Get(key); found {
			continue
		}

		r := side{cols: reference.Columns}
		r.entry, r.ok = reference.Get(key)
		g := side{cols: governing.Columns}

		asm.AddMissing(key, identityValues(profile, key, g, r), fieldValues(profile, g, r), types.SideGoverning)
	}

	return asm.Result()
}

// fieldValues compares every profile field. A missing side contributes
// placeholders instead of values.
func fieldValues(profile *config.ModeProfile, g, r side) []compare.Field {
	fields := make([]compare.Field, 0, len(profile.Fields))

	for _, f := range profile.Fields {
		kind := compare.Kind(f.Kind)

		govValue := compare.Placeholder(kind)
		if g.ok {
			govValue = g.cols.Value(g.entry.Row, f.GoverningColumn)
		}

		refValue := compare.Placeholder(kind)
		if r.ok {
			refValue = referenceValue(profile, f, g, r)
		}

		field := compare.Compare(f.Name, kind, govValue, refValue)
		if !g.ok || !r.ok {
			field.Equal = false
		}
		fields = append(fields, field)
	}

	return fields
}

// referenceValue reads a field from the reference row. In composite modes
// the column is "<PREFIX> <FAMILY>" and an absent column reads as zero.
func referenceValue(profile *config.ModeProfile, f config.FieldRule, g, r side) string {
	if !profile.Mode.Composite() {
		return r.cols.Value(r.entry.Row, f.ReferenceColumn)
	}

	v, ok := r.cols.Lookup(r.entry.Row, f.ReferencePrefix+" "+g.entry.Family)
	if !ok {
		return compare.MissingNumeric
	}
	return v
}

// identityValues resolves the identity columns, preferring the governing row.
func identityValues(profile *config.ModeProfile, key string, g, r side) []string {
	values := make([]string, 0, len(profile.Identity))

	for _, id := range profile.Identity {
		if id.Column == config.KeyPlaceholder {
			values = append(values, key)
			continue
		}

		var v string
		if g.ok {
			v = g.cols.Value(g.entry.Row, id.Column)
		}
		if v == "" && r.ok {
			v = r.cols.Value(r.entry.Row, id.Column)
		}
		values = append(values, v)
	}

	return values
}
