// =============================================================================
// Tariff Reconciler - Report Assembler
// =============================================================================
//
// This module collects per-key verdicts into a reconciliation result in a
// single pass:
//   - counters (matches, mismatches, missing counterparts)
//   - the full report, one row per key in processing order
//   - detail records for every row that is not a match
//
// A Result is immutable once Assembler.Result has returned it. Filtered views
// are computed from the stored verdicts.
//
// =============================================================================

package report

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/tariff-reconciler/internal/compare"
	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Row is one line of the full report.
type Row struct {
	// ID is the 1-based position in the full report.
	ID int `json:"id"`

	Key     string        `json:"key"`
	Verdict types.Verdict `json:"verdict"`

	// MissingSide names the absent dataset of a MISSING_COUNTERPART row.
	MissingSide types.Side `json:"missingSide,omitempty"`

	// Identity holds the identity column values.
	Identity []string `json:"identity"`

	// Fields holds the compared fields in profile order.
	Fields []compare.Field `json:"fields"`

	// Reasons names the disagreeing fields, or the missing side.
	Reasons []string `json:"reasons,omitempty"`

	Remarks string `json:"remarks"`
}

// Record flattens the row in report header order: identity columns,
// reference values, governing values, remarks.
func (r Row) Record() []string {
	record := make([]string, 0, len(r.Identity)+2*len(r.Fields)+1)
	record = append(record, r.Identity...)
	for _, f := range r.Fields {
		record = append(record, f.Reference)
	}
	for _, f := range r.Fields {
		record = append(record, f.Governing)
	}
	return append(record, r.Remarks)
}

// Detail describes a row that is not a match.
type Detail struct {
	RowID   int             `json:"rowId"`
	Key     string          `json:"key"`
	Verdict types.Verdict   `json:"verdict"`
	Reasons []string        `json:"reasons"`
	Fields  []compare.Field `json:"fields"`
}

// Summary holds the result counters.
type Summary struct {
	TotalRows  int `json:"totalRows"`
	Matches    int `json:"matches"`
	Mismatches int `json:"mismatches"`
	Missing    int `json:"missing"`
}

// IndexStats records what the indexing phase saw.
type IndexStats struct {
	ReferenceKeys       int `json:"referenceKeys"`
	GoverningKeys       int `json:"governingKeys"`
	ReferenceDuplicates int `json:"referenceDuplicates"`
	GoverningDuplicates int `json:"governingDuplicates"`
	SkippedRows         int `json:"skippedRows"`
}

// Result is a complete reconciliation outcome.
type Result struct {
	Mode types.Mode `json:"mode"`

	// Header is the report header matching Row.Record.
	Header []string `json:"header"`

	Summary
	Stats IndexStats `json:"stats"`

	Details []Detail `json:"details"`
	Rows    []Row    `json:"fullReport"`
}

// Filter returns the rows whose verdict belongs to category.
func (r *Result) Filter(category types.Category) []Row {
	if category == types.CategoryAll {
		return r.Rows
	}

	rows := make([]Row, 0)
	for _, row := range r.Rows {
		if category.Includes(row.Verdict) {
			rows = append(rows, row)
		}
	}
	return rows
}

// Check verifies that the counters agree with the rows.
func (r *Result) Check() error {
	if r.Matches+r.Mismatches+r.Missing != r.TotalRows {
		return fmt.Errorf("counters %d+%d+%d do not add up to %d rows",
			r.Matches, r.Mismatches, r.Missing, r.TotalRows)
	}
	if len(r.Rows) != r.TotalRows {
		return fmt.Errorf("report holds %d rows, expected %d", len(r.Rows), r.TotalRows)
	}
	return nil
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler builds a Result one key at a time.
type Assembler struct {
	remarks config.Remarks
	result  *Result
}

// NewAssembler creates an Assembler for a mode profile.
func NewAssembler(profile *config.ModeProfile) *Assembler {
	return &Assembler{
		remarks: profile.Remarks,
		result: &Result{
			Mode:    profile.Mode,
			Header:  profile.ReportHeader(),
			Details: make([]Detail, 0),
			Rows:    make([]Row, 0),
		},
	}
}

// Add records a key whose row exists on both sides. The verdict is MATCH
// when every field is equal and MISMATCH otherwise.
func (a *Assembler) Add(key string, identity []string, fields []compare.Field) Row {
	var reasons []string
	for _, f := range fields {
		if !f.Equal {
			reasons = append(reasons, f.Name)
		}
	}

	row := Row{Key: key, Identity: identity, Fields: fields}
	if len(reasons) == 0 {
		row.Verdict = types.VerdictMatch
		row.Remarks = a.remarks.Match
	} else {
		row.Verdict = types.VerdictMismatch
		row.Reasons = reasons
		row.Remarks = a.remarks.Mismatch + ": " + strings.Join(reasons, ", ")
	}
	return a.append(row)
}

// AddMissing records a key whose row exists on one side only.
func (a *Assembler) AddMissing(key string, identity []string, fields []compare.Field, missing types.Side) Row {
	remark := a.remarks.MissingReference
	if missing == types.SideGoverning {
		remark = a.remarks.MissingGoverning
	}

	return a.append(Row{
		Key:         key,
		Verdict:     types.VerdictMissingCounterpart,
		MissingSide: missing,
		Identity:    identity,
		Fields:      fields,
		Reasons:     []string{remark},
		Remarks:     remark,
	})
}

// SetStats stores the indexing statistics.
func (a *Assembler) SetStats(stats IndexStats) {
	a.result.Stats = stats
}

// Result returns the assembled result. The Assembler must not be used
// afterwards.
func (a *Assembler) Result() *Result {
	r := a.result
	a.result = nil
	return r
}

func (a *Assembler) append(row Row) Row {
	r := a.result
	row.ID = len(r.Rows) + 1
	r.Rows = append(r.Rows, row)
	r.TotalRows++

	switch row.Verdict {
	case types.VerdictMatch:
		r.Matches++
		return row
	case types.VerdictMismatch:
		r.Mismatches++
	case types.VerdictMissingCounterpart:
		r.Missing++
	}

	r.Details = append(r.Details, Detail{
		RowID:   row.ID,
		Key:     row.Key,
		Verdict: row.Verdict,
		Reasons: row.Reasons,
		Fields:  row.Fields,
	})
	return row
}
