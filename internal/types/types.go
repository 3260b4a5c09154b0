// =============================================================================
// Tariff Reconciler - Shared Types
// =============================================================================
//
// This package contains small shared types used across multiple modules to
// avoid import cycles. Types defined here are used by:
//   - config
//   - keys
//   - engine
//   - report
//   - history
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// RECONCILIATION MODE
// =============================================================================

// Mode selects how reconciliation keys are derived and which fields are compared.
type Mode string

const (
	// ModeTariff is the direct-code mode: rows are paired by SYS_CODE and the
	// report covers the union of both key sets.
	ModeTariff Mode = "tariff"

	// ModeCost is the composite mode: rows are paired by destination plus
	// service family and the report covers the governing keys only.
	ModeCost Mode = "cost"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{ModeTariff, ModeCost}

// ParseMode converts user input to a Mode. The source-domain names
// ("TARIF", "BIAYA") are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tariff", "tarif":
		return ModeTariff, nil
	case "cost", "biaya":
		return ModeCost, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Label returns the upper-case label used in file names and templates.
func (m Mode) Label() string {
	switch m {
	case ModeTariff:
		return "TARIF"
	case ModeCost:
		return "BIAYA"
	default:
		return strings.ToUpper(string(m))
	}
}

// Composite reports whether the mode pairs rows by a composite key.
func (m Mode) Composite() bool {
	return m == ModeCost
}

// =============================================================================
// DATASET SIDE
// =============================================================================

// Side identifies one of the two datasets of a run.
type Side string

const (
	// SideReference is the dataset treated as ground truth ("Master").
	SideReference Side = "reference"

	// SideGoverning is the dataset being checked ("IT data").
	SideGoverning Side = "governing"
)

// ParseSide converts user input to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reference", "master":
		return SideReference, nil
	case "governing", "it":
		return SideGoverning, nil
	default:
		return "", fmt.Errorf("unknown side %q (want reference or governing)", s)
	}
}

// =============================================================================
// VERDICTS AND REPORT CATEGORIES
// =============================================================================

// Verdict is the per-key outcome of a reconciliation.
type Verdict string

const (
	VerdictMatch              Verdict = "MATCH"
	VerdictMismatch           Verdict = "MISMATCH"
	VerdictMissingCounterpart Verdict = "MISSING_COUNTERPART"
)

// Category selects a subset of the full report.
type Category string

const (
	CategoryAll      Category = "all"
	CategoryMatch    Category = "match"
	CategoryMismatch Category = "mismatch"
	CategoryMissing  Category = "missing"
)

// ParseCategory converts user input to a Category. An empty string means all.
// "blank" is accepted for the missing category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return CategoryAll, nil
	case "match":
		return CategoryMatch, nil
	case "mismatch":
		return CategoryMismatch, nil
	case "missing", "blank":
		return CategoryMissing, nil
	default:
		return "", fmt.Errorf("unknown report filter %q", s)
	}
}

// Includes reports whether a verdict belongs to the category.
func (c Category) Includes(v Verdict) bool {
	switch c {
	case CategoryAll:
		return true
	case CategoryMatch:
		return v == VerdictMatch
	case CategoryMismatch:
		return v == VerdictMismatch
	case CategoryMissing:
		return v == VerdictMissingCounterpart
	default:
		return false
	}
}
