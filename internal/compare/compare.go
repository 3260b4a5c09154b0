// =============================================================================
// Tariff Reconciler - Comparison Rules
// =============================================================================
//
// This module decides whether a governing value agrees with its reference
// counterpart. Two kinds of comparison exist:
//   - numeric: every non-digit character is stripped and the remaining digits
//     are compared as an arbitrary-precision integer; an empty result is 0
//   - string: all whitespace is removed and the values are compared
//     case-insensitively
//
// Numeric normalization deliberately ignores separators, currency symbols,
// signs and decimal points: "Rp 59.000" and "59000" are equal, as are
// "1.5" and "15".
//
// =============================================================================

package compare

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Kind selects a comparison rule.
type Kind string

const (
	Numeric Kind = "numeric"
	String  Kind = "string"
)

// Placeholders written for a missing counterpart.
const (
	MissingNumeric = "0"
	MissingString  = "-"
)

// =============================================================================
// FIELD
// =============================================================================

// Field is the outcome of comparing one field of a key.
type Field struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Governing string `json:"governing"`
	Reference string `json:"reference"`
	Equal     bool   `json:"equal"`
}

// Compare builds a Field from two raw values.
func Compare(name string, kind Kind, governing, reference string) Field {
	governing = strings.TrimSpace(governing)
	reference = strings.TrimSpace(reference)

	return Field{
		Name:      name,
		Kind:      kind,
		Governing: governing,
		Reference: reference,
		Equal:     Equal(kind, governing, reference),
	}
}

// Placeholder returns the value shown for a field whose row is missing.
func Placeholder(kind Kind) string {
	if kind == String {
		return MissingString
	}
	return MissingNumeric
}

// Equal applies the rule for kind.
func Equal(kind Kind, a, b string) bool {
	if kind == String {
		return StringEqual(a, b)
	}
	return NumericEqual(a, b)
}

// =============================================================================
// NUMERIC RULE
// =============================================================================

// NumericValue strips every non-digit from s and parses the remaining digits.
// An empty result is zero.
func NumericValue(s string) decimal.Decimal {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	if digits == "" {
		return decimal.Zero
	}

	v, err := decimal.NewFromString(digits)
	if err != nil {
		// Unreachable: digits holds only ASCII digits.
		return decimal.Zero
	}
	return v
}

// NumericEqual compares a and b by their digits.
func NumericEqual(a, b string) bool {
	return NumericValue(a).Equal(NumericValue(b))
}

// =============================================================================
// STRING RULE
// =============================================================================

// NormalizeString removes all whitespace and upper-cases s.
func NormalizeString(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// StringEqual compares a and b ignoring whitespace and case.
func StringEqual(a, b string) bool {
	return NormalizeString(a) == NormalizeString(b)
}
