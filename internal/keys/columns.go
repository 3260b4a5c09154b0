// =============================================================================
// Tariff Reconciler - Key Builder & Indexer (Header Resolution)
// =============================================================================
//
// Exports from different systems spell the same column in different ways
// ("SYS_CODE", "Sys Code", "SYSCODE"). Header resolution maps the logical
// columns of a mode profile onto positions in one concrete header, once per
// file, so row access afterwards is a plain slice index.
//
// =============================================================================

package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ginjaninja78/tariff-reconciler/internal/compare"
	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/csvparser"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// Columns is a header resolved against a profile's column rules.
type Columns struct {
	header []string

	// index maps logical column names to header positions.
	index map[string]int

	// byHeader maps whitespace-free, upper-cased header names to positions.
	byHeader map[string]int
}

// Resolve maps each rule onto the first matching header column.
//
// PARAMETERS:
//   - header: The parsed header names.
//   - rules: The profile's column rules for this side.
//   - mode, side: Used in error reports.
//
// RETURNS:
//   - The resolved Columns.
//   - A *types.MissingColumnError when a required column has no match.
func Resolve(header []string, rules []config.ColumnRule, mode types.Mode, side types.Side) (*Columns, error) {
	cols := &Columns{
		header:   header,
		index:    make(map[string]int, len(rules)),
		byHeader: make(map[string]int, len(header)),
	}

	for i, h := range header {
		key := compare.NormalizeString(h)
		if _, dup := cols.byHeader[key]; !dup {
			cols.byHeader[key] = i
		}
	}

	for _, rule := range rules {
		pos, ok := findColumn(header, rule.Match)
		if !ok {
			if rule.Required {
				return nil, &types.MissingColumnError{
					Mode:     mode,
					Side:     side,
					Column:   rule.Name,
					Expected: describeMatchers(rule.Match),
					Header:   header,
				}
			}
			continue
		}
		cols.index[rule.Name] = pos
	}

	return cols, nil
}

// Has reports whether the logical column was found.
func (c *Columns) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Value returns the trimmed value of a logical column, or "" when the column
// was not found or the row is short.
func (c *Columns) Value(row csvparser.Row, name string) string {
	pos, ok := c.index[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Get(pos))
}

// Lookup returns the value of the header equal to name, ignoring whitespace
// and case.
func (c *Columns) Lookup(row csvparser.Row, name string) (string, bool) {
	pos, ok := c.byHeader[compare.NormalizeString(name)]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(row.Get(pos)), true
}

// Header returns the header the columns were resolved against.
func (c *Columns) Header() []string {
	return c.header
}

// =============================================================================
// MATCHERS
// =============================================================================

func findColumn(header []string, matchers []config.Matcher) (int, bool) {
	for _, m := range matchers {
		for i, h := range header {
			if Matches(m, h) {
				return i, true
			}
		}
	}
	return 0, false
}

// Matches applies a single matcher to a header name.
func Matches(m config.Matcher, header string) bool {
	h := strings.TrimSpace(header)
	switch m.Type {
	case config.MatchEquals:
		return strings.EqualFold(h, strings.TrimSpace(m.Value))
	case config.MatchNormalized:
		return alnumUpper(h) == alnumUpper(m.Value)
	case config.MatchPrefix:
		return strings.HasPrefix(strings.ToUpper(h), strings.ToUpper(m.Value))
	case config.MatchContains:
		return strings.Contains(strings.ToUpper(h), strings.ToUpper(m.Value))
	default:
		return false
	}
}

// alnumUpper keeps only letters and digits and upper-cases them.
func alnumUpper(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s))
}

// describeMatchers renders matchers for error messages.
func describeMatchers(matchers []config.Matcher) []string {
	out := make([]string, len(matchers))
	for i, m := range matchers {
		out[i] = fmt.Sprintf("%s (%s)", m.Value, m.Type)
	}
	return out
}
