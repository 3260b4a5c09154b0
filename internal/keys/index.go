// =============================================================================
// Tariff Reconciler - Key Builder & Indexer
// =============================================================================
//
// This module turns a stream of rows into an ordered, keyed index.
//
// KEY RULES:
//   - tariff (direct-code): the trimmed, upper-cased SYS_CODE
//   - cost (composite): the trimmed, upper-cased destination; governing rows
//     additionally carry the service family and are keyed "DEST|FAMILY"
//
// A composite governing row is stored under its key plus the values of the
// profile's other identity columns (origin, raw service). Rows that differ in
// any reported identity value keep their own report row.
//
// INDEX RULES:
//   - Keys keep the position of their first occurrence
//   - A repeated key replaces the stored row (last write wins) and is counted
//     in Duplicates
//   - Rows whose key is empty are counted in Skipped and dropped
//
// =============================================================================

package keys

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/csvparser"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// =============================================================================
// INDEX
// =============================================================================

// Entry is one keyed row.
type Entry struct {
	// Key is the index key.
	Key string

	// Group is the destination in composite mode and the key otherwise.
	Group string

	// Family is the service family of a composite governing row.
	Family string

	// Qualifier holds the remaining identity values of a composite governing
	// row. Empty otherwise.
	Qualifier string

	Row csvparser.Row
}

// Slot returns the index position of the entry: the key, qualified by the
// identity values when there are any.
func (e Entry) Slot() string {
	if e.Qualifier == "" {
		return e.Key
	}
	return e.Key + "|" + e.Qualifier
}

// Index is an insertion-ordered map from slot to the last row seen for it.
type Index struct {
	Side    types.Side
	Columns *Columns

	// Duplicates counts rows that replaced an earlier row in the same slot.
	Duplicates int

	// Skipped counts rows without a key.
	Skipped int

	order   []string
	entries map[string]Entry
}

// NewIndex creates an empty index.
func NewIndex(side types.Side, cols *Columns) *Index {
	return &Index{
		Side:    side,
		Columns: cols,
		entries: make(map[string]Entry),
	}
}

// Put stores e under e.Slot(). It reports whether an earlier entry was
// replaced.
func (ix *Index) Put(e Entry) bool {
	slot := e.Slot()
	if _, exists := ix.entries[slot]; exists {
		ix.entries[slot] = e
		ix.Duplicates++
		return true
	}
	ix.entries[slot] = e
	ix.order = append(ix.order, slot)
	return false
}

// Get returns the entry stored under a slot. Slots equal keys except for
// composite governing rows.
func (ix *Index) Get(key string) (Entry, bool) {
	e, ok := ix.entries[key]
	return e, ok
}

// Keys returns the slots in first-insertion order. The slice must not be
// modified.
func (ix *Index) Keys() []string {
	return ix.order
}

// Len returns the number of distinct slots.
func (ix *Index) Len() int {
	return len(ix.order)
}

// =============================================================================
// BUILDER
// =============================================================================

// RowSource is the pull iterator consumed by BuildIndex. *csvparser.Reader
// implements it.
type RowSource interface {
	Header() []string
	Next() bool
	Row() csvparser.Row
	Err() error
}

// Builder derives keys for one mode profile.
type Builder struct {
	profile  *config.ModeProfile
	families *FamilyTable

	// qualifiers are the identity columns other than the key.
	qualifiers []string
}

// NewBuilder creates a Builder for profile.
func NewBuilder(profile *config.ModeProfile) *Builder {
	b := &Builder{
		profile:  profile,
		families: NewFamilyTable(profile.ServiceFamilies),
	}
	for _, id := range profile.Identity {
		if id.Column == config.KeyPlaceholder || id.Column == profile.KeyColumn {
			continue
		}
		b.qualifiers = append(b.qualifiers, id.Column)
	}
	return b
}

// Families returns the service family table of the profile.
func (b *Builder) Families() *FamilyTable {
	return b.families
}

// Resolve resolves a header against the profile's rules for side.
func (b *Builder) Resolve(header []string, side types.Side) (*Columns, error) {
	rules := b.profile.GoverningColumns
	if side == types.SideReference {
		rules = b.profile.ReferenceColumns
	}
	return Resolve(header, rules, b.profile.Mode, side)
}

// Entry derives the key of a row. The returned Key is empty when the row has
// no key.
func (b *Builder) Entry(cols *Columns, row csvparser.Row, side types.Side) Entry {
	group := NormalizeKey(cols.Value(row, b.profile.KeyColumn))
	e := Entry{Key: group, Group: group, Row: row}

	if group == "" || side != types.SideGoverning || !b.profile.Mode.Composite() {
		return e
	}

	e.Family = b.families.Normalize(cols.Value(row, b.profile.FamilyColumn))
	e.Key = CompositeKey(group, e.Family)

	if len(b.qualifiers) > 0 {
		values := make([]string, len(b.qualifiers))
		for i, c := range b.qualifiers {
			values[i] = NormalizeKey(cols.Value(row, c))
		}
		e.Qualifier = strings.Join(values, "|")
	}
	return e
}

// BuildIndex drains src into an Index.
//
// PARAMETERS:
//   - src: The rows of one dataset, header already read.
//   - side: Which dataset src holds.
//
// RETURNS:
//   - The ordered index.
//   - A *types.MissingColumnError if the header lacks a required column.
//   - types.ErrEmptyReference if the reference dataset yields no keys.
//   - types.ErrDuplicateKey if a reference key repeats and the profile
//     forbids it.
//   - Any read error from src.
func (b *Builder) BuildIndex(src RowSource, side types.Side) (*Index, error) {
	header := src.Header()
	if side == types.SideReference && len(header) == 0 {
		return nil, fmt.Errorf("%w: file is empty", types.ErrEmptyReference)
	}

	cols, err := b.Resolve(header, side)
	if err != nil {
		return nil, err
	}

	ix := NewIndex(side, cols)
	for src.Next() {
		e := b.Entry(cols, src.Row(), side)
		if e.Key == "" {
			ix.Skipped++
			continue
		}

		replaced := ix.Put(e)
		if replaced && side == types.SideReference && b.profile.FailOnDuplicateReference {
			return nil, fmt.Errorf("%w: %q at line %d", types.ErrDuplicateKey, e.Key, e.Row.Line)
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}

	if side == types.SideReference && ix.Len() == 0 {
		return nil, fmt.Errorf("%w: %d rows without key", types.ErrEmptyReference, ix.Skipped)
	}

	return ix, nil
}

// NormalizeKey trims and upper-cases a raw key value.
func NormalizeKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// CompositeKey joins a destination and a service family.
func CompositeKey(group, family string) string {
	return group + "|" + family
}
