package keys

import "github.com/ginjaninja78/tariff-reconciler/internal/compare"

// FamilyTable maps raw service names to their service family.
//
// EXAMPLE:
//   Input: "reg 19"
//   Table: {"REG19": "REG23"}
//   Output: "REG23"
//
// Lookups ignore whitespace and case. A service missing from the table is
// its own family.
type FamilyTable struct {
	lookup map[string]string
}

// NewFamilyTable builds a table from a raw-name to family map.
func NewFamilyTable(families map[string]string) *FamilyTable {
	lookup := make(map[string]string, len(families))
	for raw, family := range families {
		lookup[compare.NormalizeString(raw)] = compare.NormalizeString(family)
	}
	return &FamilyTable{lookup: lookup}
}

// Normalize returns the family of a raw service name.
func (t *FamilyTable) Normalize(service string) string {
	s := compare.NormalizeString(service)
	if family, ok := t.lookup[s]; ok {
		return family
	}
	return s
}

// Len returns the number of known service names.
func (t *FamilyTable) Len() int {
	return len(t.lookup)
}
