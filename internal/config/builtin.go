package config

import "github.com/ginjaninja78/tariff-reconciler/internal/types"

// BuiltinProfiles returns fresh copies of the default profiles for every mode.
func BuiltinProfiles() map[types.Mode]*ModeProfile {
	return map[types.Mode]*ModeProfile{
		types.ModeTariff: TariffProfile(),
		types.ModeCost:   CostProfile(),
	}
}

// TariffProfile returns the built-in direct-code profile. Rows are paired by
// SYS_CODE; the reference file carries "<name> REG" columns.
func TariffProfile() *ModeProfile {
	p := &ModeProfile{
		Mode: types.ModeTariff,
		Name: "TARIF",
		ReferenceColumns: []ColumnRule{
			{Name: "key", Required: true, Match: []Matcher{{Type: MatchNormalized, Value: "SYSCODE"}}},
			{Name: "origin", Match: []Matcher{{Type: MatchPrefix, Value: "ORIGIN"}}},
			{Name: "dest", Match: []Matcher{{Type: MatchPrefix, Value: "DEST"}}},
			{Name: "service", Match: []Matcher{{Type: MatchPrefix, Value: "Service REG"}, {Type: MatchPrefix, Value: "SERVICE"}}},
			{Name: "tarif", Match: []Matcher{{Type: MatchPrefix, Value: "Tarif REG"}, {Type: MatchPrefix, Value: "TARIF"}}},
			{Name: "sla_form", Match: []Matcher{{Type: MatchPrefix, Value: "sla form"}, {Type: MatchPrefix, Value: "SLA_FORM"}}},
			{Name: "sla_thru", Match: []Matcher{{Type: MatchPrefix, Value: "sla thru"}, {Type: MatchPrefix, Value: "SLA_THRU"}}},
		},
		GoverningColumns: []ColumnRule{
			{Name: "key", Required: true, Match: []Matcher{{Type: MatchNormalized, Value: "SYSCODE"}}},
			{Name: "origin", Match: []Matcher{{Type: MatchPrefix, Value: "ORIGIN"}}},
			{Name: "dest", Match: []Matcher{{Type: MatchPrefix, Value: "DEST"}}},
			{Name: "service", Match: []Matcher{{Type: MatchPrefix, Value: "SERVICE"}}},
			{Name: "tarif", Match: []Matcher{{Type: MatchPrefix, Value: "TARIF"}}},
			{Name: "sla_form", Match: []Matcher{{Type: MatchPrefix, Value: "SLA_FORM"}}},
			{Name: "sla_thru", Match: []Matcher{{Type: MatchPrefix, Value: "SLA_THRU"}}},
		},
		Identity: []IdentityRule{
			{Label: "ORIGIN", Column: "origin"},
			{Label: "DEST", Column: "dest"},
			{Label: "SYS_CODE", Column: KeyPlaceholder},
		},
		Fields: []FieldRule{
			{Name: "Service", Kind: KindString, GoverningColumn: "service", ReferenceColumn: "service", ReferenceLabel: "Service REG", GoverningLabel: "SERVICE"},
			{Name: "Tarif", Kind: KindNumeric, GoverningColumn: "tarif", ReferenceColumn: "tarif", ReferenceLabel: "Tarif REG", GoverningLabel: "TARIF"},
			{Name: "SLA_FORM", Kind: KindNumeric, GoverningColumn: "sla_form", ReferenceColumn: "sla_form", ReferenceLabel: "sla form REG", GoverningLabel: "SLA_FORM"},
			{Name: "SLA_THRU", Kind: KindNumeric, GoverningColumn: "sla_thru", ReferenceColumn: "sla_thru", ReferenceLabel: "sla thru REG", GoverningLabel: "SLA_THRU"},
		},
	}
	ApplyProfileDefaults(p)
	return p
}

// CostProfile returns the built-in composite profile. Rows are paired by
// destination and service family; the reference file carries one
// "<PREFIX> <FAMILY>" column per field and family.
func CostProfile() *ModeProfile {
	p := &ModeProfile{
		Mode:         types.ModeCost,
		Name:         "BIAYA",
		FamilyColumn: "service",
		ReferenceColumns: []ColumnRule{
			{Name: "key", Required: true, Match: []Matcher{{Type: MatchContains, Value: "DEST"}}},
		},
		GoverningColumns: []ColumnRule{
			{Name: "key", Required: true, Match: []Matcher{{Type: MatchContains, Value: "DEST"}}},
			{Name: "service", Required: true, Match: []Matcher{{Type: MatchContains, Value: "SERVICE"}}},
			{Name: "origin", Match: []Matcher{{Type: MatchPrefix, Value: "ORIGIN"}}},
			{Name: "bp", Match: []Matcher{{Type: MatchEquals, Value: "BP"}}},
			{Name: "bp_next", Match: []Matcher{{Type: MatchNormalized, Value: "BPNEXT"}}},
			{Name: "bt", Match: []Matcher{{Type: MatchEquals, Value: "BT"}}},
			{Name: "bd", Match: []Matcher{{Type: MatchEquals, Value: "BD"}}},
			{Name: "bd_next", Match: []Matcher{{Type: MatchNormalized, Value: "BDNEXT"}}},
		},
		Identity: []IdentityRule{
			{Label: "ORIGIN", Column: "origin"},
			{Label: "DESTINASI", Column: "key"},
			{Label: "SERVICE", Column: "service"},
		},
		Fields: []FieldRule{
			{Name: "BP", GoverningColumn: "bp", ReferencePrefix: "BP", ReferenceLabel: "BP Master", GoverningLabel: "BP IT"},
			{Name: "BP NEXT", GoverningColumn: "bp_next", ReferencePrefix: "BP NEXT", ReferenceLabel: "BP Next Master", GoverningLabel: "BP Next IT"},
			{Name: "BT", GoverningColumn: "bt", ReferencePrefix: "BT", ReferenceLabel: "BT Master", GoverningLabel: "BT IT"},
			{Name: "BD", GoverningColumn: "bd", ReferencePrefix: "BD", ReferenceLabel: "BD Master", GoverningLabel: "BD IT"},
			{Name: "BD NEXT", GoverningColumn: "bd_next", ReferencePrefix: "BD NEXT", ReferenceLabel: "BD Next Master", GoverningLabel: "BD Next IT"},
		},
		ServiceFamilies: DefaultServiceFamilies(),
	}
	ApplyProfileDefaults(p)
	return p
}

// DefaultServiceFamilies maps the known service codes to their family.
func DefaultServiceFamilies() map[string]string {
	families := make(map[string]string)
	for family, services := range map[string][]string{
		"REG23": {"REG", "REG19", "REG23", "CTC", "CTC19", "CTC23"},
		"OKE23": {"OKE", "OKE19", "OKE23"},
		"YES23": {"YES", "YES19", "YES23"},
		"JTR23": {"JTR", "JTR18", "JTR23"},
	} {
		for _, s := range services {
			families[s] = family
		}
	}
	return families
}
