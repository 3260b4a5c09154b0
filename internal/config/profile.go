// =============================================================================
// Tariff Reconciler - Mode Profiles
// =============================================================================
//
// A mode profile describes everything the engine needs to reconcile one kind
// of dataset pair:
//   - how the CSV is decoded (encoding, delimiter)
//   - how logical columns are found in each header
//   - which fields are compared and how
//   - how raw service names map to service families (cost mode)
//   - the remark texts written into reports
//
// Built-in profiles exist for both modes. A file in the profiles directory
// whose "mode" matches a built-in replaces that profile.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// =============================================================================
// PROFILE STRUCTURES
// =============================================================================

// ModeProfile holds the reconciliation rules for one mode.
type ModeProfile struct {
	// Mode is the reconciliation mode this profile configures.
	Mode types.Mode `yaml:"mode"`

	// Name is a human-readable name used in logs.
	Name string `yaml:"name"`

	// CSVSettings contains settings for decoding both input files.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// KeyColumn is the logical column holding the key (SYS_CODE in tariff
	// mode, the destination in cost mode).
	// Default: "key"
	KeyColumn string `yaml:"key_column"`

	// FamilyColumn is the governing column holding the raw service name
	// (composite modes only).
	// Default: "service"
	FamilyColumn string `yaml:"family_column,omitempty"`

	// ReferenceColumns and GoverningColumns map logical column names to
	// header matchers for each dataset.
	ReferenceColumns []ColumnRule `yaml:"reference_columns"`
	GoverningColumns []ColumnRule `yaml:"governing_columns"`

	// Identity lists the report columns that identify a row.
	Identity []IdentityRule `yaml:"identity"`

	// Fields lists the compared fields in report order.
	Fields []FieldRule `yaml:"fields"`

	// ServiceFamilies maps raw service names to their family.
	//
	// CUSTOMIZATION: Add new service codes here when the carrier introduces
	// them. Unknown services form their own family.
	ServiceFamilies map[string]string `yaml:"service_families,omitempty"`

	// Remarks contains the texts written into the remarks column.
	Remarks Remarks `yaml:"remarks"`

	// FailOnDuplicateReference aborts a run when the reference file has the
	// same key twice. When false, the last row wins and a warning is logged.
	FailOnDuplicateReference bool `yaml:"fail_on_duplicate_reference"`
}

// CSVSettings contains settings for decoding CSV files.
type CSVSettings struct {
	// Delimiter forces the field separator. Empty or "auto" detects it from
	// the header line.
	// Default: "auto"
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the CSV file.
	// Valid values: "auto", "utf-8", "windows-1252", "iso-8859-1", "utf-16"
	// Default: "auto"
	Encoding string `yaml:"encoding"`
}

// ColumnRule resolves one logical column against a header.
type ColumnRule struct {
	// Name is the logical column name referenced by fields and identity rules.
	Name string `yaml:"name"`

	// Match lists matchers tried in order. For each matcher the header is
	// scanned left to right and the first matching column wins.
	Match []Matcher `yaml:"match"`

	// Required aborts the run when no header matches.
	Required bool `yaml:"required"`
}

// Matcher is a single header test.
type Matcher struct {
	// Type is one of:
	//   - "equals"     : trimmed, case-insensitive equality
	//   - "normalized" : equality after keeping only letters and digits
	//   - "prefix"     : case-insensitive startsWith
	//   - "contains"   : case-insensitive substring
	Type string `yaml:"type"`

	Value string `yaml:"value"`
}

// Matcher types.
const (
	MatchEquals     = "equals"
	MatchNormalized = "normalized"
	MatchPrefix     = "prefix"
	MatchContains   = "contains"
)

// IdentityRule describes one identity column of the report.
type IdentityRule struct {
	// Label is the report header.
	Label string `yaml:"label"`

	// Column is the logical column whose trimmed value is written. The value
	// is taken from the governing row, falling back to the reference row.
	// The special column "@key" writes the normalized key.
	Column string `yaml:"column"`
}

// KeyPlaceholder selects the normalized key as an identity value.
const KeyPlaceholder = "@key"

// FieldRule describes one compared field.
type FieldRule struct {
	// Name is used in mismatch reasons.
	Name string `yaml:"name"`

	// Kind is "numeric" or "string".
	// Default: "numeric"
	Kind string `yaml:"kind"`

	// GoverningColumn is the logical governing column.
	GoverningColumn string `yaml:"governing_column"`

	// ReferenceColumn is the logical reference column (direct modes).
	ReferenceColumn string `yaml:"reference_column,omitempty"`

	// ReferencePrefix builds the reference header "<PREFIX> <FAMILY>"
	// (composite modes).
	ReferencePrefix string `yaml:"reference_prefix,omitempty"`

	// ReferenceLabel and GoverningLabel are the report headers.
	ReferenceLabel string `yaml:"reference_label"`
	GoverningLabel string `yaml:"governing_label"`
}

// Field kinds.
const (
	KindNumeric = "numeric"
	KindString  = "string"
)

// Remarks holds the texts written into the report's remarks column.
type Remarks struct {
	Label            string `yaml:"label"`
	Match            string `yaml:"match"`
	Mismatch         string `yaml:"mismatch"`
	MissingReference string `yaml:"missing_reference"`
	MissingGoverning string `yaml:"missing_governing"`
}

// =============================================================================
// PROFILE HELPERS
// =============================================================================

// ReportHeader returns the fixed report header: identity columns, reference
// values, governing values and the remarks column.
func (p *ModeProfile) ReportHeader() []string {
	header := make([]string, 0, len(p.Identity)+2*len(p.Fields)+1)
	for _, id := range p.Identity {
		header = append(header, id.Label)
	}
	for _, f := range p.Fields {
		header = append(header, f.ReferenceLabel)
	}
	for _, f := range p.Fields {
		header = append(header, f.GoverningLabel)
	}
	return append(header, p.Remarks.Label)
}

// =============================================================================
// PROFILE LOADING FUNCTIONS
// =============================================================================

// LoadProfiles loads the built-in profiles and overlays every profile file
// found in profilesDir.
//
// PARAMETERS:
//   - profilesDir: Directory containing *.yaml / *.yml profiles. A missing
//     directory yields the built-in profiles.
//
// RETURNS:
//   - Profiles keyed by mode.
//   - An error if any file cannot be parsed or fails validation.
func LoadProfiles(profilesDir string) (map[types.Mode]*ModeProfile, error) {
	profiles := BuiltinProfiles()

	if profilesDir == "" {
		return profiles, nil
	}

	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := LoadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		profiles[profile.Mode] = profile
	}

	return profiles, nil
}

// LoadProfile loads and validates a single profile file.
func LoadProfile(filePath string) (*ModeProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile parses, defaults and validates a YAML profile.
func ParseProfile(data []byte) (*ModeProfile, error) {
	var profile ModeProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	mode, err := types.ParseMode(string(profile.Mode))
	if err != nil {
		return nil, err
	}
	profile.Mode = mode

	ApplyProfileDefaults(&profile)

	if err := ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &profile, nil
}

// ApplyProfileDefaults sets default values for a profile.
func ApplyProfileDefaults(p *ModeProfile) {
	if p.Name == "" {
		p.Name = p.Mode.Label()
	}
	if p.CSVSettings.Delimiter == "" {
		p.CSVSettings.Delimiter = "auto"
	}
	if p.CSVSettings.Encoding == "" {
		p.CSVSettings.Encoding = "auto"
	}
	if p.KeyColumn == "" {
		p.KeyColumn = "key"
	}
	if p.Mode.Composite() && p.FamilyColumn == "" {
		p.FamilyColumn = "service"
	}
	for i := range p.Fields {
		if p.Fields[i].Kind == "" {
			p.Fields[i].Kind = KindNumeric
		}
		if p.Fields[i].ReferenceLabel == "" {
			p.Fields[i].ReferenceLabel = p.Fields[i].Name + " Reference"
		}
		if p.Fields[i].GoverningLabel == "" {
			p.Fields[i].GoverningLabel = p.Fields[i].Name + " Governing"
		}
	}

	r := &p.Remarks
	if r.Label == "" {
		r.Label = "Remarks"
	}
	if r.Match == "" {
		r.Match = "Match"
	}
	if r.Mismatch == "" {
		r.Mismatch = "Mismatch"
	}
	if r.MissingReference == "" {
		r.MissingReference = "Reference row missing"
	}
	if r.MissingGoverning == "" {
		r.MissingGoverning = "Governing row missing"
	}
}

// ValidateProfile checks that every referenced logical column is defined.
func ValidateProfile(p *ModeProfile) error {
	ref := columnNames(p.ReferenceColumns)
	gov := columnNames(p.GoverningColumns)

	if !ref[p.KeyColumn] {
		return fmt.Errorf("key column %q not defined in reference_columns", p.KeyColumn)
	}
	if !gov[p.KeyColumn] {
		return fmt.Errorf("key column %q not defined in governing_columns", p.KeyColumn)
	}
	if p.Mode.Composite() && !gov[p.FamilyColumn] {
		return fmt.Errorf("family column %q not defined in governing_columns", p.FamilyColumn)
	}

	for _, rules := range [][]ColumnRule{p.ReferenceColumns, p.GoverningColumns} {
		for _, rule := range rules {
			if len(rule.Match) == 0 {
				return fmt.Errorf("column %q has no matchers", rule.Name)
			}
			for _, m := range rule.Match {
				switch m.Type {
				case MatchEquals, MatchNormalized, MatchPrefix, MatchContains:
				default:
					return fmt.Errorf("column %q: unknown matcher type %q", rule.Name, m.Type)
				}
			}
		}
	}

	if len(p.Fields) == 0 {
		return fmt.Errorf("profile %q compares no fields", p.Name)
	}
	for _, f := range p.Fields {
		if f.Kind != KindNumeric && f.Kind != KindString {
			return fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind)
		}
		if !gov[f.GoverningColumn] {
			return fmt.Errorf("field %q: governing column %q not defined", f.Name, f.GoverningColumn)
		}
		if p.Mode.Composite() {
			if strings.TrimSpace(f.ReferencePrefix) == "" {
				return fmt.Errorf("field %q: reference_prefix is required in %s mode", f.Name, p.Mode)
			}
		} else if !ref[f.ReferenceColumn] {
			return fmt.Errorf("field %q: reference column %q not defined", f.Name, f.ReferenceColumn)
		}
	}

	for _, id := range p.Identity {
		if id.Column == KeyPlaceholder {
			continue
		}
		if !gov[id.Column] && !ref[id.Column] {
			return fmt.Errorf("identity %q: column %q not defined", id.Label, id.Column)
		}
	}

	return nil
}

func columnNames(rules []ColumnRule) map[string]bool {
	names := make(map[string]bool, len(rules))
	for _, r := range rules {
		names[r.Name] = true
	}
	return names
}
