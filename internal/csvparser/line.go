package csvparser

import (
	"strings"
	"unicode/utf8"
)

// ParseLine splits one line into trimmed fields.
//
// A double quote toggles the in-quotes state and the delimiter only splits
// outside quotes. Each field is trimmed and loses one leading and one
// trailing quote. Doubled quotes inside a field are kept as-is. ParseLine
// never fails; malformed quoting just yields fewer fields.
func ParseLine(line string, delim rune) []string {
	fields := make([]string, 0, 16)
	inQuotes := false
	start := 0

	for i, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, cleanField(line[start:i]))
			start = i + utf8.RuneLen(delim)
		}
	}

	return append(fields, cleanField(line[start:]))
}

func cleanField(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, `"`)
	return strings.TrimSuffix(v, `"`)
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
