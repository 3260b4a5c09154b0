package csvparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim rune
		want  []string
	}{
		{"simple", "a,b,c", ',', []string{"a", "b", "c"}},
		{"trims", "  a , b ,c  ", ',', []string{"a", "b", "c"}},
		{"quoted delimiter", `a,"b,c",d`, ',', []string{"a", "b,c", "d"}},
		{"semicolon", `x;"1;2";y`, ';', []string{"x", "1;2", "y"}},
		{"empty fields", "a,,", ',', []string{"a", "", ""}},
		{"single quote char", `"`, ',', []string{""}},
		{"doubled quotes kept", `"say ""hi""",x`, ',', []string{`say ""hi""`, "x"}},
		{"unterminated quote", `a,"b,c`, ',', []string{"a", "b,c"}},
		{"tab", "a\tb", '\t', []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.line, tt.delim))
		})
	}
}

func TestIsRowEmpty(t *testing.T) {
	assert.True(t, isRowEmpty([]string{"", "  ", ""}))
	assert.False(t, isRowEmpty([]string{"", "x"}))
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', DetectDelimiter("A;B;C"))
	assert.Equal(t, ',', DetectDelimiter("A,B,C"))
	assert.Equal(t, ',', DetectDelimiter("A;B,C"))
	assert.Equal(t, ';', DetectDelimiter("A;B;C,D"))
	assert.Equal(t, ',', DetectDelimiter("ABC"))
}

func TestParseDelimiter(t *testing.T) {
	d, err := ParseDelimiter("auto")
	assert.NoError(t, err)
	assert.Equal(t, rune(0), d)

	d, err = ParseDelimiter("|")
	assert.NoError(t, err)
	assert.Equal(t, '|', d)

	d, err = ParseDelimiter("tab")
	assert.NoError(t, err)
	assert.Equal(t, '\t', d)

	_, err = ParseDelimiter("||")
	assert.Error(t, err)

	_, err = ParseDelimiter(`"`)
	assert.Error(t, err)
}
