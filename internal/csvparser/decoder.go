// =============================================================================
// Tariff Reconciler - CSV Parser Module (Text Decoding)
// =============================================================================
//
// Exports from the legacy reporting systems arrive in whatever encoding the
// exporting workstation used. This file turns raw bytes into UTF-8 text:
//   - UTF-8 byte order marks are dropped at the start of the file only
//   - UTF-16 byte order marks switch the decoder to UTF-16
//   - "auto" keeps UTF-8 unless the first bytes are not valid UTF-8, in which
//     case Windows-1252 is assumed
//
// Delimiter detection also lives here since it operates on decoded text.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported encodings.
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingISO88591    = "iso-8859-1"
	EncodingUTF16       = "utf-16"
)

// sniffSize is how many leading bytes are inspected for a BOM and for UTF-8
// validity.
const sniffSize = 64 * 1024

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// =============================================================================
// DECODING
// =============================================================================

// NewDecoder wraps r so that reads return UTF-8 text.
//
// PARAMETERS:
//   - r: The raw byte source.
//   - encoding: One of the Encoding* constants (case-insensitive). Empty
//     means auto.
//
// RETURNS:
//   - A reader producing UTF-8 without a leading byte order mark.
//   - The encoding that was selected.
//   - An error if the encoding is unknown or the source cannot be read.
func NewDecoder(r io.Reader, encoding string) (io.Reader, string, error) {
	enc := normalizeEncoding(encoding)
	if enc == "" {
		return nil, "", fmt.Errorf("unsupported encoding %q", encoding)
	}

	br := bufio.NewReaderSize(r, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("failed to read input: %w", err)
	}
	complete := len(head) < sniffSize

	if bytes.HasPrefix(head, bomUTF16LE) || bytes.HasPrefix(head, bomUTF16BE) {
		if enc == EncodingAuto || enc == EncodingUTF16 {
			dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
			return transform.NewReader(br, dec), EncodingUTF16, nil
		}
	}

	// A UTF-8 byte order mark overrides the configured encoding.
	if bytes.HasPrefix(head, bomUTF8) {
		if _, err := br.Discard(len(bomUTF8)); err != nil {
			return nil, "", fmt.Errorf("failed to skip byte order mark: %w", err)
		}
		return br, EncodingUTF8, nil
	}

	switch enc {
	case EncodingUTF16:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec), EncodingUTF16, nil
	case EncodingWindows1252:
		return transform.NewReader(br, charmap.Windows1252.NewDecoder()), enc, nil
	case EncodingISO88591:
		return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), enc, nil
	}

	if enc == EncodingAuto && !validUTF8Prefix(head, complete) {
		return transform.NewReader(br, charmap.Windows1252.NewDecoder()), EncodingWindows1252, nil
	}

	return br, EncodingUTF8, nil
}

// normalizeEncoding maps accepted spellings to an Encoding* constant.
// An unknown name yields "".
func normalizeEncoding(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingAuto:
		return EncodingAuto
	case EncodingUTF8, "utf8":
		return EncodingUTF8
	case EncodingWindows1252, "cp1252", "windows1252":
		return EncodingWindows1252
	case EncodingISO88591, "latin1", "latin-1", "iso8859-1":
		return EncodingISO88591
	case EncodingUTF16, "utf16", "utf-16le":
		return EncodingUTF16
	default:
		return ""
	}
}

// validUTF8Prefix reports whether b is valid UTF-8. When b is only the start
// of a longer stream a rune cut off at the end is tolerated.
func validUTF8Prefix(b []byte, complete bool) bool {
	if !complete {
		for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
			if utf8.RuneStart(b[len(b)-i]) {
				if !utf8.FullRune(b[len(b)-i:]) {
					b = b[:len(b)-i]
				}
				break
			}
		}
	}
	return utf8.Valid(b)
}

// =============================================================================
// DELIMITER DETECTION
// =============================================================================

// DetectDelimiter picks the field separator from a header line: ';' when the
// line holds more semicolons than commas, ',' otherwise.
func DetectDelimiter(header string) rune {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

// ParseDelimiter converts a configured delimiter to a rune. It returns 0 for
// "" and "auto", meaning the delimiter is detected from the header.
func ParseDelimiter(setting string) (rune, error) {
	switch strings.ToLower(setting) {
	case "", "auto":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(setting)
	if size != len(setting) || r == '"' || r == '\n' || r == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", setting)
	}
	return r, nil
}
