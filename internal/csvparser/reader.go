// =============================================================================
// Tariff Reconciler - CSV Parser Module (Chunked Reader)
// =============================================================================
//
// This module reads delimited text exports in fixed-size windows so files of
// several hundred megabytes never have to be held in memory at once.
//
// FEATURES:
//   - Fixed-size windows (default 5 MiB) with partial-line reassembly
//   - CRLF and lone CR normalized to LF, including CRLF split across windows
//   - Delimiter detected once from the header line
//   - Blank lines and rows without any content are skipped
//   - Progress reported after every window
//   - Context checked at every window boundary
//
// USAGE:
//   rd, err := csvparser.Open(ctx, file, csvparser.Options{Size: size})
//   if err != nil {
//       return err
//   }
//   defer rd.Close()
//
//   for rd.Next() {
//       row := rd.Row()
//       // Process the row...
//   }
//
//   if err := rd.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package csvparser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultWindowSize is the default number of decoded bytes read per window.
const DefaultWindowSize = 5 * 1024 * 1024

// ProgressFunc receives the raw bytes consumed so far and the total size.
// total is 0 when the size is unknown.
type ProgressFunc func(consumed, total int64)

// Options configures a Reader.
type Options struct {
	// WindowSize is the window size in bytes. Default: DefaultWindowSize.
	WindowSize int

	// Encoding is passed to NewDecoder. Default: "auto".
	Encoding string

	// Delimiter forces the separator. Empty or "auto" detects it.
	Delimiter string

	// Size is the raw input size used for progress. 0 means unknown.
	Size int64

	// Progress is called after every window. May be nil.
	Progress ProgressFunc
}

// =============================================================================
// ROW
// =============================================================================

// Row is one non-empty data line.
type Row struct {
	// Line is the 1-based line number after line-ending normalization.
	Line int

	// Fields holds the parsed values in header order.
	Fields []string
}

// Get returns the field at index i, or "" when the row is shorter.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// =============================================================================
// READER
// =============================================================================

// Reader is a forward-only iterator over the rows of a delimited file.
type Reader struct {
	ctx      context.Context
	src      io.Reader
	counter  *countingReader
	closer   io.Closer
	opts     Options
	encoding string

	window   []byte
	leftover []byte
	pending  []string
	done     bool

	header []string
	delim  rune

	line     int
	row      Row
	err      error
	reported int64
}

// Open creates a Reader over r and reads the header line.
//
// PARAMETERS:
//   - ctx: Checked before every window is read.
//   - r: The raw input.
//   - opts: Reader options.
//
// RETURNS:
//   - A Reader positioned before the first data row. An input with no
//     non-blank line yields a Reader with an empty header and no rows.
//   - An error if the options are invalid or the first window cannot be read.
func Open(ctx context.Context, r io.Reader, opts Options) (*Reader, error) {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}

	delim, err := ParseDelimiter(opts.Delimiter)
	if err != nil {
		return nil, err
	}

	counter := &countingReader{r: r}
	src, encoding, err := NewDecoder(counter, opts.Encoding)
	if err != nil {
		return nil, err
	}

	rd := &Reader{
		ctx:      ctx,
		src:      src,
		counter:  counter,
		opts:     opts,
		encoding: encoding,
		window:   make([]byte, opts.WindowSize),
		delim:    delim,
	}

	if err := rd.readHeader(); err != nil {
		return nil, err
	}
	return rd, nil
}

// OpenFile opens path and creates a Reader over it. The file size is used
// for progress unless opts.Size is set. Close releases the file.
func OpenFile(ctx context.Context, path string, opts Options) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	if opts.Size == 0 {
		if info, err := file.Stat(); err == nil {
			opts.Size = info.Size()
		}
	}

	rd, err := Open(ctx, file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	rd.closer = file
	return rd, nil
}

// readHeader consumes lines up to and including the first non-blank one.
func (r *Reader) readHeader() error {
	for {
		line, ok, err := r.nextLine()
		if err != nil {
			return err
		}
		if !ok {
			if r.delim == 0 {
				r.delim = ','
			}
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if r.delim == 0 {
			r.delim = DetectDelimiter(line)
		}
		r.header = ParseLine(line, r.delim)
		return nil
	}
}

// Next advances to the next non-empty row. It returns false at the end of
// input or on error.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	for {
		line, ok, err := r.nextLine()
		if err != nil {
			r.err = err
			return false
		}
		if !ok {
			return false
		}

		fields := ParseLine(line, r.delim)
		if isRowEmpty(fields) {
			continue
		}

		r.row = Row{Line: r.line, Fields: fields}
		return true
	}
}

// Row returns the current row.
func (r *Reader) Row() Row {
	return r.row
}

// Header returns the parsed header names.
func (r *Reader) Header() []string {
	return r.header
}

// Delimiter returns the delimiter in use.
func (r *Reader) Delimiter() rune {
	return r.delim
}

// Encoding returns the encoding selected for the input.
func (r *Reader) Encoding() string {
	return r.encoding
}

// LineNumber returns the number of lines consumed so far.
func (r *Reader) LineNumber() int {
	return r.line
}

// Err returns any error that occurred while reading.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying file when the Reader was created by OpenFile.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// =============================================================================
// WINDOWING
// =============================================================================

func (r *Reader) nextLine() (string, bool, error) {
	for len(r.pending) == 0 {
		if r.done {
			return "", false, nil
		}
		if err := r.fill(); err != nil {
			return "", false, err
		}
	}

	line := r.pending[0]
	r.pending[0] = ""
	r.pending = r.pending[1:]
	r.line++
	return line, true, nil
}

// fill reads one window, joins it with the leftover partial line and queues
// the complete lines.
func (r *Reader) fill() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	n, err := io.ReadFull(r.src, r.window)
	final := false
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		final = true
	case err != nil:
		return fmt.Errorf("failed to read window: %w", err)
	}

	data := r.window[:n]
	if len(r.leftover) > 0 {
		data = append(r.leftover, data...)
	}

	lines, rest := splitLines(data, final)
	r.leftover = append([]byte(nil), rest...)
	r.pending = lines
	r.done = final

	r.reportProgress()
	return nil
}

func (r *Reader) reportProgress() {
	if r.opts.Progress == nil {
		return
	}

	consumed, total := r.counter.n, r.opts.Size
	if r.done {
		if total > 0 {
			consumed = total
		} else {
			total = consumed
		}
	}
	if total > 0 && consumed > total {
		consumed = total
	}
	if consumed < r.reported {
		consumed = r.reported
	}
	r.reported = consumed

	r.opts.Progress(consumed, total)
}

// splitLines breaks data on LF, CRLF and CR. Unless final, the trailing
// fragment is returned as rest. A CR at the very end is kept in rest so a
// CRLF split across windows yields a single break.
func splitLines(data []byte, final bool) ([]string, []byte) {
	var lines []string
	start := 0

	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			lines = append(lines, string(data[start:i]))
			start = i + 1
		case '\r':
			if i+1 == len(data) && !final {
				return lines, data[start:]
			}
			lines = append(lines, string(data[start:i]))
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}

	if final {
		if start < len(data) {
			lines = append(lines, string(data[start:]))
		}
		return lines, nil
	}
	return lines, data[start:]
}

// Percent converts a progress report into 0-100.
func Percent(consumed, total int64) int {
	if total <= 0 {
		return 0
	}
	if consumed >= total {
		return 100
	}
	return int(consumed * 100 / total)
}

// countingReader counts raw bytes read from the input.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
