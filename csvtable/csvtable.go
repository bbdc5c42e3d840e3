// Package csvtable loads a CSV translation table into memory.
//
// Each line of the source is "key,translation1[,translation2,...]". The first
// field is the source text as it appears in the default resource file; the
// remaining fields are the translations, one per target language, in column
// order. Fields may be wrapped in double quotes to carry literal commas.
//
// The format is deliberately looser than RFC 4180: a comma is a separator
// when an even number of double quotes follows it on the same line, and only
// one leading and one trailing quote is stripped from each field. Embedded
// quotes ("") are not unescaped.
package csvtable

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrIO is returned when the CSV source cannot be opened or read.
	ErrIO = errors.New("csv read failed")
	// ErrMalformedRecord is returned for a line with fewer than two fields.
	ErrMalformedRecord = errors.New("csv line must contain at least 2 comma separated values")
	// ErrColumnMismatch is returned by the strict column policy when lines
	// disagree on the number of translations.
	ErrColumnMismatch = errors.New("csv lines have inconsistent column counts")
)

// ColumnPolicy decides how the number of output columns is derived from
// lines that may carry different numbers of translations.
type ColumnPolicy string

const (
	// ColumnsStrict fails the load when any two lines disagree.
	ColumnsStrict ColumnPolicy = "strict"
	// ColumnsMin uses the smallest translation count across all lines.
	ColumnsMin ColumnPolicy = "min"
	// ColumnsLast uses the translation count of the last line read.
	ColumnsLast ColumnPolicy = "last"
)

// ParseColumnPolicy converts a config value to a ColumnPolicy.
// An empty string selects ColumnsStrict.
func ParseColumnPolicy(s string) (ColumnPolicy, error) {
	switch p := ColumnPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ColumnsStrict, nil
	case ColumnsStrict, ColumnsMin, ColumnsLast:
		return p, nil
	}
	return "", fmt.Errorf("unknown column policy %q (valid: strict, min, last)", s)
}

// Table maps source text to its ordered translations. It is built once by
// Load or Parse and never modified afterwards.
type Table struct {
	rows    map[string][]string
	columns int
}

// Load reads the CSV file at path.
func Load(path string, policy ColumnPolicy) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	t, err := Parse(f, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a CSV translation table from r. A leading UTF-8 byte order
// mark is dropped. Lines end at "\n", "\r\n" or a lone "\r"; every line,
// including an empty one, is a record.
func Parse(r io.Reader, policy ColumnPolicy) (*Table, error) {
	if policy == "" {
		policy = ColumnsStrict
	}

	t := &Table{rows: make(map[string][]string)}
	sc := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	sc.Split(scanLines)

	lineNo := 0
	seen := false
	for sc.Scan() {
		lineNo++

		fields := SplitLine(sc.Text())
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrMalformedRecord)
		}

		n := len(fields) - 1
		switch policy {
		case ColumnsStrict:
			if seen && n != t.columns {
				return nil, fmt.Errorf("line %d has %d translations, previous lines have %d: %w",
					lineNo, n, t.columns, ErrColumnMismatch)
			}
			t.columns = n
		case ColumnsMin:
			if !seen || n < t.columns {
				t.columns = n
			}
		case ColumnsLast:
			t.columns = max(n, 1)
		}
		seen = true

		t.rows[fields[0]] = fields[1:]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrIO, lineNo+1, err)
	}

	return t, nil
}

// maxLineSize bounds a single CSV line.
const maxLineSize = 16 << 20

// scanLines is a bufio.SplitFunc that ends lines at \n, \r\n or \r. A final
// terminator at EOF does not start another line.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// A \r at the end of the buffer may be the first half of \r\n.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// SplitLine splits a single CSV line into unquoted fields.
//
//	"a,b",c,d  ->  [a,b] [c] [d]
func SplitLine(line string) []string {
	remaining := strings.Count(line, `"`)
	var fields []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			remaining--
		case ',':
			if remaining%2 == 0 {
				fields = append(fields, unquote(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, unquote(line[start:]))
}

// unquote removes at most one leading and one trailing double quote.
func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// Translations returns the translations for key in column order.
// The returned slice must not be modified.
func (t *Table) Translations(key string) ([]string, bool) {
	v, ok := t.rows[key]
	return v, ok
}

// Columns returns the number of output columns (target languages).
func (t *Table) Columns() int { return t.columns }

// Len returns the number of keys.
func (t *Table) Len() int { return len(t.rows) }

// Keys returns all source keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Short returns the keys that have fewer than n translations.
func (t *Table) Short(n int) []string {
	var keys []string
	for _, k := range t.Keys() {
		if len(t.rows[k]) < n {
			keys = append(keys, k)
		}
	}
	return keys
}
