package fields

import (
	"strconv"
	"strings"
)

// Record is one input row: column name to text, in header order.
type Record struct {
	Row        int // 1-based data row number (header excluded)
	columns    []string
	values     []string
	index      map[string]int
	positional bool
}

// NewRecord pairs header names with row values. Missing trailing values read as
// empty. When every header name is a column number the record is positional
// and values beyond the header stay reachable by their index.
func NewRecord(row int, header, values []string) Record {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return Record{Row: row, columns: header, values: values, index: idx, positional: NumericHeader(header)}
}

// NumericHeader reports whether header is a non-empty list of column numbers,
// the shape of exports written without named columns.
func NumericHeader(header []string) bool {
	if len(header) == 0 {
		return false
	}
	for _, h := range header {
		if n, err := strconv.Atoi(h); err != nil || n < 0 {
			return false
		}
	}
	return true
}

// Positional reports whether decimal keys may address columns by index.
func (r Record) Positional() bool { return r.positional }

// Columns returns the header names in input order.
func (r Record) Columns() []string { return r.columns }

// Value returns the text stored under the header column named key. Only a
// positional record resolves a decimal key with no matching column by index.
func (r Record) Value(key string) (string, bool) {
	if i, ok := r.index[key]; ok {
		if i < len(r.values) {
			return r.values[i], true
		}
		return "", true
	}
	if !r.positional {
		return "", false
	}
	if pos, err := strconv.Atoi(key); err == nil && pos >= 0 && pos < len(r.values) {
		return r.values[pos], true
	}
	return "", false
}

// Blank reports whether every value in the row is empty after trimming.
func (r Record) Blank() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Resolve returns the trimmed value of the first alias present in r with
// non-blank text, or def when none qualifies.
func Resolve(r Record, aliases []string, def string) string {
	for _, a := range aliases {
		v, ok := r.Value(a)
		if !ok {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}
