package fields

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultDelimiter separates fields in reference data exports.
const DefaultDelimiter = '|'

var utf8BOM = []byte("\xef\xbb\xbf")

// Reader yields Records from a delimited source whose first line is the header.
type Reader struct {
	csv    *csv.Reader
	header []string
	row    int
}

// NewReader reads the header row from src. A source with no header line is an error.
func NewReader(src io.Reader, delimiter rune) (*Reader, error) {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	br := bufio.NewReader(src)
	if lead, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("input has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return &Reader{csv: cr, header: header}, nil
}

// Header returns the trimmed header names.
func (r *Reader) Header() []string { return r.header }

// Next returns the following record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	values, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read row %d: %w", r.row+1, err)
	}
	r.row++
	return NewRecord(r.row, r.header, values), nil
}
