package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// Source yields raw rows one at a time and returns io.EOF once exhausted.
type Source interface {
	Next() (models.RawRow, error)
}

// SourceReadError means the batch source itself broke (bad encoding, truncated
// input, I/O failure). Line is the 1-based data row being read; 0 is the header.
type SourceReadError struct {
	Line int
	Err  error
}

func (e *SourceReadError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("read header: %v", e.Err)
	}
	return fmt.Sprintf("read row %d: %v", e.Line, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

const utf8BOM = "\ufeff"

// CSVSource streams comma-separated rows keyed by the header record.
//
// Rows may carry fewer cells than the header (the missing columns are absent
// from the RawRow) or more (the extra cells are dropped). Quoting errors and
// reader failures surface as *SourceReadError.
type CSVSource struct {
	r      *csv.Reader
	header []string
	line   int
}

// NewCSVSource reads the header record from r. An empty input is a valid,
// empty batch.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column presence is checked per row by Validate

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &CSVSource{r: cr}, nil
	}
	if err != nil {
		return nil, &SourceReadError{Line: 0, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return &CSVSource{r: cr, header: header}, nil
}

// Header returns the column names in file order.
func (s *CSVSource) Header() []string {
	return append([]string(nil), s.header...)
}

// Next returns the next row or io.EOF.
func (s *CSVSource) Next() (models.RawRow, error) {
	if s.header == nil {
		return nil, io.EOF
	}
	rec, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	s.line++
	if err != nil {
		return nil, &SourceReadError{Line: s.line, Err: err}
	}

	row := make(models.RawRow, len(s.header))
	for i, name := range s.header {
		if i >= len(rec) {
			break
		}
		row[name] = rec[i]
	}
	return row, nil
}
