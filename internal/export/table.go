// Package export renders dashboard tables as CSV files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-faster/errors"
)

// Table is an ordered header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// WriteCSV writes the table as CSV. Fields holding commas, quotes or line breaks
// are quoted and inner quotes doubled.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return errors.Errorf("row %d has %d fields, want %d", i, len(row), len(t.Headers))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush")
}

// Bytes renders the table into memory.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName returns the download name for a view export.
func FileName(view string) string {
	return fmt.Sprintf("%s.csv", view)
}
