// Package csvutil reads list exports: comma separated, quoted fields may hold
// commas, newlines and doubled quotes, and rows may differ in length.
package csvutil

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

var (
	ErrEmpty     = errors.New("no rows in csv data")
	ErrNoColumn  = errors.New("column not found in header")
	ErrMalformed = errors.New("malformed csv data")
)

// Parse returns every row of data.
func Parse(data string) ([][]string, error) {
	return Read(strings.NewReader(data))
}

func Read(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return rows, nil
}

// Header maps column names to their index. Later duplicates lose.
func Header(row []string) map[string]int {
	h := make(map[string]int, len(row))
	for i, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := h[name]; !ok {
			h[name] = i
		}
	}
	return h
}

// Table is a parsed export with its header split off.
type Table struct {
	Columns map[string]int
	Rows    [][]string
}

func ParseTable(data string) (*Table, error) {
	rows, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return &Table{Columns: Header(rows[0]), Rows: rows[1:]}, nil
}

// Field returns column name of row, or "" when the row is too short.
func (t *Table) Field(row []string, name string) (string, error) {
	i, ok := t.Columns[name]
	if !ok {
		return "", ErrNoColumn
	}
	if i >= len(row) {
		return "", nil
	}
	return row[i], nil
}
