package importing

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

const utf8BOM = "\ufeff"

var ErrEmptyFile = errors.New("empty file: a header row is required")

// RawRow is one data line of an uploaded file, keyed by the header's column names.
type RawRow struct {
	Number int // 1-based, header excluded

	columns map[string]int
	values  []string
}

// NewRawRow builds a standalone row; ReadRows shares one column index between all rows instead.
func NewRawRow(number int, header, values []string) RawRow {
	return RawRow{Number: number, columns: indexColumns(header), values: values}
}

// Get returns the raw value of column `col`; missing columns and short lines read as blank.
func (r RawRow) Get(col string) string {
	i, ok := r.columns[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// ReadRows decodes a comma separated stream with a header row.
// Any decoding error fails the whole read: no partial rows are returned.
func ReadRows(src io.Reader) ([]string, []RawRow, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i, h := range header {
		header[i] = core.CleanString(h)
	}
	columns := indexColumns(header)

	var rows []RawRow
	for n := 1; ; n++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading row %d", n)
		}
		rows = append(rows, RawRow{Number: n, columns: columns, values: record})
	}
	return header, rows, nil
}

// indexColumns maps column names to their position; the first occurrence of a name wins.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := columns[h]; h != "" && !dup {
			columns[h] = i
		}
	}
	return columns
}
