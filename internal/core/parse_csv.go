package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVParser parses comma-delimited award files.
type CSVParser struct {
	layout ColumnLayout
}

// NewCSVParser creates a CSV parser for the given layout.
func NewCSVParser(layout ColumnLayout) *CSVParser {
	return &CSVParser{layout: layout}
}

// Parse reads every data record after the header lines. It stops at the
// first bad row; an empty data section yields an empty, non-nil slice.
func (p *CSVParser) Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(utf8Text(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := make([]Record, 0)
	for n := 0; ; n++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapParseError(ReasonRead, err, "error reading csv file")
		}
		if n < p.layout.CSVHeaderLines {
			continue
		}

		line, _ := reader.FieldPos(0)
		if len(row) != p.layout.ExpectedColumns {
			return nil, parseError(ReasonColumnCount,
				"invalid column count: %d (expected %d) in line %d",
				len(row), p.layout.ExpectedColumns, line)
		}

		rec, err := NewRecord(row, p.layout, fmt.Sprintf("line %d", line))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// utf8Text strips a byte order mark and replaces invalid UTF-8 sequences
// with U+FFFD. UTF-16 files announced by a BOM are transcoded.
func utf8Text(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
