package core

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetParser parses the first sheet of an .xls or .xlsx workbook.
type SheetParser struct {
	layout ColumnLayout
}

// NewSheetParser creates a spreadsheet parser for the given layout.
func NewSheetParser(layout ColumnLayout) *SheetParser {
	return &SheetParser{layout: layout}
}

// Parse reads every populated row after the header row. Row numbers in
// errors are 1-based sheet rows, so blank rows do not shift them.
func (p *SheetParser) Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapParseError(ReasonRead, err, "error reading workbook")
	}

	book, err := openWorkbook(data)
	if err != nil {
		return nil, wrapParseError(ReasonRead, err, "error opening workbook")
	}
	defer book.Close()

	s, err := book.firstSheet()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(s.Rows))
	for _, row := range s.Rows {
		if row.Num-1 <= p.layout.SheetHeaderRow {
			continue
		}

		for col := 0; col < p.layout.ExpectedColumns; col++ {
			if col >= len(row.Cells) || strings.TrimSpace(row.Cells[col]) == "" {
				return nil, parseError(ReasonMissingData,
					"cell %d is empty in row %d", col, row.Num)
			}
		}

		values := make([]string, p.layout.ExpectedColumns)
		copy(values, row.Cells)
		for _, col := range []int{p.layout.EmployeeExternalID, p.layout.AwardExternalID} {
			values[col] = integerText(values[col], row.raw(col))
		}
		values[p.layout.ReceivedDate] = dateText(values[p.layout.ReceivedDate],
			row.raw(p.layout.ReceivedDate), s.Date1904)

		rec, err := NewRecord(values, p.layout, fmt.Sprintf("row %d", row.Num))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// integerText falls back to the raw value when a number format (thousands
// separators, say) keeps the display text from parsing as an integer.
func integerText(text, raw string) string {
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return text
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw
	}
	return text
}

// dateText normalizes a date cell to YYYY-MM-DD. Display text that already
// parses wins. A date-formatted serial number is converted from its raw
// value; an unformatted number is left alone so it still fails to parse.
func dateText(text, raw string, date1904 bool) string {
	if _, err := ParseDate(text); err == nil {
		return text
	}

	if raw == "" || raw == text {
		return text
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return text
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return text
	}
	return t.Format(DateLayout)
}
