package core

import (
	"bytes"
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	errUnknownContainer = errors.New("unrecognized workbook container")
)

// sheetRow is one populated row of a worksheet.
type sheetRow struct {
	Num   int      // 1-based sheet row number
	Cells []string // Display text
	Raw   []string // Unformatted values, nil when the reader cannot supply them
}

func (r sheetRow) raw(col int) string {
	if col < len(r.Raw) {
		return r.Raw[col]
	}
	return ""
}

type sheet struct {
	Rows     []sheetRow
	Date1904 bool
}

// workbook hides the two spreadsheet container formats.
type workbook interface {
	firstSheet() (*sheet, error)
	Close() error
}

// openWorkbook sniffs data and opens it as an OOXML or legacy BIFF workbook.
// The container is detected from content so a misnamed workbook still opens.
func openWorkbook(data []byte) (workbook, error) {
	switch {
	case bytes.HasPrefix(data, zipSignature):
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &xlsxBook{f: f}, nil
	case bytes.HasPrefix(data, oleSignature):
		return openXLS(data)
	default:
		return nil, errUnknownContainer
	}
}

type xlsxBook struct {
	f *excelize.File
}

func (b *xlsxBook) firstSheet() (*sheet, error) {
	names := b.f.GetSheetList()
	if len(names) == 0 {
		return nil, parseError(ReasonNoSheet, "workbook has no sheet")
	}

	text, err := b.f.GetRows(names[0])
	if err != nil {
		return nil, wrapParseError(ReasonRead, err, "error reading sheet %q", names[0])
	}
	raw, err := b.f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, wrapParseError(ReasonRead, err, "error reading sheet %q", names[0])
	}

	s := &sheet{Rows: make([]sheetRow, 0, len(text))}
	if props, err := b.f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.Date1904 = *props.Date1904
	}

	// GetRows keeps interior blank rows as empty slices, so the slice index
	// is the sheet row index.
	for i, cells := range text {
		if blankRow(cells) {
			continue
		}
		row := sheetRow{Num: i + 1, Cells: cells}
		if i < len(raw) {
			row.Raw = raw[i]
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func (b *xlsxBook) Close() error {
	return b.f.Close()
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
