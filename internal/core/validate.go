package core

import (
	"archive/zip"
	"bufio"
	"bytes"
	"io"
	"strings"
)

// xlsxContentDir is the package folder every SpreadsheetML workbook carries.
const xlsxContentDir = "xl/"

// ValidateFile checks that the stream from open is structurally consistent
// with the extension of fileName. It consumes and closes one stream; parsing
// must open its own.
func ValidateFile(fileName string, open Opener) error {
	format, err := DetectFormat(fileName)
	if err != nil {
		// A missing extension is reported as unsupported here.
		return newError(KindUnsupportedFormat, "%s", err.Error())
	}

	rc, err := open()
	if err != nil {
		return wrapError(KindInvalidFile, err, "error opening file %s", fileName)
	}
	defer rc.Close()

	switch format {
	case FormatCSV:
		return validateCSV(rc)
	case FormatXLS:
		return validateXLS(rc)
	default:
		return validateXLSX(rc)
	}
}

func validateCSV(r io.Reader) error {
	sc := bufio.NewScanner(utf8Text(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return wrapError(KindEmptyOrInvalidFile, err, "error reading csv file")
	}
	return newError(KindEmptyOrInvalidFile, "csv file contains no data")
}

func validateXLS(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return wrapError(KindInvalidFile, err, "invalid xls file")
	}
	book, err := openWorkbook(data)
	if err != nil {
		return wrapError(KindInvalidFile, err, "invalid xls file")
	}
	defer book.Close()

	// Sheet records are only reached by decoding them.
	if _, err := book.firstSheet(); err != nil {
		return wrapError(KindInvalidFile, err, "invalid xls file")
	}
	return nil
}

func validateXLSX(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return wrapError(KindInvalidFile, err, "invalid xlsx file")
	}
	if !bytes.HasPrefix(data, zipSignature) {
		return newError(KindInvalidFile, "invalid xlsx file: not a ZIP container")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return wrapError(KindInvalidFile, err, "invalid xlsx file")
	}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, xlsxContentDir) {
			return nil
		}
	}
	return newError(KindInvalidFile, "invalid xlsx file: missing expected internal structure")
}
