package core

import "strings"

// Format is a supported upload file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

// extension returns the lower-cased text after the last dot. ok is false when
// there is no dot, the dot is the first character, or the dot is last.
func extension(fileName string) (string, bool) {
	name := strings.ToLower(fileName)
	dot := strings.LastIndex(name, ".")
	if dot <= 0 || dot == len(name)-1 {
		return "", false
	}
	return name[dot+1:], true
}

// DetectFormat maps a file name to its Format.
func DetectFormat(fileName string) (Format, error) {
	ext, ok := extension(fileName)
	if !ok {
		return "", newError(KindMissingExtension, "file has no extension: %s", fileName)
	}
	switch Format(ext) {
	case FormatCSV, FormatXLS, FormatXLSX:
		return Format(ext), nil
	}
	return "", newError(KindUnsupportedFormat, "unsupported file type: %s", fileName)
}

// SelectParser chooses the parser for fileName. Both spreadsheet extensions
// share one parser, which sniffs the workbook container itself.
func SelectParser(fileName string) (Parser, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return NewCSVParser(DefaultLayout()), nil
	default:
		return NewSheetParser(DefaultLayout()), nil
	}
}
