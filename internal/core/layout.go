package core

// ColumnLayout describes where each logical field lives in an award file and
// how many header rows precede the data. It is plain configuration: parsers
// copy it by value and nothing mutates it after start-up.
type ColumnLayout struct {
	EmployeeExternalID int
	EmployeeFullName   int
	AwardExternalID    int
	AwardName          int
	ReceivedDate       int

	// CSVHeaderLines is the number of leading CSV records to skip.
	CSVHeaderLines int

	// SheetHeaderRow is the 0-based sheet row index holding the header.
	SheetHeaderRow int

	// ExpectedColumns is the exact number of cells in a data row.
	ExpectedColumns int
}

var defaultLayout = ColumnLayout{
	EmployeeExternalID: 0,
	EmployeeFullName:   1,
	AwardExternalID:    2,
	AwardName:          3,
	ReceivedDate:       4,
	CSVHeaderLines:     1,
	SheetHeaderRow:     0,
	ExpectedColumns:    5,
}

// DefaultLayout returns the process-wide award file layout.
func DefaultLayout() ColumnLayout {
	return defaultLayout
}

// columnNames returns human-readable field names indexed by column position.
func (l ColumnLayout) columnNames() map[int]string {
	return map[int]string{
		l.EmployeeExternalID: "employee external id",
		l.EmployeeFullName:   "employee full name",
		l.AwardExternalID:    "award external id",
		l.AwardName:          "award name",
		l.ReceivedDate:       "received date",
	}
}
