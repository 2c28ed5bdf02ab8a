package core

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted text form of a received date.
const DateLayout = "2006-01-02"

// Record is one parsed award row. Values are only built by NewRecord, which
// guarantees every field is present and well typed.
type Record struct {
	EmployeeExternalID int64     `json:"employeeExternalId"`
	EmployeeFullName   string    `json:"employeeFullName"`
	AwardExternalID    int64     `json:"awardExternalId"`
	AwardName          string    `json:"awardName"`
	ReceivedDate       time.Time `json:"receivedDate"`
}

// NewRecord builds a Record from cell text laid out per layout. where is
// appended to error messages to locate the offending input ("row 4",
// "line [..]").
func NewRecord(values []string, layout ColumnLayout, where string) (Record, error) {
	names := layout.columnNames()
	for _, idx := range []int{
		layout.EmployeeExternalID,
		layout.EmployeeFullName,
		layout.AwardExternalID,
		layout.AwardName,
		layout.ReceivedDate,
	} {
		if idx >= len(values) || strings.TrimSpace(values[idx]) == "" {
			return Record{}, parseError(ReasonMissingData,
				"missing required data (%s) in %s", names[idx], where)
		}
	}

	employeeID, err := strconv.ParseInt(values[layout.EmployeeExternalID], 10, 64)
	if err != nil {
		return Record{}, wrapParseError(ReasonMalformedValue, err,
			"error parsing data: invalid %s %q in %s",
			names[layout.EmployeeExternalID], values[layout.EmployeeExternalID], where)
	}

	awardID, err := strconv.ParseInt(values[layout.AwardExternalID], 10, 64)
	if err != nil {
		return Record{}, wrapParseError(ReasonMalformedValue, err,
			"error parsing data: invalid %s %q in %s",
			names[layout.AwardExternalID], values[layout.AwardExternalID], where)
	}

	received, err := ParseDate(values[layout.ReceivedDate])
	if err != nil {
		return Record{}, wrapParseError(ReasonMalformedValue, err,
			"error parsing data: invalid %s %q in %s",
			names[layout.ReceivedDate], values[layout.ReceivedDate], where)
	}

	return Record{
		EmployeeExternalID: employeeID,
		EmployeeFullName:   values[layout.EmployeeFullName],
		AwardExternalID:    awardID,
		AwardName:          values[layout.AwardName],
		ReceivedDate:       received,
	}, nil
}

// ParseDate parses a strict ISO calendar date (YYYY-MM-DD) in UTC.
// Out-of-range dates such as 2024-02-30 are rejected.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
