package core

// error_messages.go maps technical errors to user-facing messages with codes
// support staff can look up.
//
// Typed ingestion errors (*Error) are mapped by kind and reason. Everything
// else falls through to case-insensitive substring patterns, first match wins.
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Unsupported file type (kind unsupported_format)
//	FMT002 - File has no extension (kind missing_extension)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large. Patterns: "file too large", "request body too large"
//	FILE002 - File is damaged or not what its extension claims (kind invalid_file)
//	FILE004 - No file selected. Patterns: "no file provided"
//	FILE005 - Empty file (kinds empty_upload, empty_or_invalid_file)
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Wrong number of columns in a row
//	PARSE002 - Malformed id or date value
//	PARSE003 - Missing value in a required column
//	PARSE004 - Workbook has no sheet
//	PARSE005 - File could not be read
//	PARSE000 - Any other parse failure
//
// # Record Errors (REC001-REC099)
//
//	REC001 - Employee not found
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Too many uploads in progress. Patterns: "too many concurrent uploads"
//	UPL002 - Request cancelled. Patterns: "context canceled"
//	UPL003 - Request timed out. Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key. Patterns: "duplicate key"
//	DB002 - Unique constraint. Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key. Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused. Patterns: "connection refused"
//	DB005 - Connection reset. Patterns: "connection reset"
//	DB006 - Timeout. Patterns: "timeout"
//	DB007 - Deadlock. Patterns: "deadlock"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var kindMessages = map[ErrorKind]UserMessage{
	KindUnsupportedFormat: {
		Message: "This file type is not supported",
		Action:  "Upload a .csv, .xls or .xlsx file",
		Code:    "FMT001",
	},
	KindMissingExtension: {
		Message: "The file name has no extension",
		Action:  "Rename the file to end in .csv, .xls or .xlsx",
		Code:    "FMT002",
	},
	KindInvalidFile: {
		Message: "The file is damaged or does not match its extension",
		Action:  "Re-export the file from your spreadsheet application",
		Code:    "FILE002",
	},
	KindEmptyOrInvalidFile: {
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and data rows",
		Code:    "FILE005",
	},
	KindEmptyUpload: {
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and data rows",
		Code:    "FILE005",
	},
	KindEmployeeNotFound: {
		Message: "The employee does not exist",
		Action:  "Check the employee id or add the employee first",
		Code:    "REC001",
	},
}

var parseMessages = map[ParseReason]UserMessage{
	ReasonColumnCount: {
		Message: "A row has the wrong number of columns",
		Action:  "Each row needs exactly 5 columns: employee id, employee name, award id, award name, date",
		Code:    "PARSE001",
	},
	ReasonMalformedValue: {
		Message: "A row contains an invalid id or date",
		Action:  "Ids must be whole numbers and dates must be YYYY-MM-DD",
		Code:    "PARSE002",
	},
	ReasonMissingData: {
		Message: "A row is missing a required value",
		Action:  "Fill in all 5 columns for every row",
		Code:    "PARSE003",
	},
	ReasonNoSheet: {
		Message: "The workbook has no sheet",
		Action:  "Put the awards on the first sheet of the workbook",
		Code:    "PARSE004",
	},
	ReasonRead: {
		Message: "The file could not be read",
		Action:  "Check the file is not corrupted and try again",
		Code:    "PARSE005",
	},
}

var parseDefault = UserMessage{
	Message: "The file could not be parsed",
	Action:  "Check the file layout and try again",
	Code:    "PARSE000",
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps untyped technical errors (case-insensitive) to user
// messages. Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	// Database constraint errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check for duplicate award ids",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure the employee exists before uploading awards",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure the employee exists before uploading awards",
			Code:    "DB003",
		},
	},

	// Upload errors. Checked before DB006 so deadlines are not reported
	// as database timeouts.
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL003",
		},
	},

	// Database connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// File errors raised outside the ingestion pipeline
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a .csv, .xls or .xlsx file to upload",
			Code:    "FILE004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed ingestion errors are mapped by kind; other errors by pattern.
//
// Example:
//
//	_, err := core.SelectParser("awards.txt")
//	msg := core.MapError(err)
//	// msg.Code == "FMT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindParse {
			if msg, ok := parseMessages[e.Reason]; ok {
				return msg
			}
			return parseDefault
		}
		if msg, ok := kindMessages[e.Kind]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
