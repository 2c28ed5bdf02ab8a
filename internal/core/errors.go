package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ingestion failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnsupportedFormat
	KindMissingExtension
	KindInvalidFile
	KindEmptyOrInvalidFile
	KindEmptyUpload
	KindParse
	KindEmployeeNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindMissingExtension:
		return "missing_extension"
	case KindInvalidFile:
		return "invalid_file"
	case KindEmptyOrInvalidFile:
		return "empty_or_invalid_file"
	case KindEmptyUpload:
		return "empty_upload"
	case KindParse:
		return "parse_error"
	case KindEmployeeNotFound:
		return "employee_not_found"
	default:
		return "unknown"
	}
}

// ParseReason narrows a KindParse error.
type ParseReason int

const (
	ReasonNone ParseReason = iota
	ReasonColumnCount
	ReasonMalformedValue
	ReasonMissingData
	ReasonNoSheet
	ReasonRead
)

// Error is the typed error returned by every ingestion phase.
type Error struct {
	Kind   ErrorKind
	Reason ParseReason
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Reason when the target sets one, so callers can
// write errors.Is(err, core.ErrParse) or errors.Is(err, core.ErrColumnCount).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

// Sentinels for errors.Is checks.
var (
	ErrUnsupportedFormat  = &Error{Kind: KindUnsupportedFormat, Msg: "unsupported file type"}
	ErrMissingExtension   = &Error{Kind: KindMissingExtension, Msg: "file has no extension"}
	ErrInvalidFile        = &Error{Kind: KindInvalidFile, Msg: "invalid file"}
	ErrEmptyOrInvalidFile = &Error{Kind: KindEmptyOrInvalidFile, Msg: "file contains no data"}
	ErrEmptyUpload        = &Error{Kind: KindEmptyUpload, Msg: "file must not be empty"}
	ErrParse              = &Error{Kind: KindParse, Msg: "parse error"}
	ErrColumnCount        = &Error{Kind: KindParse, Reason: ReasonColumnCount, Msg: "invalid column count"}
	ErrMalformedValue     = &Error{Kind: KindParse, Reason: ReasonMalformedValue, Msg: "error parsing data"}
	ErrMissingData        = &Error{Kind: KindParse, Reason: ReasonMissingData, Msg: "missing required data"}
	ErrNoSheet            = &Error{Kind: KindParse, Reason: ReasonNoSheet, Msg: "workbook has no sheet"}
	ErrEmployeeNotFound   = &Error{Kind: KindEmployeeNotFound, Msg: "employee not found"}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func parseError(reason ParseReason, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

func wrapParseError(reason ParseReason, err error, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Reason: reason, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the ErrorKind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsBadRequest reports whether err was caused by the uploaded file itself
// rather than by the server. These errors stop an ingestion before any record
// is reconciled.
func IsBadRequest(err error) bool {
	switch KindOf(err) {
	case KindUnsupportedFormat, KindMissingExtension, KindInvalidFile,
		KindEmptyOrInvalidFile, KindEmptyUpload, KindParse:
		return true
	}
	return false
}
