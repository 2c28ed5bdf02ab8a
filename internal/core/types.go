package core

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"
)

// Employee is owned by the store. Ingestion only ever reads employees.
type Employee struct {
	ID         int64 // Store-assigned key
	ExternalID int64 // Caller-supplied unique id
	FullName   string
}

// Award is upserted by external id. ID is zero until the store persists it.
type Award struct {
	ID           int64
	ExternalID   int64
	Name         string
	ReceivedDate time.Time
	EmployeeID   int64 // Store key of the owning employee
}

// Store is the persistence collaborator used by the reconciliation engine.
type Store interface {
	// Begin opens one unit of work. Exactly one of Commit or Rollback must be
	// called on the returned Unit.
	Begin(ctx context.Context) (Unit, error)

	// RecordUpload appends an entry to the upload log.
	RecordUpload(ctx context.Context, entry UploadLog) error

	// ListUploads returns the most recent upload log entries, newest first.
	ListUploads(ctx context.Context, limit int) ([]UploadLog, error)
}

// Unit brackets the store operations for a single record.
type Unit interface {
	FindEmployeeByExternalID(ctx context.Context, externalID int64) (Employee, bool, error)
	FindAwardByExternalID(ctx context.Context, externalID int64) (Award, bool, error)
	// SaveAward inserts when award.ID is zero and updates in place otherwise.
	SaveAward(ctx context.Context, award Award) (Award, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Parser turns a validated file stream into records.
type Parser interface {
	Parse(r io.Reader) ([]Record, error)
}

// Opener returns a fresh stream over the uploaded file each time it is called.
type Opener func() (io.ReadCloser, error)

// BytesOpener serves data from memory.
func BytesOpener(data []byte) Opener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// FileOpener serves a file from disk.
func FileOpener(path string) Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// Upload is one file handed to the service.
type Upload struct {
	FileName string
	Size     int64 // Bytes; negative if unknown
	Open     Opener
}

// UploadResult contains the final result of an ingestion call.
type UploadResult struct {
	UploadID         string        `json:"uploadId"`
	FileName         string        `json:"fileName"`
	TotalRecords     int           `json:"totalRecords"`
	ProcessedRecords int           `json:"processedRecords"`
	SkippedRecords   int           `json:"skippedRecords"`
	CreatedRecords   int           `json:"createdRecords"`
	UpdatedRecords   int           `json:"updatedRecords"`
	Errors           []string      `json:"errors"`
	Duration         time.Duration `json:"durationNs"`
}

// UploadLog is a persisted summary of a completed ingestion.
type UploadLog struct {
	ID               string    `json:"id"`
	FileName         string    `json:"fileName"`
	Source           string    `json:"source,omitempty"`
	TotalRecords     int       `json:"totalRecords"`
	ProcessedRecords int       `json:"processedRecords"`
	SkippedRecords   int       `json:"skippedRecords"`
	CreatedRecords   int       `json:"createdRecords"`
	UpdatedRecords   int       `json:"updatedRecords"`
	Errors           []string  `json:"errors"`
	DurationMs       int64     `json:"durationMs"`
	UploadedAt       time.Time `json:"uploadedAt"`
}
