package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/awards/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Service runs award file ingestion against a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new Service instance.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// ParseUpload validates the upload and parses it into records. It needs no
// store. Validation and parsing each open their own stream.
func ParseUpload(up Upload) ([]Record, error) {
	if up.Open == nil {
		return nil, newError(KindInvalidFile, "no content for file %s", up.FileName)
	}

	if err := ValidateFile(up.FileName, up.Open); err != nil {
		return nil, err
	}

	parser, err := SelectParser(up.FileName)
	if err != nil {
		return nil, err
	}

	rc, err := up.Open()
	if err != nil {
		return nil, wrapError(KindInvalidFile, err, "error opening file %s", up.FileName)
	}
	defer rc.Close()

	return parser.Parse(rc)
}

// ProcessUpload ingests one file. File-level problems (format, structure,
// any malformed row) fail the whole call before the store is touched.
// Record-level problems are collected in UploadResult.Errors and never
// stop the batch.
func (s *Service) ProcessUpload(ctx context.Context, up Upload) (*UploadResult, error) {
	start := s.now()

	if up.Size == 0 {
		return nil, newError(KindEmptyUpload, "file must not be empty: %s", up.FileName)
	}

	records, err := ParseUpload(up)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		UploadID:     uuid.NewString(),
		FileName:     up.FileName,
		TotalRecords: len(records),
		Errors:       []string{},
	}
	logger := logging.WithFields(ctx, "upload_id", result.UploadID, "file", up.FileName)
	logger.Info("upload started", "records", len(records))

	for _, rec := range records {
		created, err := s.reconcile(ctx, rec)
		if err != nil {
			result.SkippedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf(
				"failed to process record (employeeId=%d, awardId=%d): %v",
				rec.EmployeeExternalID, rec.AwardExternalID, err))

			if errors.Is(err, ErrEmployeeNotFound) {
				logger.Warn("record skipped", "employee_id", rec.EmployeeExternalID,
					"award_id", rec.AwardExternalID, "error", err)
			} else {
				logger.Error("record failed", "employee_id", rec.EmployeeExternalID,
					"award_id", rec.AwardExternalID, "error", err)
			}
			continue
		}

		result.ProcessedRecords++
		if created {
			result.CreatedRecords++
		} else {
			result.UpdatedRecords++
		}
	}

	result.Duration = s.now().Sub(start)

	entry := UploadLog{
		ID:               result.UploadID,
		FileName:         result.FileName,
		Source:           SourceFromContext(ctx),
		TotalRecords:     result.TotalRecords,
		ProcessedRecords: result.ProcessedRecords,
		SkippedRecords:   result.SkippedRecords,
		CreatedRecords:   result.CreatedRecords,
		UpdatedRecords:   result.UpdatedRecords,
		Errors:           result.Errors,
		DurationMs:       result.Duration.Milliseconds(),
		UploadedAt:       start.UTC(),
	}
	if err := s.store.RecordUpload(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("failed to record upload", "error", err)
	}

	logger.Info("upload complete",
		"total", result.TotalRecords,
		"processed", result.ProcessedRecords,
		"skipped", result.SkippedRecords,
		"created", result.CreatedRecords,
		"updated", result.UpdatedRecords,
		"duration", result.Duration,
	)

	return result, nil
}

// reconcile upserts one record inside its own unit of work and reports
// whether the award was created.
func (s *Service) reconcile(ctx context.Context, rec Record) (created bool, err error) {
	unit, err := s.store.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			_ = unit.Rollback(context.WithoutCancel(ctx))
		}
	}()

	employee, ok, err := unit.FindEmployeeByExternalID(ctx, rec.EmployeeExternalID)
	if err != nil {
		return false, fmt.Errorf("find employee: %w", err)
	}
	if !ok {
		return false, newError(KindEmployeeNotFound, "employee not found: %d", rec.EmployeeExternalID)
	}

	award, found, err := unit.FindAwardByExternalID(ctx, rec.AwardExternalID)
	if err != nil {
		return false, fmt.Errorf("find award: %w", err)
	}
	if !found {
		award = Award{ExternalID: rec.AwardExternalID}
	}
	award.Name = rec.AwardName
	award.ReceivedDate = rec.ReceivedDate
	award.EmployeeID = employee.ID

	if _, err := unit.SaveAward(ctx, award); err != nil {
		return false, fmt.Errorf("save award: %w", err)
	}
	if err := unit.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return !found, nil
}

// RecentUploads returns the upload log, newest first. limit is clamped to
// [1, 100]; zero or negative means the default of 20.
func (s *Service) RecentUploads(ctx context.Context, limit int) ([]UploadLog, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.store.ListUploads(ctx, limit)
}
