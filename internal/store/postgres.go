package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/awards/internal/core"
	db "github.com/JonMunkholm/awards/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres runs every unit of work in its own transaction.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store over pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Begin(ctx context.Context) (core.Unit, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgUnit{tx: tx, q: db.New(tx)}, nil
}

func (p *Postgres) RecordUpload(ctx context.Context, entry core.UploadLog) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("upload id: %w", err)
	}
	errs := entry.Errors
	if errs == nil {
		errs = []string{}
	}

	err = db.New(p.pool).InsertUpload(ctx, db.InsertUploadParams{
		ID:               pgtype.UUID{Bytes: id, Valid: true},
		FileName:         entry.FileName,
		Source:           entry.Source,
		TotalRecords:     int32(entry.TotalRecords),
		ProcessedRecords: int32(entry.ProcessedRecords),
		SkippedRecords:   int32(entry.SkippedRecords),
		CreatedRecords:   int32(entry.CreatedRecords),
		UpdatedRecords:   int32(entry.UpdatedRecords),
		Errors:           errs,
		DurationMs:       entry.DurationMs,
		UploadedAt:       pgtype.Timestamptz{Time: entry.UploadedAt, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (p *Postgres) ListUploads(ctx context.Context, limit int) ([]core.UploadLog, error) {
	rows, err := db.New(p.pool).ListUploads(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	out := make([]core.UploadLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.UploadLog{
			ID:               uuid.UUID(r.ID.Bytes).String(),
			FileName:         r.FileName,
			Source:           r.Source,
			TotalRecords:     int(r.TotalRecords),
			ProcessedRecords: int(r.ProcessedRecords),
			SkippedRecords:   int(r.SkippedRecords),
			CreatedRecords:   int(r.CreatedRecords),
			UpdatedRecords:   int(r.UpdatedRecords),
			Errors:           r.Errors,
			DurationMs:       r.DurationMs,
			UploadedAt:       r.UploadedAt.Time,
		})
	}
	return out, nil
}

type pgUnit struct {
	tx pgx.Tx
	q  *db.Queries
}

func (u *pgUnit) FindEmployeeByExternalID(ctx context.Context, externalID int64) (core.Employee, bool, error) {
	e, err := u.q.GetEmployeeByExternalID(ctx, externalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Employee{}, false, nil
	}
	if err != nil {
		return core.Employee{}, false, err
	}
	return core.Employee{ID: e.ID, ExternalID: e.ExternalID, FullName: e.FullName}, true, nil
}

func (u *pgUnit) FindAwardByExternalID(ctx context.Context, externalID int64) (core.Award, bool, error) {
	a, err := u.q.GetAwardByExternalID(ctx, externalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Award{}, false, nil
	}
	if err != nil {
		return core.Award{}, false, err
	}
	return core.Award{
		ID:           a.ID,
		ExternalID:   a.ExternalID,
		Name:         a.Name,
		ReceivedDate: a.ReceivedDate.Time,
		EmployeeID:   a.EmployeeID,
	}, true, nil
}

func (u *pgUnit) SaveAward(ctx context.Context, award core.Award) (core.Award, error) {
	date := toPgDate(award.ReceivedDate)

	if award.ID == 0 {
		id, err := u.q.InsertAward(ctx, db.InsertAwardParams{
			ExternalID:   award.ExternalID,
			Name:         award.Name,
			ReceivedDate: date,
			EmployeeID:   award.EmployeeID,
		})
		if err != nil {
			return core.Award{}, err
		}
		award.ID = id
		return award, nil
	}

	err := u.q.UpdateAward(ctx, db.UpdateAwardParams{
		ID:           award.ID,
		Name:         award.Name,
		ReceivedDate: date,
		EmployeeID:   award.EmployeeID,
	})
	if err != nil {
		return core.Award{}, err
	}
	return award, nil
}

func (u *pgUnit) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

// Rollback ignores pgx.ErrTxClosed so it is safe after a failed Commit.
func (u *pgUnit) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func toPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
