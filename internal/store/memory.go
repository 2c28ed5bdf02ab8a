package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/JonMunkholm/awards/internal/core"
)

// ErrUnitClosed is returned when a unit is used after Commit or Rollback.
var ErrUnitClosed = errors.New("unit already closed")

// Memory is an in-process Store. Writes made through a unit are staged and
// only become visible on Commit. Used by tests.
type Memory struct {
	mu        sync.RWMutex
	employees map[int64]core.Employee // by external id
	awards    map[int64]core.Award    // by external id
	uploads   []core.UploadLog
	nextID    int64
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		employees: make(map[int64]core.Employee),
		awards:    make(map[int64]core.Award),
	}
}

// AddEmployee seeds an employee and returns it with its assigned key.
func (m *Memory) AddEmployee(externalID int64, fullName string) core.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	e := core.Employee{ID: m.nextID, ExternalID: externalID, FullName: fullName}
	m.employees[externalID] = e
	return e
}

// Award returns the committed award with the given external id.
func (m *Memory) Award(externalID int64) (core.Award, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.awards[externalID]
	return a, ok
}

// AwardCount returns the number of committed awards.
func (m *Memory) AwardCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.awards)
}

func (m *Memory) Begin(ctx context.Context) (core.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryUnit{m: m, staged: make(map[int64]core.Award)}, nil
}

func (m *Memory) RecordUpload(_ context.Context, entry core.UploadLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Errors = append([]string(nil), entry.Errors...)
	m.uploads = append(m.uploads, entry)
	return nil
}

func (m *Memory) ListUploads(_ context.Context, limit int) ([]core.UploadLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.UploadLog, len(m.uploads))
	copy(out, m.uploads)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryUnit struct {
	m      *Memory
	staged map[int64]core.Award
	closed bool
}

func (u *memoryUnit) FindEmployeeByExternalID(ctx context.Context, externalID int64) (core.Employee, bool, error) {
	if err := u.check(ctx); err != nil {
		return core.Employee{}, false, err
	}
	u.m.mu.RLock()
	defer u.m.mu.RUnlock()
	e, ok := u.m.employees[externalID]
	return e, ok, nil
}

func (u *memoryUnit) FindAwardByExternalID(ctx context.Context, externalID int64) (core.Award, bool, error) {
	if err := u.check(ctx); err != nil {
		return core.Award{}, false, err
	}
	if a, ok := u.staged[externalID]; ok {
		return a, true, nil
	}
	u.m.mu.RLock()
	defer u.m.mu.RUnlock()
	a, ok := u.m.awards[externalID]
	return a, ok, nil
}

func (u *memoryUnit) SaveAward(ctx context.Context, award core.Award) (core.Award, error) {
	if err := u.check(ctx); err != nil {
		return core.Award{}, err
	}
	if award.ID == 0 {
		u.m.mu.Lock()
		u.m.nextID++
		award.ID = u.m.nextID
		u.m.mu.Unlock()
	}
	u.staged[award.ExternalID] = award
	return award, nil
}

func (u *memoryUnit) Commit(ctx context.Context) error {
	if err := u.check(ctx); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	for id, a := range u.staged {
		u.m.awards[id] = a
	}
	u.closed = true
	return nil
}

// Rollback discards staged writes. It is a no-op on a closed unit.
func (u *memoryUnit) Rollback(context.Context) error {
	u.staged = nil
	u.closed = true
	return nil
}

func (u *memoryUnit) check(ctx context.Context) error {
	if u.closed {
		return ErrUnitClosed
	}
	return ctx.Err()
}
