// Package memory provides an in-process sheet.Store for runs without a
// database and for tests.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

type entry struct {
	rows []sheet.Row
	meta sheet.Meta
}

// SheetStore keeps snapshots in a mutex-guarded map. Rows are copied on the
// way in and out so callers cannot alias stored state.
type SheetStore struct {
	mu          sync.RWMutex
	sheets      map[sheet.Name]entry
	unavailable bool
	now         func() time.Time
	logger      *slog.Logger
}

var _ sheet.Store = (*SheetStore)(nil)

// NewSheetStore creates an empty store.
func NewSheetStore(logger *slog.Logger) *SheetStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetStore{
		sheets: make(map[sheet.Name]entry),
		now:    time.Now,
		logger: logger.With(slog.String("component", "memory_store")),
	}
}

// SetUnavailable makes every later call behave like a failed backend.
func (s *SheetStore) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// SetClock replaces the clock used for Meta.UpdatedAt.
func (s *SheetStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get implements sheet.Store.
func (s *SheetStore) Get(_ context.Context, name sheet.Name) sheet.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := sheet.Snapshot{Name: name, Rows: []sheet.Row{}}
	if s.unavailable {
		s.logger.Warn("sheet read failed, serving empty rows", slog.String("sheet", name.String()))
		snap.Status = sheet.StatusUnavailable
		return snap
	}
	e, ok := s.sheets[name]
	if !ok {
		snap.Status = sheet.StatusMissing
		return snap
	}
	snap.Rows = append(snap.Rows, e.rows...)
	snap.Meta = e.meta
	snap.Status = sheet.StatusOK
	return snap
}

// Put implements sheet.Store.
func (s *SheetStore) Put(_ context.Context, name sheet.Name, rows []sheet.Row, syncedAt time.Time) sheet.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		s.logger.Warn("sheet write failed, keeping previous rows", slog.String("sheet", name.String()))
		return sheet.StatusUnavailable
	}
	stored := make([]sheet.Row, len(rows))
	copy(stored, rows)
	s.sheets[name] = entry{
		rows: stored,
		meta: sheet.NextMeta(s.sheets[name].meta, stored, syncedAt, s.now()),
	}
	return sheet.StatusOK
}
