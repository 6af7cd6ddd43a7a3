package sheetsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqat-hub/halaqat-reports/internal/application/aggregation"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/shared"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence/memory"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKE REMOTE
// ══════════════════════════════════════════════════════════════════════════════

type appendedRow struct {
	sheet sheet.Name
	row   sheet.Row
}

type fakeRemote struct {
	mu        sync.Mutex
	deltas    map[sheet.Name]sheet.Delta
	errs      map[sheet.Name]error
	since     map[sheet.Name]time.Time
	fetched   []sheet.Name
	appended  []appendedRow
	appendErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		deltas: make(map[sheet.Name]sheet.Delta),
		errs:   make(map[sheet.Name]error),
		since:  make(map[sheet.Name]time.Time),
	}
}

func (f *fakeRemote) Fetch(_ context.Context, name sheet.Name, since time.Time) (sheet.Delta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, name)
	f.since[name] = since
	if err := f.errs[name]; err != nil {
		return sheet.Delta{}, err
	}
	d := f.deltas[name]
	// Deltas are consumed like the real endpoint: the next call sees nothing new.
	delete(f.deltas, name)
	return d, nil
}

func (f *fakeRemote) Append(_ context.Context, name sheet.Name, row sheet.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, appendedRow{sheet: name, row: row})
	return nil
}

func (f *fakeRemote) fetchedSheets() []sheet.Name {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sheet.Name, len(f.fetched))
	copy(out, f.fetched)
	return out
}

var (
	t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	t1 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
)

func newDeltaFixture(t *testing.T) (*DeltaClient, *memory.SheetStore, *fakeRemote) {
	t.Helper()
	store := memory.NewSheetStore(nil)
	remote := newFakeRemote()
	client := NewDeltaClient(remote, store, nil)
	client.now = func() time.Time { return t1 }
	return client, store, remote
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestSync_MergesChangedRows(t *testing.T) {
	ctx := context.Background()
	client, store, remote := newDeltaFixture(t)
	store.Put(ctx, sheet.Report, []sheet.Row{sheet.RowOf("id", "a", "v", 1)}, t0)
	remote.deltas[sheet.Report] = sheet.Delta{Changed: []sheet.Row{
		sheet.RowOf("id", "a", "v", 2),
		sheet.RowOf("id", "b", "v", 1),
	}}

	res := client.Sync(ctx, sheet.Report)

	require.NoError(t, res.Err)
	assert.True(t, res.HasChanges)
	require.Len(t, res.Rows, 2)
	assert.True(t, sheet.RowOf("id", "a", "v", 2).Equal(res.Rows[0]))
	assert.True(t, sheet.RowOf("id", "b", "v", 1).Equal(res.Rows[1]))
	assert.Equal(t, t0, remote.since[sheet.Report])

	snap := store.Get(ctx, sheet.Report)
	assert.Equal(t, res.Rows, snap.Rows)
	assert.Equal(t, t1, snap.Meta.LastSync)
}

func TestSync_SupervisorEventsAccumulateAcrossDeltas(t *testing.T) {
	ctx := context.Background()
	client, _, remote := newDeltaFixture(t)
	supervisors := []report.Supervisor{{ID: "S1", Name: "فهد"}}

	remote.deltas[sheet.SupervisorAttendance] = sheet.Delta{Changed: []sheet.Row{
		sheet.RowOf(sheet.ColID, "S1", sheet.ColName, "فهد", sheet.ColStatus, "حضور", sheet.ColTime, "2024-05-01T05:00:00.000Z"),
	}}
	require.NoError(t, client.Sync(ctx, sheet.SupervisorAttendance).Err)

	remote.deltas[sheet.SupervisorAttendance] = sheet.Delta{Changed: []sheet.Row{
		sheet.RowOf(sheet.ColID, "S1", sheet.ColName, "فهد", sheet.ColStatus, "انصراف", sheet.ColTime, "2024-05-01T09:00:00.000Z"),
	}}
	res := client.Sync(ctx, sheet.SupervisorAttendance)

	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 2)

	engine := aggregation.NewEngine(aggregation.WithClock(func() time.Time { return t1 }))
	got := engine.SupervisorDailyAttendance(res.Rows, supervisors, engine.Today())
	require.Len(t, got, 1)
	assert.Equal(t, report.Complete, got[0].Status)
}

func TestSync_NetworkFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	client, store, remote := newDeltaFixture(t)
	cached := []sheet.Row{sheet.RowOf("id", "a", "v", 1)}
	store.Put(ctx, sheet.Report, cached, t0)
	remote.errs[sheet.Report] = errors.New("connection reset")

	res := client.Sync(ctx, sheet.Report)

	assert.False(t, res.HasChanges)
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, shared.ErrServiceUnavailable)
	assert.Equal(t, cached, res.Rows)
	assert.Equal(t, t0, store.Get(ctx, sheet.Report).Meta.LastSync)
}

func TestSync_FullSnapshotReplacesCache(t *testing.T) {
	ctx := context.Background()
	client, store, remote := newDeltaFixture(t)
	store.Put(ctx, sheet.Teachers, []sheet.Row{sheet.RowOf("teacher_id", "1")}, t0)
	remote.deltas[sheet.Teachers] = sheet.Delta{
		Full:    true,
		Rows:    []sheet.Row{sheet.RowOf("teacher_id", "2"), sheet.RowOf("teacher_id", "3")},
		Changed: []sheet.Row{sheet.RowOf("teacher_id", "3", "المعلم", "سالم")},
	}

	res := client.Sync(ctx, sheet.Teachers)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2", res.Rows[0].Text("teacher_id"))
	assert.Equal(t, "سالم", res.Rows[1].Text("المعلم"))
}

func TestSync_NoChangesLeavesMarker(t *testing.T) {
	ctx := context.Background()
	client, store, _ := newDeltaFixture(t)
	store.Put(ctx, sheet.Daily, []sheet.Row{sheet.RowOf("id", "a")}, t0)

	res := client.Sync(ctx, sheet.Daily)

	assert.False(t, res.HasChanges)
	assert.NoError(t, res.Err)
	snap := store.Get(ctx, sheet.Daily)
	assert.Equal(t, t0, snap.Meta.LastSync)
	assert.Equal(t, int64(1), snap.Meta.Version)
}

func TestSync_FirstSyncSendsNoMarker(t *testing.T) {
	ctx := context.Background()
	client, _, remote := newDeltaFixture(t)
	remote.deltas[sheet.Exams] = sheet.Delta{Full: true, Rows: []sheet.Row{}}

	res := client.Sync(ctx, sheet.Exams)

	assert.True(t, remote.since[sheet.Exams].IsZero())
	assert.True(t, res.HasChanges)
	assert.Empty(t, res.Rows)
}

func TestSync_StoreDownStillReturnsMergedRows(t *testing.T) {
	ctx := context.Background()
	client, store, remote := newDeltaFixture(t)
	store.SetUnavailable(true)
	remote.deltas[sheet.Report] = sheet.Delta{Changed: []sheet.Row{sheet.RowOf("id", "a")}}

	res := client.Sync(ctx, sheet.Report)

	assert.True(t, res.HasChanges)
	assert.Len(t, res.Rows, 1)

	store.SetUnavailable(false)
	assert.Equal(t, sheet.StatusMissing, store.Get(ctx, sheet.Report).Status)
}
