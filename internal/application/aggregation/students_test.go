package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

func weeklyRow(username, week, name, circle, mem string) sheet.Row {
	return sheet.RowOf(
		sheet.ColUsername, username,
		sheet.ColWeek, week,
		sheet.ColStudent, name,
		sheet.ColCircle, circle,
		sheet.ColMemPages, mem,
	)
}

func TestWeeklyStudents_CarriesIdentityForward(t *testing.T) {
	e := NewEngine()
	rows := []sheet.Row{
		weeklyRow("1", "W1", "A", "النور", "5%10"),
		sheet.RowOf(sheet.ColMemPages, "3%10"),
	}

	got := e.WeeklyStudents(rows)

	require.Len(t, got, 1)
	assert.Equal(t, "1-W1", got[0].ID)
	assert.Equal(t, 8.0, got[0].MemorizationPages.Achieved)
	assert.Equal(t, 20.0, got[0].MemorizationPages.Required)
	assert.Equal(t, "8.0 / 20.0", got[0].MemorizationPages.Formatted)
	assert.InDelta(t, 0.4, got[0].MemorizationPages.Index, 1e-9)
}

func TestWeeklyStudents_ContinuationFollowsLatestIdentity(t *testing.T) {
	e := NewEngine()
	rows := []sheet.Row{
		weeklyRow("1", "W1", "A", "النور", "5%10"),
		weeklyRow("2", "W1", "B", "النور", "1%10"),
		sheet.RowOf(sheet.ColMemPages, "4%10"),
		weeklyRow("1", "W1", "A", "النور", "2%10"),
	}

	got := e.WeeklyStudents(rows)

	require.Len(t, got, 2)
	assert.Equal(t, "1-W1", got[0].ID)
	assert.Equal(t, 7.0, got[0].MemorizationPages.Achieved)
	assert.Equal(t, "2-W1", got[1].ID)
	assert.Equal(t, 5.0, got[1].MemorizationPages.Achieved)
}

func TestWeeklyStudents_SkipsLeadingContinuation(t *testing.T) {
	e := NewEngine()
	rows := []sheet.Row{
		sheet.RowOf(sheet.ColMemPages, "3%10"),
		weeklyRow("1", "W1", "A", "النور", "5%10"),
	}

	got := e.WeeklyStudents(rows)

	require.Len(t, got, 1)
	assert.Equal(t, 5.0, got[0].MemorizationPages.Achieved)
}

func TestWeeklyStudents_UsesAlternateWeekColumnAndCleansLabels(t *testing.T) {
	e := NewEngine()
	rows := []sheet.Row{
		sheet.RowOf(
			" "+sheet.ColUsername+" ", "9",
			sheet.ColWeekAlt, "الأسبوع 3",
			sheet.ColStudent, "  سعد   محمد ",
		),
	}

	got := e.WeeklyStudents(rows)

	require.Len(t, got, 1)
	assert.Equal(t, "9-الأسبوع 3", got[0].ID)
	assert.Equal(t, "سعد محمد", got[0].StudentName)
	assert.Equal(t, report.PeriodWeek, got[0].Period)
}

func TestWeeklyStudents_MergesLessonsPointsAndKeepsFirstAttendance(t *testing.T) {
	e := NewEngine()
	first := weeklyRow("1", "W1", "A", "النور", "1%2").
		With(sheet.ColMemLessons, "البقرة").
		With(sheet.ColPoints, 3).
		With(sheet.ColAttendance, "80%")
	second := sheet.RowOf(
		sheet.ColMemLessons, "آل عمران",
		sheet.ColPoints, "2",
		sheet.ColAttendance, "10%",
	)

	got := e.WeeklyStudents([]sheet.Row{first, second})

	require.Len(t, got, 1)
	assert.Equal(t, "البقرة, آل عمران", got[0].MemorizationLessons)
	assert.Equal(t, 5.0, got[0].TotalPoints)
	assert.InDelta(t, 0.8, got[0].Attendance, 1e-9)
}

func TestWeeklyStudents_TabyanKeepsRequiredOnly(t *testing.T) {
	e := NewEngine()
	rows := []sheet.Row{
		weeklyRow("1", "W1", "A", "حلقة التبيان", "5%10"),
		sheet.RowOf(sheet.ColMemPages, "3%10"),
	}

	got := e.WeeklyStudents(rows)

	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].MemorizationPages.Achieved)
	assert.Equal(t, 20.0, got[0].MemorizationPages.Required)
	assert.Equal(t, 0.0, got[0].MemorizationPages.Index)
}

func TestDailyStudents_OneRecordPerRow(t *testing.T) {
	e := NewEngine()
	rows := []sheet.Row{
		sheet.RowOf(sheet.ColUsername, "1", sheet.ColStudent, "A", sheet.ColDay, "الأحد 05-05", sheet.ColMemPages, "2%4"),
		sheet.RowOf(sheet.ColMemPages, "1%4"),
		sheet.RowOf(sheet.ColUsername, "1", sheet.ColStudent, "A", sheet.ColDay, "الاثنين 06-05"),
		sheet.RowOf(sheet.ColUsername, "2", sheet.ColStudent, "B", sheet.ColDay, "التبيان", sheet.ColCircle, "التبيان", sheet.ColMemPages, "3%4"),
	}

	got := e.DailyStudents(rows)

	require.Len(t, got, 3)
	assert.Equal(t, "1-الأحد 05-05-0", got[0].ID)
	assert.Equal(t, 2.0, got[0].MemorizationPages.Achieved)
	assert.Equal(t, "1-الاثنين 06-05-2", got[1].ID)
	assert.Equal(t, report.PeriodDay, got[1].Period)
	assert.Equal(t, 0.0, got[2].MemorizationPages.Achieved)
	assert.Equal(t, 4.0, got[2].MemorizationPages.Required)
}

func TestDailyStudents_DoesNotMutateInput(t *testing.T) {
	e := NewEngine()
	row := sheet.RowOf(" "+sheet.ColStudent, "A", sheet.ColUsername, "1")
	rows := []sheet.Row{row}

	_ = e.DailyStudents(rows)

	assert.Equal(t, []string{" " + sheet.ColStudent, sheet.ColUsername}, rows[0].Labels())
}
