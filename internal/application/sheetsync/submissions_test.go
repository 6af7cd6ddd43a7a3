package sheetsync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/shared"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

func TestTeacherAttendance(t *testing.T) {
	at := time.Date(2024, 5, 1, 5, 4, 3, 0, time.FixedZone("AST", 3*3600))

	sub, err := TeacherAttendance(12, " خالد ", "الحضور", at)

	require.NoError(t, err)
	assert.Equal(t, sheet.Attendance, sub.Sheet)
	assert.Equal(t, report.PageTeacherAttendanceReport, sub.Page)
	assert.Equal(t, []string{"teacher_id", "name", "status", "time"}, sub.Row.Labels())
	assert.Equal(t, json.Number("12"), sub.Row.Value("teacher_id"))
	assert.Equal(t, "خالد", sub.Row.Text("name"))
	assert.Equal(t, report.StatusCheckIn, sub.Row.Text("status"))
	assert.Equal(t, "2024-05-01T02:04:03.000Z", sub.Row.Text("time"))
}

func TestTeacherAttendance_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		id     int
		person string
		action string
	}{
		{"zero id", 0, "خالد", "حضور"},
		{"blank name", 3, "  ", "حضور"},
		{"unknown action", 3, "خالد", "غياب"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TeacherAttendance(tc.id, tc.person, tc.action, time.Now())
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.ErrorIs(t, err, shared.ErrInvalidSubmission)
		})
	}
}

func TestSupervisorAttendance(t *testing.T) {
	sub, err := SupervisorAttendance("s1", "عمر", "انصراف", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, sheet.SupervisorAttendance, sub.Sheet)
	assert.Equal(t, []string{"id", "name", "status", "time"}, sub.Row.Labels())
	assert.Equal(t, report.StatusCheckOut, sub.Row.Text("status"))
	assert.Equal(t, "تم تسجيل انصراف للمشرف", sub.Success)
}

func TestEvaluationResult(t *testing.T) {
	sub, err := EvaluationResult("خالد", "الفجر", []Score{
		{Question: "التحضير", Mark: 4},
		{Question: "الانضباط", Mark: 2.5},
	})

	require.NoError(t, err)
	assert.Equal(t, sheet.EvalResults, sub.Sheet)
	assert.Equal(t, []string{"المعلم", "الحلقة", "التحضير", "الانضباط"}, sub.Row.Labels())
	assert.Equal(t, json.Number("2.5"), sub.Row.Value("الانضباط"))

	_, err = EvaluationResult("خالد", "الفجر", nil)
	assert.True(t, shared.IsValidation(err))
	_, err = EvaluationResult("خالد", "الفجر", []Score{{Question: "x", Mark: -1}})
	assert.True(t, shared.IsValidation(err))
}

func TestExamGrade_ComputesTotal(t *testing.T) {
	sub, err := ExamGrade("علي", "الفجر", "جزء عم", [5]float64{10, 9.5, 8, 7, 6})

	require.NoError(t, err)
	assert.Equal(t, sheet.Exams, sub.Sheet)
	assert.Equal(t, json.Number("40.5"), sub.Row.Value(sheet.ColExamTotal))
	assert.Equal(t, "جزء عم", sub.Row.Text(sheet.ColExamName))

	_, err = ExamGrade("علي", "الفجر", "", [5]float64{})
	assert.True(t, shared.IsValidation(err))
}

func TestSettingsUpdate(t *testing.T) {
	sub, err := SettingsUpdate(report.Settings{DefaultStudentCountDay: "01-05", TeacherLateCheckIn: "16:15"})

	require.NoError(t, err)
	assert.Equal(t, sheet.Settings, sub.Sheet)
	assert.Equal(t, report.PageSettings, sub.Page)
	assert.Equal(t, json.Number("1"), sub.Row.Value(sheet.ColSettingNumber))
	assert.Equal(t, "16:15", sub.Row.Text(sheet.ColTeacherLateCheckIn))
}
