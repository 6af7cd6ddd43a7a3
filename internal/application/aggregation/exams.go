package aggregation

import (
	"regexp"
	"strings"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

var examQuestionColumns = [5]string{
	sheet.ColExamQ1, sheet.ColExamQ2, sheet.ColExamQ3, sheet.ColExamQ4, sheet.ColExamQ5,
}

// ExamResults reads recorded exam grades. Exam rows keep their labels as
// written; the exam name column carries two trailing spaces in the sheet.
func (e *Engine) ExamResults(rows []sheet.Row) []report.ExamResult {
	out := make([]report.ExamResult, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Text(sheet.ColStudent))
		if name == "" {
			continue
		}
		res := report.ExamResult{
			StudentName: name,
			Circle:      strings.TrimSpace(row.Text(sheet.ColCircle)),
			ExamName:    strings.TrimSpace(row.FirstText(sheet.ColExamName, strings.TrimSpace(sheet.ColExamName))),
			TotalScore:  normalize.Number(row.Value(sheet.ColExamTotal)),
		}
		for i, col := range examQuestionColumns {
			res.Questions[i] = normalize.Number(row.Value(col))
		}
		out = append(out, res)
	}
	return out
}

// RegisteredStudents reads the exam registration sheet.
func (e *Engine) RegisteredStudents(rows []sheet.Row) []report.RegisteredStudent {
	out := make([]report.RegisteredStudent, 0, len(rows))
	for _, row := range rows {
		s := report.RegisteredStudent{
			StudentName: strings.TrimSpace(row.Text(sheet.ColStudent)),
			Circle:      strings.TrimSpace(row.Text(sheet.ColCircle)),
		}
		if s.StudentName == "" || s.Circle == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

var clockPattern = regexp.MustCompile(`\d{2}:\d{2}`)

// Settings reads the singleton settings row. Only the first row counts; time
// cells keep their first HH:MM.
func (e *Engine) Settings(rows []sheet.Row) report.Settings {
	if len(rows) == 0 {
		return report.Settings{}
	}
	row := rows[0].CleanLabels()
	return report.Settings{
		DefaultStudentCountDay:  normalize.Clean(row.Text(sheet.ColDefaultDay)),
		TeacherLateCheckIn:      clockOf(row.Value(sheet.ColTeacherLateCheckIn)),
		TeacherEarlyCheckOut:    clockOf(row.Value(sheet.ColTeacherEarlyCheckOut)),
		SupervisorLateCheckIn:   clockOf(row.Value(sheet.ColSupervisorLateCheckIn)),
		SupervisorEarlyCheckOut: clockOf(row.Value(sheet.ColSupervisorEarlyCheckOut)),
	}
}

func clockOf(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return clockPattern.FindString(s)
}
