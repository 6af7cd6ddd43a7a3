package sheetsync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/shared"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// timestampLayout matches what the forms have always written into the time
// column.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Submission is one form row bound for a sheet, with the page to re-sync
// afterwards and the messages shown for either outcome.
type Submission struct {
	Sheet   sheet.Name
	Row     sheet.Row
	Page    report.Page
	Success string
	Failure string
}

func invalid(op, message string) error {
	return shared.WrapError("submission", op, shared.ErrValidation, message, shared.ErrInvalidSubmission)
}

func number(v float64) json.Number {
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
}

// attendanceStatus accepts any known spelling and returns the canonical one.
func attendanceStatus(action string) (string, bool) {
	switch report.ClassifyEvent(strings.TrimSpace(action)) {
	case report.EventCheckIn:
		return report.StatusCheckIn, true
	case report.EventCheckOut:
		return report.StatusCheckOut, true
	default:
		return "", false
	}
}

// TeacherAttendance records a teacher check-in or check-out at at.
func TeacherAttendance(teacherID int, name, action string, at time.Time) (Submission, error) {
	const op = "TeacherAttendance"
	status, ok := attendanceStatus(action)
	switch {
	case teacherID <= 0:
		return Submission{}, invalid(op, "teacher id must be positive")
	case strings.TrimSpace(name) == "":
		return Submission{}, invalid(op, "teacher name is required")
	case !ok:
		return Submission{}, invalid(op, fmt.Sprintf("unknown attendance action %q", action))
	}

	return Submission{
		Sheet: sheet.Attendance,
		Row: sheet.RowOf(
			sheet.ColTeacher, json.Number(strconv.Itoa(teacherID)),
			sheet.ColName, strings.TrimSpace(name),
			sheet.ColStatus, status,
			sheet.ColTime, at.UTC().Format(timestampLayout),
		),
		Page:    report.PageTeacherAttendanceReport,
		Success: fmt.Sprintf("تم تسجيل %s للمعلم %s", status, strings.TrimSpace(name)),
		Failure: "فشل التسجيل.",
	}, nil
}

// SupervisorAttendance records a supervisor check-in or check-out at at.
func SupervisorAttendance(id, name, action string, at time.Time) (Submission, error) {
	const op = "SupervisorAttendance"
	status, ok := attendanceStatus(action)
	switch {
	case strings.TrimSpace(id) == "":
		return Submission{}, invalid(op, "supervisor id is required")
	case strings.TrimSpace(name) == "":
		return Submission{}, invalid(op, "supervisor name is required")
	case !ok:
		return Submission{}, invalid(op, fmt.Sprintf("unknown attendance action %q", action))
	}

	return Submission{
		Sheet: sheet.SupervisorAttendance,
		Row: sheet.RowOf(
			sheet.ColID, strings.TrimSpace(id),
			sheet.ColName, strings.TrimSpace(name),
			sheet.ColStatus, status,
			sheet.ColTime, at.UTC().Format(timestampLayout),
		),
		Page:    report.PageSupervisorAttendanceReport,
		Success: fmt.Sprintf("تم تسجيل %s للمشرف", status),
		Failure: "فشل التسجيل.",
	}, nil
}

// Score is one answered evaluation question.
type Score struct {
	Question string
	Mark     float64
}

// EvaluationResult records a circle evaluation. Each score lands in the
// column named after its question.
func EvaluationResult(teacher, circle string, scores []Score) (Submission, error) {
	const op = "EvaluationResult"
	switch {
	case strings.TrimSpace(teacher) == "":
		return Submission{}, invalid(op, "teacher is required")
	case strings.TrimSpace(circle) == "":
		return Submission{}, invalid(op, "circle is required")
	case len(scores) == 0:
		return Submission{}, invalid(op, "at least one score is required")
	}

	fields := []sheet.Field{
		{Label: sheet.ColEvalTeacher, Value: strings.TrimSpace(teacher)},
		{Label: sheet.ColCircle, Value: strings.TrimSpace(circle)},
	}
	for _, s := range scores {
		if strings.TrimSpace(s.Question) == "" {
			return Submission{}, invalid(op, "score without question")
		}
		if s.Mark < 0 {
			return Submission{}, invalid(op, fmt.Sprintf("negative mark for %q", s.Question))
		}
		fields = append(fields, sheet.Field{Label: s.Question, Value: number(s.Mark)})
	}

	return Submission{
		Sheet:   sheet.EvalResults,
		Row:     sheet.NewRow(fields...),
		Page:    report.PageEvaluation,
		Success: "تم إرسال التقييم بنجاح!",
		Failure: "فشل الإرسال.",
	}, nil
}

// ExamGrade records the five question marks of an exam. The total is
// computed here.
func ExamGrade(student, circle, exam string, marks [5]float64) (Submission, error) {
	const op = "ExamGrade"
	switch {
	case strings.TrimSpace(student) == "":
		return Submission{}, invalid(op, "student is required")
	case strings.TrimSpace(circle) == "":
		return Submission{}, invalid(op, "circle is required")
	case strings.TrimSpace(exam) == "":
		return Submission{}, invalid(op, "exam is required")
	}

	var total float64
	for _, m := range marks {
		if m < 0 {
			return Submission{}, invalid(op, "marks cannot be negative")
		}
		total += m
	}

	return Submission{
		Sheet: sheet.Exams,
		Row: sheet.RowOf(
			sheet.ColStudent, strings.TrimSpace(student),
			sheet.ColCircle, strings.TrimSpace(circle),
			sheet.ColExamName, strings.TrimSpace(exam),
			sheet.ColExamQ1, number(marks[0]),
			sheet.ColExamQ2, number(marks[1]),
			sheet.ColExamQ3, number(marks[2]),
			sheet.ColExamQ4, number(marks[3]),
			sheet.ColExamQ5, number(marks[4]),
			sheet.ColExamTotal, number(total),
		),
		Page:    report.PageExam,
		Success: "تم رصد الدرجة بنجاح!",
		Failure: "فشل الإرسال.",
	}, nil
}

// SettingsUpdate overwrites the single settings row.
func SettingsUpdate(s report.Settings) (Submission, error) {
	return Submission{
		Sheet: sheet.Settings,
		Row: sheet.RowOf(
			sheet.ColSettingNumber, json.Number("1"),
			sheet.ColDefaultDay, s.DefaultStudentCountDay,
			sheet.ColTeacherLateCheckIn, s.TeacherLateCheckIn,
			sheet.ColTeacherEarlyCheckOut, s.TeacherEarlyCheckOut,
			sheet.ColSupervisorLateCheckIn, s.SupervisorLateCheckIn,
			sheet.ColSupervisorEarlyCheckOut, s.SupervisorEarlyCheckOut,
		),
		Page:    report.PageSettings,
		Success: "تم حفظ الإعدادات!",
		Failure: "فشل الحفظ.",
	}, nil
}
