package sheet

import (
	"errors"
	"fmt"
)

// ErrUnknownSheet is returned when a sheet code is not one the remote serves.
var ErrUnknownSheet = errors.New("sheet: unknown sheet")

// Name is the short code of a remote sheet. The spellings are the remote's
// and must not be corrected ("attandance", "Eval_result").
type Name string

const (
	Report               Name = "report"
	Daily                Name = "daily"
	Attendance           Name = "attandance"
	Teachers             Name = "teachers"
	Supervisors          Name = "supervisor"
	Settings             Name = "setting"
	EvalQuestions        Name = "eval"
	EvalResults          Name = "Eval_result"
	Exams                Name = "exam"
	RegisteredStudents   Name = "regstudent"
	Productors           Name = "productor"
	SupervisorAttendance Name = "respon"
)

var allNames = []Name{
	Report, Daily, Attendance, Teachers, Supervisors, Settings,
	EvalQuestions, EvalResults, Exams, RegisteredStudents, Productors,
	SupervisorAttendance,
}

// All returns every known sheet name.
func All() []Name {
	out := make([]Name, len(allNames))
	copy(out, allNames)
	return out
}

// Valid reports whether n is a known sheet.
func (n Name) Valid() bool {
	for _, known := range allNames {
		if n == known {
			return true
		}
	}
	return false
}

func (n Name) String() string {
	return string(n)
}

// Parse validates s as a sheet name.
func Parse(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSheet, s)
	}
	return n, nil
}

// Column labels as they appear in the sheets' header rows.
const (
	ColID       = "id"
	ColTime     = "time"
	ColStatus   = "status"
	ColName     = "name"
	ColTeacher  = "teacher_id"
	ColNotes    = "ملاحظات"
	ColOpDate   = "تاريخ العملية"
	ColOpTime   = "وقت العملية"
	ColUsername = "اسم المستخدم"
	ColWeek     = "الأسبوع"
	ColWeekAlt  = "الاسبوع"
	ColDay      = "اليوم"
	ColStudent  = "الطالب"
	ColCircle   = "الحلقة"

	ColCircleTime     = "وقت الحلقة"
	ColMemLessons     = "دروس الحفظ"
	ColMemPages       = "أوجه الحفظ"
	ColRevLessons     = "دروس المراجعة"
	ColRevPages       = "أوجه المراجه"
	ColConPages       = "أوجه التثبيت"
	ColTeacherName    = "اسم المعلم"
	ColProgram        = "البرنامج"
	ColAttendance     = "نسبة الحضور"
	ColPoints         = "اجمالي النقاط"
	ColGuardianMobile = "جوال ولي الأمر"

	ColEvalTeacher = "المعلم"
	ColTeacherCirc = "الحلقات"

	ColSupervisorName = "المشرف"
	ColPassword       = "كلمة المرور"

	ColRole         = "role"
	ColProductorPwd = "pwd"

	ColExamName  = "الاختبار  "
	ColExamQ1    = "السؤال الاول"
	ColExamQ2    = "السؤال الثاني"
	ColExamQ3    = "السؤال الثالث"
	ColExamQ4    = "السؤال الرابع"
	ColExamQ5    = "السؤال الخامس"
	ColExamTotal = "إجمالي الدرجة"

	ColSettingNumber           = "الرقم"
	ColDefaultDay              = "اليوم الافتراضي"
	ColTeacherLateCheckIn      = "وقت تأخر حضور المعلمين"
	ColTeacherEarlyCheckOut    = "وقت انصراف مبكر للمعلمين"
	ColSupervisorLateCheckIn   = "وقت تأخر حضور المشرفين"
	ColSupervisorEarlyCheckOut = "وقت انصراف مبكر للمشرفين"

	ColQuestionID   = "id"
	ColQuestionText = "que"
	ColQuestionMark = "mark"
)
