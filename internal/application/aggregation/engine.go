// Package aggregation turns raw sheet rows into the typed report entities.
//
// Every transform is pure: it reads rows, never mutates them, and produces
// the same output for the same input and clock. The engine is rerun from
// scratch after each sync.
package aggregation

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/timeutil"
)

// Engine runs the sheet transforms. The zero value is not usable; build one
// with NewEngine.
type Engine struct {
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the timezone used for calendar days.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine resolving days in Asia/Riyadh by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		loc:    timeutil.RiyadhTZ,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the engine's calendar timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today returns the current calendar day as YYYY-MM-DD.
func (e *Engine) Today() string {
	return timeutil.DayString(e.now(), e.loc)
}

// Filter narrows the circle level reports.
type Filter struct {
	Week       string
	CircleTime string
	Teacher    string

	// Day selects daily records by their day label, or by calendar date
	// when written as YYYY-MM-DD.
	Day string
}

func (f Filter) match(s report.StudentRecord) bool {
	if f.Week != "" && s.Week != f.Week {
		return false
	}
	if f.Day != "" && !matchDay(f.Day, s.Day) {
		return false
	}
	if f.CircleTime != "" && s.CircleTime != f.CircleTime {
		return false
	}
	if f.Teacher != "" && s.TeacherName != f.Teacher {
		return false
	}
	return true
}

// matchDay compares a day label such as "الأربعاء 01-05" with want. A
// YYYY-MM-DD want matches the label's DD-MM date in want's year.
func matchDay(want, label string) bool {
	if label == want {
		return true
	}
	day, err := timeutil.ParseDay(want, time.UTC)
	if err != nil {
		return false
	}
	return dayLabelDate(label, day.Year()).Equal(day)
}

// Request selects what Build derives beyond the per-sheet entities.
type Request struct {
	Page   report.Page
	Filter Filter

	// AbsenceDays and AbsenceMode drive the student absence report. An empty
	// day list selects every day present in the daily sheet.
	AbsenceDays []string
	AbsenceMode report.AbsenceMode
}

// View is everything a page can render. Only entities whose sheets were
// supplied are populated.
type View struct {
	Page report.Page `json:"page"`

	Students           []report.StudentRecord     `json:"students,omitempty"`
	DailyStudents      []report.StudentRecord     `json:"dailyStudents,omitempty"`
	Teachers           []report.Teacher           `json:"teachers,omitempty"`
	Supervisors        []report.Supervisor        `json:"supervisors,omitempty"`
	Productors         []report.Productor         `json:"productors,omitempty"`
	Settings           *report.Settings           `json:"settings,omitempty"`
	Exams              []report.ExamResult        `json:"exams,omitempty"`
	RegisteredStudents []report.RegisteredStudent `json:"registeredStudents,omitempty"`
	EvalQuestions      []report.EvalQuestion      `json:"evalQuestions,omitempty"`
	Evaluation         *report.EvalReport         `json:"evaluation,omitempty"`

	TeacherAttendance        []report.DailyAttendance   `json:"teacherAttendance,omitempty"`
	TeacherAttendanceLog     []report.AttendanceDay     `json:"teacherAttendanceLog,omitempty"`
	TeacherAttendanceSummary []report.AttendanceSummary `json:"teacherAttendanceSummary,omitempty"`
	SupervisorAttendance     []report.DailyAttendance   `json:"supervisorAttendance,omitempty"`
	SupervisorAttendanceLog  []report.AttendanceDay     `json:"supervisorAttendanceLog,omitempty"`

	Circles    []report.CircleReport    `json:"circles,omitempty"`
	Excellence []report.ExcellenceEntry `json:"excellence,omitempty"`
	General    *report.GeneralStats     `json:"general,omitempty"`
	Absence    []report.AbsenceRow      `json:"absence,omitempty"`
	DayOptions []string                 `json:"dayOptions,omitempty"`
}

// Build runs every transform whose input sheet is present in sheets and
// then the derived reports the requested page needs.
func (e *Engine) Build(req Request, sheets map[sheet.Name][]sheet.Row) View {
	v := View{Page: req.Page}

	if rows, ok := sheets[sheet.Report]; ok {
		v.Students = e.WeeklyStudents(rows)
	}
	if rows, ok := sheets[sheet.Daily]; ok {
		v.DailyStudents = e.DailyStudents(rows)
		v.DayOptions = DayOptions(v.DailyStudents, e.now())
	}
	if rows, ok := sheets[sheet.Teachers]; ok {
		v.Teachers = e.Teachers(rows)
		SortTeachersByName(v.Teachers)
	}
	if rows, ok := sheets[sheet.Supervisors]; ok {
		v.Supervisors = e.Supervisors(rows)
	}
	if rows, ok := sheets[sheet.Productors]; ok {
		v.Productors = e.Productors(rows)
	}
	if rows, ok := sheets[sheet.Settings]; ok {
		settings := e.Settings(rows)
		v.Settings = &settings
	}
	if rows, ok := sheets[sheet.Exams]; ok {
		v.Exams = e.ExamResults(rows)
	}
	if rows, ok := sheets[sheet.RegisteredStudents]; ok {
		v.RegisteredStudents = e.RegisteredStudents(rows)
	}
	if rows, ok := sheets[sheet.EvalQuestions]; ok {
		v.EvalQuestions = e.EvalQuestions(rows)
	}
	if rows, ok := sheets[sheet.EvalResults]; ok && len(v.EvalQuestions) > 0 {
		evaluation := e.Evaluation(rows, v.EvalQuestions)
		v.Evaluation = &evaluation
	}
	if rows, ok := sheets[sheet.Attendance]; ok {
		today := e.Today()
		v.TeacherAttendance = e.TeacherDailyAttendance(rows, v.Teachers, today)
		v.TeacherAttendanceLog = e.TeacherAttendanceHistory(rows, v.Teachers)
	}
	if rows, ok := sheets[sheet.SupervisorAttendance]; ok {
		today := e.Today()
		v.SupervisorAttendance = e.SupervisorDailyAttendance(rows, v.Supervisors, today)
		v.SupervisorAttendanceLog = e.SupervisorAttendanceHistory(rows, v.Supervisors)
	}

	switch req.Page {
	case report.PageCircles, report.PageDashboard:
		v.Circles = e.CircleReports(v.Students, v.Supervisors, req.Filter)
	case report.PageDailyCircles, report.PageDailyDashboard:
		v.Circles = e.CircleReports(v.DailyStudents, v.Supervisors, req.Filter)
	case report.PageExcellence:
		v.Excellence = e.Excellence(v.Students, v.Supervisors, req.Filter)
	case report.PageGeneral:
		stats := e.GeneralStats(v.Students, v.DailyStudents, v.Settings)
		v.General = &stats
	case report.PageTeacherAttendanceReport:
		v.TeacherAttendanceSummary = e.TeacherAttendanceSummary(v.TeacherAttendanceLog)
	case report.PageStudentAbsenceReport:
		days := req.AbsenceDays
		if len(days) == 0 {
			days = v.DayOptions
		}
		v.Absence = e.StudentAbsence(v.DailyStudents, days, req.AbsenceMode)
	}

	e.logger.Debug("aggregation completed",
		slog.String("page", string(req.Page)),
		slog.Int("sheets", len(sheets)),
		slog.Int("students", len(v.Students)),
		slog.Int("daily_students", len(v.DailyStudents)),
	)
	return v
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
