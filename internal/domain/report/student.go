// Package report holds the typed entities every report view consumes.
// They are produced by the aggregation engine from raw sheet rows and are
// never persisted; each aggregation run recomputes them from scratch.
package report

import (
	"strings"

	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

// Achievement is an achieved/required page count with its completion ratio.
type Achievement = normalize.Achievement

// TabyanMarker marks circles of the Tabyan track, whose page completion is
// tracked outside these sheets.
const TabyanMarker = "التبيان"

// IsTabyanCircle reports whether circle belongs to the Tabyan track.
func IsTabyanCircle(circle string) bool {
	return strings.Contains(circle, TabyanMarker)
}

// Period tells whether a student record covers a week or a single day.
type Period string

const (
	PeriodWeek Period = "week"
	PeriodDay  Period = "day"
)

// StudentRecord is one student's progress for one period.
type StudentRecord struct {
	ID          string `json:"id"`
	StudentName string `json:"studentName"`
	Username    string `json:"username"`
	Circle      string `json:"circle"`
	CircleTime  string `json:"circleTime"`
	TeacherName string `json:"teacherName"`
	Program     string `json:"program"`

	MemorizationLessons string      `json:"memorizationLessons"`
	MemorizationPages   Achievement `json:"memorizationPages"`
	ReviewLessons       string      `json:"reviewLessons"`
	ReviewPages         Achievement `json:"reviewPages"`
	ConsolidationPages  Achievement `json:"consolidationPages"`

	// Attendance is a 0..1 ratio.
	Attendance     float64 `json:"attendance"`
	TotalPoints    float64 `json:"totalPoints"`
	GuardianMobile string  `json:"guardianMobile"`

	Period Period `json:"period"`
	Week   string `json:"week,omitempty"`
	Day    string `json:"day,omitempty"`
}

// IsTabyan reports whether the record belongs to a Tabyan circle.
func (s StudentRecord) IsTabyan() bool {
	return IsTabyanCircle(s.Circle)
}

// PeriodLabel returns the week or the day, whichever the record covers.
func (s StudentRecord) PeriodLabel() string {
	if s.Period == PeriodDay {
		return s.Day
	}
	return s.Week
}

// RegisteredStudent is an entry of the exam registration sheet.
type RegisteredStudent struct {
	StudentName string `json:"studentName"`
	Circle      string `json:"circle"`
}

// ExamResult is one recorded exam grade.
type ExamResult struct {
	StudentName string     `json:"studentName"`
	Circle      string     `json:"circle"`
	ExamName    string     `json:"examName"`
	Questions   [5]float64 `json:"questions"`
	TotalScore  float64    `json:"totalScore"`
}

// AbsenceMode selects which students an absence report keeps.
type AbsenceMode string

const (
	// AbsenceAll keeps every student absent on at least one selected day.
	AbsenceAll AbsenceMode = "all"
	// AbsenceConsecutive keeps students absent on every recorded selected day.
	AbsenceConsecutive AbsenceMode = "consecutive"
	// AbsenceIntermittent keeps students absent on some but not all days.
	AbsenceIntermittent AbsenceMode = "intermittent"
)

// Day attendance marks used by the absence report.
const (
	DayPresent = "حاضر"
	DayAbsent  = "غائب"
)

// AbsenceRow is one student's attendance across the selected days.
type AbsenceRow struct {
	StudentName    string            `json:"studentName"`
	Circle         string            `json:"circle"`
	GuardianMobile string            `json:"guardianMobile"`
	Days           map[string]string `json:"days"`
	AbsentCount    int               `json:"absentCount"`
}
