package report

import (
	"errors"
	"fmt"
)

// ErrUnknownPage is returned for a view name no consumer declares.
var ErrUnknownPage = errors.New("report: unknown page")

// Page identifies a consumer view.
type Page string

const (
	PageGeneral                    Page = "general"
	PageStudents                   Page = "students"
	PageCircles                    Page = "circles"
	PageDashboard                  Page = "dashboard"
	PageExcellence                 Page = "excellence"
	PageNotes                      Page = "notes"
	PageStudentFollowUp            Page = "studentFollowUp"
	PageTeacherList                Page = "teacherList"
	PageDailyStudents              Page = "dailyStudents"
	PageDailyCircles               Page = "dailyCircles"
	PageDailyDashboard             Page = "dailyDashboard"
	PageStudentAttendanceReport    Page = "studentAttendanceReport"
	PageStudentAbsenceReport       Page = "studentAbsenceReport"
	PageEvaluation                 Page = "evaluation"
	PageCombinedAttendance         Page = "combinedAttendance"
	PageTeacherAttendanceReport    Page = "teacherAttendanceReport"
	PageSupervisorAttendanceReport Page = "supervisorAttendanceReport"
	PageExam                       Page = "exam"
	PageExamReport                 Page = "examReport"
	PageSettings                   Page = "settings"
)

var allPages = []Page{
	PageGeneral, PageStudents, PageCircles, PageDashboard, PageExcellence,
	PageNotes, PageStudentFollowUp, PageTeacherList, PageDailyStudents,
	PageDailyCircles, PageDailyDashboard, PageStudentAttendanceReport,
	PageStudentAbsenceReport, PageEvaluation, PageCombinedAttendance,
	PageTeacherAttendanceReport, PageSupervisorAttendanceReport, PageExam,
	PageExamReport, PageSettings,
}

// Pages returns every known page.
func Pages() []Page {
	out := make([]Page, len(allPages))
	copy(out, allPages)
	return out
}

// ParsePage validates s as a page name.
func ParsePage(s string) (Page, error) {
	for _, p := range allPages {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPage, s)
}
