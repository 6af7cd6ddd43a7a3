package sheetsync

import (
	"fmt"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// CoreSheets are read from the cache for every page, whatever it syncs.
var CoreSheets = []sheet.Name{sheet.Settings, sheet.Productors, sheet.Supervisors, sheet.Teachers}

var pageSheets = map[report.Page][]sheet.Name{
	report.PageGeneral: {
		sheet.Report, sheet.Daily, sheet.Settings, sheet.Productors, sheet.Supervisors, sheet.Teachers,
	},

	report.PageStudents:        {sheet.Report},
	report.PageCircles:         {sheet.Report},
	report.PageDashboard:       {sheet.Report},
	report.PageExcellence:      {sheet.Report},
	report.PageNotes:           {sheet.Report},
	report.PageStudentFollowUp: {sheet.Report},
	report.PageTeacherList:     {sheet.Report},

	report.PageDailyStudents:           {sheet.Daily},
	report.PageDailyCircles:            {sheet.Daily},
	report.PageDailyDashboard:          {sheet.Daily},
	report.PageStudentAttendanceReport: {sheet.Daily},
	report.PageStudentAbsenceReport:    {sheet.Daily},

	report.PageEvaluation: {sheet.EvalQuestions, sheet.EvalResults, sheet.Daily},

	report.PageCombinedAttendance:         {sheet.Teachers, sheet.Attendance, sheet.Supervisors, sheet.SupervisorAttendance},
	report.PageTeacherAttendanceReport:    {sheet.Teachers, sheet.Attendance},
	report.PageSupervisorAttendanceReport: {sheet.Supervisors, sheet.SupervisorAttendance},

	report.PageExam:       {sheet.RegisteredStudents, sheet.Exams},
	report.PageExamReport: {sheet.RegisteredStudents, sheet.Exams},

	report.PageSettings: {sheet.Daily, sheet.Settings},
}

// SheetsFor returns the sheets page syncs, in sync order.
func SheetsFor(page report.Page) ([]sheet.Name, error) {
	names, ok := pageSheets[page]
	if !ok {
		return nil, fmt.Errorf("%w: %q", report.ErrUnknownPage, page)
	}
	out := make([]sheet.Name, len(names))
	copy(out, names)
	return out, nil
}

// readSet is the page's sheets followed by the core sheets it does not sync.
func readSet(synced []sheet.Name) []sheet.Name {
	out := make([]sheet.Name, 0, len(synced)+len(CoreSheets))
	seen := make(map[sheet.Name]bool, len(synced)+len(CoreSheets))
	for _, list := range [][]sheet.Name{synced, CoreSheets} {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
