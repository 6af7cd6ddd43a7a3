package aggregation

import (
	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

const lessonSeparator = ", "

// studentFold groups weekly report rows by (username, week).
//
// Sheet exports spread one student-week over several lines and only the
// first line repeats the identity columns. currentKey carries that identity
// forward: a line without username, name or week continues the group opened
// by the closest preceding complete line. Lines are consumed strictly in
// sheet order.
type studentFold struct {
	currentKey string
	order      []string
	groups     map[string]*report.StudentRecord
}

func newStudentFold() *studentFold {
	return &studentFold{groups: make(map[string]*report.StudentRecord)}
}

func (f *studentFold) step(row sheet.Row) {
	username := row.Text(sheet.ColUsername)
	studentName := normalize.Clean(row.Text(sheet.ColStudent))
	week := normalize.Clean(row.FirstText(sheet.ColWeek, sheet.ColWeekAlt))

	if username != "" && studentName != "" && week != "" {
		f.currentKey = username + "-" + week
	}
	if f.currentKey == "" {
		return
	}

	lines := readStudentLine(row)
	if existing, ok := f.groups[f.currentKey]; ok {
		existing.MemorizationPages = existing.MemorizationPages.Add(lines.mem)
		existing.ReviewPages = existing.ReviewPages.Add(lines.rev)
		existing.ConsolidationPages = existing.ConsolidationPages.Add(lines.con)
		existing.TotalPoints += lines.points
		existing.MemorizationLessons = appendLesson(existing.MemorizationLessons, lines.memLessons)
		existing.ReviewLessons = appendLesson(existing.ReviewLessons, lines.revLessons)
		return
	}

	// A group can only be opened by a complete line.
	if username == "" || studentName == "" || week == "" {
		return
	}

	rec := lines.record(row)
	rec.ID = f.currentKey
	rec.StudentName = studentName
	rec.Username = username
	rec.Period = report.PeriodWeek
	rec.Week = week

	f.order = append(f.order, f.currentKey)
	f.groups[f.currentKey] = &rec
}

func (f *studentFold) result() []report.StudentRecord {
	out := make([]report.StudentRecord, 0, len(f.order))
	for _, key := range f.order {
		out = append(out, finishStudent(*f.groups[key]))
	}
	return out
}

// WeeklyStudents aggregates the weekly report sheet into one record per
// (username, week), in order of first appearance.
func (e *Engine) WeeklyStudents(rows []sheet.Row) []report.StudentRecord {
	fold := newStudentFold()
	for _, row := range rows {
		fold.step(row.CleanLabels())
	}
	return fold.result()
}

// DailyStudents turns every valid line of the daily sheet into its own
// record; daily lines are not grouped.
func (e *Engine) DailyStudents(rows []sheet.Row) []report.StudentRecord {
	out := make([]report.StudentRecord, 0, len(rows))
	for i, raw := range rows {
		row := raw.CleanLabels()
		studentName := normalize.Clean(row.Text(sheet.ColStudent))
		username := row.Text(sheet.ColUsername)
		if studentName == "" || username == "" {
			continue
		}
		day := normalize.Clean(row.Text(sheet.ColDay))

		rec := readStudentLine(row).record(row)
		rec.ID = username + "-" + day + "-" + itoa(i)
		rec.StudentName = studentName
		rec.Username = username
		rec.Period = report.PeriodDay
		rec.Day = day

		out = append(out, finishStudent(rec))
	}
	return out
}

type studentLine struct {
	mem, rev, con          normalize.Achievement
	points                 float64
	memLessons, revLessons string
}

func readStudentLine(row sheet.Row) studentLine {
	return studentLine{
		mem:        normalize.ParseAchievement(row.Value(sheet.ColMemPages)),
		rev:        normalize.ParseAchievement(row.Value(sheet.ColRevPages)),
		con:        normalize.ParseAchievement(row.Value(sheet.ColConPages)),
		points:     normalize.Number(row.Value(sheet.ColPoints)),
		memLessons: normalize.Clean(row.Text(sheet.ColMemLessons)),
		revLessons: normalize.Clean(row.Text(sheet.ColRevLessons)),
	}
}

// record fills the attributes taken from the first line of a group.
func (l studentLine) record(row sheet.Row) report.StudentRecord {
	return report.StudentRecord{
		Circle:              normalize.Clean(row.Text(sheet.ColCircle)),
		CircleTime:          normalize.Clean(row.Text(sheet.ColCircleTime)),
		TeacherName:         normalize.Clean(row.Text(sheet.ColTeacherName)),
		Program:             normalize.Clean(row.Text(sheet.ColProgram)),
		GuardianMobile:      normalize.Clean(row.Text(sheet.ColGuardianMobile)),
		MemorizationLessons: l.memLessons,
		MemorizationPages:   l.mem,
		ReviewLessons:       l.revLessons,
		ReviewPages:         l.rev,
		ConsolidationPages:  l.con,
		Attendance:          normalize.ParsePercentage(row.Value(sheet.ColAttendance)),
		TotalPoints:         l.points,
	}
}

// finishStudent applies the Tabyan rule and recomputes the derived
// achievement fields. Tabyan circles keep their required pages but report
// zero achieved pages.
func finishStudent(rec report.StudentRecord) report.StudentRecord {
	if rec.IsTabyan() {
		rec.MemorizationPages = rec.MemorizationPages.ResetAchieved()
		rec.ReviewPages = rec.ReviewPages.ResetAchieved()
		rec.ConsolidationPages = rec.ConsolidationPages.ResetAchieved()
	}
	rec.MemorizationPages = rec.MemorizationPages.Recompute()
	rec.ReviewPages = rec.ReviewPages.Recompute()
	rec.ConsolidationPages = rec.ConsolidationPages.Recompute()
	return rec
}

func appendLesson(existing, lesson string) string {
	if lesson == "" {
		return existing
	}
	if existing == "" {
		return lesson
	}
	return existing + lessonSeparator + lesson
}
