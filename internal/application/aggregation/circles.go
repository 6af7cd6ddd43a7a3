package aggregation

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
)

// ═══════════════════════════════════════════════════════════════════════════
// CIRCLE REPORTS
// ═══════════════════════════════════════════════════════════════════════════

// CircleReports aggregates the student records matching f by circle. It
// serves both the weekly and the daily records. Circles are ordered by name
// in Arabic collation.
//
// Tabyan circles report an average index of 1 on every track since their
// page counts are not tracked in the sheet.
func (e *Engine) CircleReports(students []report.StudentRecord, supervisors []report.Supervisor, f Filter) []report.CircleReport {
	supervisorOf := supervisorByCircle(supervisors)

	var order []string
	groups := make(map[string][]report.StudentRecord)
	for _, s := range students {
		if !f.match(s) {
			continue
		}
		if _, ok := groups[s.Circle]; !ok {
			order = append(order, s.Circle)
		}
		groups[s.Circle] = append(groups[s.Circle], s)
	}

	c := collate.New(language.Arabic)
	sort.SliceStable(order, func(i, j int) bool {
		return c.CompareString(order[i], order[j]) < 0
	})

	out := make([]report.CircleReport, 0, len(order))
	for _, circle := range order {
		out = append(out, circleReport(circle, groups[circle], supervisorOf))
	}
	return out
}

func circleReport(circle string, students []report.StudentRecord, supervisorOf map[string]string) report.CircleReport {
	r := report.CircleReport{
		CircleName:     circle,
		TeacherName:    report.Unassigned,
		SupervisorName: report.Unassigned,
		StudentCount:   len(students),
	}
	if len(students) > 0 && students[0].TeacherName != "" {
		r.TeacherName = students[0].TeacherName
	}
	if name, ok := supervisorOf[circle]; ok && name != "" {
		r.SupervisorName = name
	}
	if len(students) == 0 {
		return r
	}

	var memIdx, revIdx, conIdx, attendance float64
	for _, s := range students {
		r.TotalMemorizationAchieved += s.MemorizationPages.Achieved
		r.TotalReviewAchieved += s.ReviewPages.Achieved
		r.TotalConsolidationAchieved += s.ConsolidationPages.Achieved
		r.TotalPoints += s.TotalPoints
		memIdx += s.MemorizationPages.Index
		revIdx += s.ReviewPages.Index
		conIdx += s.ConsolidationPages.Index
		attendance += s.Attendance
	}

	n := float64(len(students))
	r.AvgMemorizationIndex = memIdx / n
	r.AvgReviewIndex = revIdx / n
	r.AvgConsolidationIndex = conIdx / n
	r.AvgAttendance = attendance / n

	if report.IsTabyanCircle(circle) {
		r.AvgMemorizationIndex = 1
		r.AvgReviewIndex = 1
		r.AvgConsolidationIndex = 1
	}
	r.AvgGeneralIndex = (r.AvgMemorizationIndex + r.AvgReviewIndex + r.AvgConsolidationIndex) / 3
	return r
}

// Excellence ranks the afternoon circles by the mean of their memorization
// index and attendance. Tabyan circles are not ranked.
func (e *Engine) Excellence(students []report.StudentRecord, supervisors []report.Supervisor, f Filter) []report.ExcellenceEntry {
	eligible := make([]report.StudentRecord, 0, len(students))
	for _, s := range students {
		if s.CircleTime == report.AsrCircleTime && !s.IsTabyan() {
			eligible = append(eligible, s)
		}
	}

	circles := e.CircleReports(eligible, supervisors, f)
	out := make([]report.ExcellenceEntry, 0, len(circles))
	for _, c := range circles {
		out = append(out, report.ExcellenceEntry{
			CircleReport:    c,
			ExcellenceScore: (c.AvgMemorizationIndex + c.AvgAttendance) / 2,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExcellenceScore > out[j].ExcellenceScore
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// GENERAL STATISTICS
// ═══════════════════════════════════════════════════════════════════════════

var dayMonthPattern = regexp.MustCompile(`(\d{2})-(\d{2})`)

// DayOptions lists the distinct days of the daily records, newest first.
// Day labels carry a DD-MM date read in now's year; labels without one sort
// last.
func DayOptions(daily []report.StudentRecord, now time.Time) []string {
	var days []string
	seen := make(map[string]bool)
	for _, s := range daily {
		if s.Day == "" || seen[s.Day] {
			continue
		}
		seen[s.Day] = true
		days = append(days, s.Day)
	}

	year := now.Year()
	sort.SliceStable(days, func(i, j int) bool {
		return dayLabelDate(days[i], year).After(dayLabelDate(days[j], year))
	})
	return days
}

func dayLabelDate(label string, year int) time.Time {
	m := dayMonthPattern.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// GeneralStats summarizes the institute. Student count and attendance come
// from the daily records of the target day: the configured default day, or
// else the most recent day. Circle count and page totals come from the
// weekly records.
func (e *Engine) GeneralStats(weekly, daily []report.StudentRecord, settings *report.Settings) report.GeneralStats {
	var stats report.GeneralStats

	if settings != nil && settings.DefaultStudentCountDay != "" {
		stats.TargetDay = settings.DefaultStudentCountDay
	} else if days := DayOptions(daily, e.now()); len(days) > 0 {
		stats.TargetDay = days[0]
	}

	names := make(map[string]bool)
	var attendance float64
	var records int
	for _, s := range daily {
		if s.Day != stats.TargetDay {
			continue
		}
		names[s.StudentName] = true
		attendance += s.Attendance
		records++
	}
	stats.TotalStudents = len(names)
	if records > 0 {
		stats.AvgAttendance = attendance / float64(records)
	}

	circles := make(map[string]bool)
	for _, s := range weekly {
		if s.Circle != "" {
			circles[s.Circle] = true
		}
		stats.TotalMemorization += s.MemorizationPages.Achieved
		stats.TotalReview += s.ReviewPages.Achieved
		stats.TotalConsolidation += s.ConsolidationPages.Achieved
	}
	stats.TotalCircles = len(circles)
	stats.TotalAchievement = stats.TotalMemorization + stats.TotalReview + stats.TotalConsolidation
	return stats
}

// ═══════════════════════════════════════════════════════════════════════════
// STUDENT ABSENCE
// ═══════════════════════════════════════════════════════════════════════════

// StudentAbsence marks each student present or absent on the selected days
// and keeps the rows selected by mode. Rows are ordered by student name.
func (e *Engine) StudentAbsence(daily []report.StudentRecord, days []string, mode report.AbsenceMode) []report.AbsenceRow {
	selected := make(map[string]bool, len(days))
	for _, d := range days {
		selected[d] = true
	}

	var order []string
	rows := make(map[string]*report.AbsenceRow)
	for _, s := range daily {
		if !selected[s.Day] {
			continue
		}
		key := s.StudentName + "-" + s.Circle
		row, ok := rows[key]
		if !ok {
			row = &report.AbsenceRow{
				StudentName:    s.StudentName,
				Circle:         s.Circle,
				GuardianMobile: s.GuardianMobile,
				Days:           make(map[string]string),
			}
			rows[key] = row
			order = append(order, key)
		}
		if s.Attendance > 0 {
			row.Days[s.Day] = report.DayPresent
		} else {
			row.Days[s.Day] = report.DayAbsent
		}
	}

	out := make([]report.AbsenceRow, 0, len(order))
	for _, key := range order {
		row := rows[key]
		row.AbsentCount = 0
		for _, mark := range row.Days {
			if mark == report.DayAbsent {
				row.AbsentCount++
			}
		}
		if keepAbsence(mode, row.AbsentCount, len(row.Days)) {
			out = append(out, *row)
		}
	}

	c := collate.New(language.Arabic)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].StudentName, out[j].StudentName) < 0
	})
	return out
}

func keepAbsence(mode report.AbsenceMode, absent, recorded int) bool {
	if absent == 0 {
		return false
	}
	switch mode {
	case report.AbsenceConsecutive:
		return absent == recorded
	case report.AbsenceIntermittent:
		return absent < recorded
	default:
		return true
	}
}
