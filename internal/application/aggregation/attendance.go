package aggregation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
	"github.com/halaqat-hub/halaqat-reports/pkg/timeutil"
)

const noteSeparator = "، "

// attendanceEvent is one check-in or check-out line with a resolved instant.
type attendanceEvent struct {
	personID string
	at       time.Time
	kind     report.EventKind
	note     string
	opDate   any
}

// events resolves the timestamp of every row and drops rows without one.
// idLabel names the column holding the person id.
func (e *Engine) events(rows []sheet.Row, idLabel string) []attendanceEvent {
	out := make([]attendanceEvent, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		id := strings.TrimSpace(row.Text(idLabel))
		if id == "" {
			continue
		}
		at, ok := normalize.ResolveTimestamp(row.Value(sheet.ColOpDate), row.Value(sheet.ColOpTime), row.Value(sheet.ColTime))
		if !ok {
			dropped++
			continue
		}
		out = append(out, attendanceEvent{
			personID: id,
			at:       at,
			kind:     report.ClassifyEvent(strings.TrimSpace(row.Text(sheet.ColStatus))),
			note:     normalize.Clean(row.Text(sheet.ColNotes)),
			opDate:   row.Value(sheet.ColOpDate),
		})
	}
	if dropped > 0 {
		e.logger.Debug("attendance rows without timestamp dropped", "count", dropped)
	}
	return out
}

// dayTracker follows one person through one calendar day. It keeps the
// earliest check-in and the latest check-out seen so far; both only move
// outward, so the derived state never regresses.
type dayTracker struct {
	checkIn  *attendanceEvent
	checkOut *attendanceEvent
	notes    []string
}

func (d *dayTracker) apply(ev attendanceEvent) {
	switch ev.kind {
	case report.EventCheckIn:
		if d.checkIn == nil || ev.at.Before(d.checkIn.at) {
			evCopy := ev
			d.checkIn = &evCopy
		}
	case report.EventCheckOut:
		if d.checkOut == nil || ev.at.After(d.checkOut.at) {
			evCopy := ev
			d.checkOut = &evCopy
		}
	}
	if ev.note != "" && !containsString(d.notes, ev.note) {
		d.notes = append(d.notes, ev.note)
	}
}

// state is COMPLETE once a check-out is later than the earliest check-in.
// A check-out without a check-in is kept as data but leaves NotPresent.
func (d *dayTracker) state() report.AttendanceState {
	switch {
	case d.checkIn == nil:
		return report.NotPresent
	case d.checkOut != nil && d.checkOut.at.After(d.checkIn.at):
		return report.Complete
	default:
		return report.CheckedIn
	}
}

// winningNotes joins the notes of the events that decided the day.
func (d *dayTracker) winningNotes() string {
	var parts []string
	if d.checkIn != nil && d.checkIn.note != "" {
		parts = append(parts, d.checkIn.note)
	}
	if d.checkOut != nil && d.checkOut.note != "" && !containsString(parts, d.checkOut.note) {
		parts = append(parts, d.checkOut.note)
	}
	return strings.Join(parts, noteSeparator)
}

func (d *dayTracker) times() (checkIn, checkOut *time.Time) {
	if d.checkIn != nil {
		t := d.checkIn.at
		checkIn = &t
	}
	if d.checkOut != nil {
		t := d.checkOut.at
		checkOut = &t
	}
	return checkIn, checkOut
}

type rosterEntry struct {
	id, name string
}

// dailyAttendance returns one entry per roster member for day, in roster
// order. Members without events are NotPresent.
func (e *Engine) dailyAttendance(events []attendanceEvent, roster []rosterEntry, day string, withNotes bool) []report.DailyAttendance {
	trackers := make(map[string]*dayTracker, len(roster))
	for _, ev := range events {
		if timeutil.DayString(ev.at, e.loc) != day {
			continue
		}
		t, ok := trackers[ev.personID]
		if !ok {
			t = &dayTracker{}
			trackers[ev.personID] = t
		}
		t.apply(ev)
	}

	out := make([]report.DailyAttendance, 0, len(roster))
	for _, member := range roster {
		entry := report.DailyAttendance{PersonID: member.id, Name: member.name, Status: report.NotPresent}
		if t, ok := trackers[member.id]; ok {
			entry.CheckIn, entry.CheckOut = t.times()
			entry.Status = t.state()
			if withNotes {
				entry.Notes = t.winningNotes()
			}
		}
		out = append(out, entry)
	}
	return out
}

// TeacherDailyAttendance computes every roster teacher's status on day
// (YYYY-MM-DD in the engine's timezone).
func (e *Engine) TeacherDailyAttendance(rows []sheet.Row, teachers []report.Teacher, day string) []report.DailyAttendance {
	roster := make([]rosterEntry, 0, len(teachers))
	for _, t := range teachers {
		roster = append(roster, rosterEntry{id: t.ID, name: t.Name})
	}
	return e.dailyAttendance(e.events(rows, sheet.ColTeacher), roster, day, true)
}

// SupervisorDailyAttendance computes every supervisor's status on day.
func (e *Engine) SupervisorDailyAttendance(rows []sheet.Row, supervisors []report.Supervisor, day string) []report.DailyAttendance {
	roster := make([]rosterEntry, 0, len(supervisors))
	for _, s := range supervisors {
		roster = append(roster, rosterEntry{id: s.ID, name: s.Name})
	}
	return e.dailyAttendance(e.events(rows, sheet.ColID), roster, day, false)
}

// historyOptions differ between the teacher and the supervisor logs.
type historyOptions struct {
	// literalDate prefers a YYYY-MM-DD operation date cell over the
	// calendar day of the resolved instant.
	literalDate  bool
	fallbackName string
	names        map[string]string
}

// history groups events into one AttendanceDay per (person, date), newest
// date first.
func (e *Engine) history(events []attendanceEvent, opts historyOptions) []report.AttendanceDay {
	type group struct {
		personID, date string
		tracker        dayTracker
	}

	var order []string
	groups := make(map[string]*group)

	for _, ev := range events {
		date := ""
		if opts.literalDate {
			date, _ = normalize.DatePrefix(ev.opDate)
		}
		if date == "" {
			date = timeutil.DayString(ev.at, e.loc)
		}

		key := ev.personID + "/" + date
		g, ok := groups[key]
		if !ok {
			g = &group{personID: ev.personID, date: date}
			groups[key] = g
			order = append(order, key)
		}
		g.tracker.apply(ev)
	}

	out := make([]report.AttendanceDay, 0, len(order))
	for _, key := range order {
		g := groups[key]
		name, ok := opts.names[g.personID]
		if !ok || name == "" {
			name = fmt.Sprintf(opts.fallbackName, g.personID)
		}

		day := report.AttendanceDay{
			ID:       key,
			PersonID: g.personID,
			Name:     name,
			Date:     g.date,
			Notes:    strings.Join(g.tracker.notes, noteSeparator),
		}
		if g.tracker.checkIn != nil {
			day.CheckInTime = timeutil.ClockString(g.tracker.checkIn.at, e.loc)
		}
		if g.tracker.checkOut != nil {
			day.CheckOutTime = timeutil.ClockString(g.tracker.checkOut.at, e.loc)
		}
		out = append(out, day)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// TeacherAttendanceHistory lists each teacher's first check-in and last
// check-out per day.
func (e *Engine) TeacherAttendanceHistory(rows []sheet.Row, teachers []report.Teacher) []report.AttendanceDay {
	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.Name
	}
	return e.history(e.events(rows, sheet.ColTeacher), historyOptions{
		literalDate:  true,
		fallbackName: "المعلم #%s",
		names:        names,
	})
}

// SupervisorAttendanceHistory lists each supervisor's first check-in and
// last check-out per day.
func (e *Engine) SupervisorAttendanceHistory(rows []sheet.Row, supervisors []report.Supervisor) []report.AttendanceDay {
	names := make(map[string]string, len(supervisors))
	for _, s := range supervisors {
		names[s.ID] = s.Name
	}
	return e.history(e.events(rows, sheet.ColID), historyOptions{
		fallbackName: "مشرف #%s",
		names:        names,
	})
}

// TeacherAttendanceSummary counts present and absent days per teacher from
// the history log, ordered by teacher id.
func (e *Engine) TeacherAttendanceSummary(history []report.AttendanceDay) []report.AttendanceSummary {
	var order []string
	byID := make(map[string]*report.AttendanceSummary)

	for _, day := range history {
		s, ok := byID[day.PersonID]
		if !ok {
			s = &report.AttendanceSummary{PersonID: day.PersonID, Name: day.Name}
			byID[day.PersonID] = s
			order = append(order, day.PersonID)
		}
		if day.Absent() {
			if !containsString(s.AbsentDates, day.Date) {
				s.AbsentDates = append(s.AbsentDates, day.Date)
			}
			continue
		}
		if !containsString(s.PresentDates, day.Date) {
			s.PresentDates = append(s.PresentDates, day.Date)
		}
	}

	out := make([]report.AttendanceSummary, 0, len(order))
	for _, id := range order {
		s := byID[id]
		s.PresentDays = len(s.PresentDates)
		s.AbsentDays = len(s.AbsentDates)
		if total := s.PresentDays + s.AbsentDays; total > 0 {
			s.AttendanceRate = float64(s.PresentDays) / float64(total)
		}
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessID(out[i].PersonID, out[j].PersonID)
	})
	return out
}

// lessID orders numeric ids numerically and everything else as text.
func lessID(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
