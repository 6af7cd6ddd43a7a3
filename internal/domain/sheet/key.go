package sheet

import (
	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

// KeyFor returns the identity key of row within sheet name. The first
// matching rule wins:
//
//  1. attendance logs: person-date-time of the operation, where the person
//     is teacher_id, else id, and rows without operation columns use their
//     recorded time;
//  2. a truthy "id" column, verbatim;
//  3. weekly report: username-week;
//  4. daily report: username-day;
//  5. teacher roster: teacher_id;
//  6. supervisor roster: id;
//  7. evaluation results: teacher-circle;
//  8. otherwise the row's canonical JSON, which only matches identical rows.
//
// Attendance events are append-only, so a log row is never keyed by the
// person alone: an id there names the person, not the event.
//
// KeyFor is pure: the same row always yields the same key, and columns the
// rule does not read never influence it.
func KeyFor(name Name, row Row) string {
	if name == Attendance || name == SupervisorAttendance {
		return eventKey(row)
	}
	if row.Has(ColID) {
		return row.Text(ColID)
	}

	switch name {
	case Report:
		return row.Text(ColUsername) + "-" + weekOf(row)
	case Daily:
		return row.Text(ColUsername) + "-" + normalize.Clean(row.Text(ColDay))
	case Teachers:
		return row.Text(ColTeacher)
	case Supervisors:
		return row.Text(ColID)
	case EvalResults:
		return row.Text(ColEvalTeacher) + "-" + row.Text(ColCircle)
	}

	return fallbackKey(row)
}

// IsDegenerateKey reports whether rows of sheet name only get the
// whole-row fallback key, which disables identity-based merging.
func IsDegenerateKey(name Name, row Row) bool {
	if row.Has(ColID) {
		return false
	}
	switch name {
	case Report, Daily, Attendance, SupervisorAttendance, Teachers, Supervisors, EvalResults:
		return false
	}
	return true
}

func eventKey(row Row) string {
	person := row.FirstText(ColTeacher, ColID)
	if !row.Has(ColOpDate) && !row.Has(ColOpTime) {
		return person + "-" + row.Text(ColTime)
	}
	return person + "-" + row.Text(ColOpDate) + "-" + row.Text(ColOpTime)
}

func weekOf(row Row) string {
	return normalize.Clean(row.FirstText(ColWeek, ColWeekAlt))
}

func fallbackKey(row Row) string {
	b, err := row.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
