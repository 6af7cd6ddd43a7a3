package report

import (
	"fmt"
	"time"
)

// AttendanceState is a person's attendance for one calendar day.
// It only moves forward: NotPresent → CheckedIn → Complete.
type AttendanceState int

const (
	NotPresent AttendanceState = iota
	CheckedIn
	Complete
)

var attendanceLabels = map[AttendanceState]string{
	NotPresent: "لم يحضر",
	CheckedIn:  "حاضر",
	Complete:   "مكتمل الحضور",
}

// Label returns the Arabic status text shown in reports.
func (s AttendanceState) Label() string {
	if l, ok := attendanceLabels[s]; ok {
		return l
	}
	return attendanceLabels[NotPresent]
}

func (s AttendanceState) String() string {
	switch s {
	case NotPresent:
		return "NOT_PRESENT"
	case CheckedIn:
		return "CHECKED_IN"
	case Complete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("AttendanceState(%d)", int(s))
	}
}

// MarshalText renders the Arabic label.
func (s AttendanceState) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

// EventKind classifies a raw attendance event by its status cell.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckIn
	EventCheckOut
)

// ClassifyEvent maps a status cell onto an event kind. Several spellings of
// the check-in status exist in the sheets.
func ClassifyEvent(status string) EventKind {
	switch status {
	case "حضور", "الحض", "الحضور":
		return EventCheckIn
	case "انصراف":
		return EventCheckOut
	default:
		return EventUnknown
	}
}

// Check-in/check-out status values written by the attendance forms.
const (
	StatusCheckIn  = "حضور"
	StatusCheckOut = "انصراف"
)

// DailyAttendance is one roster member's attendance on the target day.
type DailyAttendance struct {
	PersonID string          `json:"personId"`
	Name     string          `json:"name"`
	CheckIn  *time.Time      `json:"checkIn"`
	CheckOut *time.Time      `json:"checkOut"`
	Status   AttendanceState `json:"status"`
	Notes    string          `json:"notes,omitempty"`
}

// AttendanceDay is one person's first check-in and last check-out on one
// calendar day of the retained history. Times are HH:MM:SS in the report
// timezone; an empty string means no such event.
type AttendanceDay struct {
	ID           string `json:"id"`
	PersonID     string `json:"personId"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	CheckInTime  string `json:"checkInTime,omitempty"`
	CheckOutTime string `json:"checkOutTime,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Absent reports whether the day has neither a check-in nor a check-out.
func (d AttendanceDay) Absent() bool {
	return d.CheckInTime == "" && d.CheckOutTime == ""
}

// AttendanceSummary totals a person's present and absent days.
type AttendanceSummary struct {
	PersonID       string   `json:"personId"`
	Name           string   `json:"name"`
	PresentDays    int      `json:"presentDays"`
	AbsentDays     int      `json:"absentDays"`
	AttendanceRate float64  `json:"attendanceRate"`
	PresentDates   []string `json:"presentDates"`
	AbsentDates    []string `json:"absentDates"`
}
