// Package timeutil provides calendar helpers for the Asia/Riyadh timezone (UTC+3).
// Attendance days, "today" and report dates are all resolved in this zone.
package timeutil

import (
	"time"
)

// RiyadhTZ is the Asia/Riyadh timezone (UTC+3, no DST).
var RiyadhTZ = time.FixedZone("Asia/Riyadh", 3*60*60)

// DateLayout is the calendar day layout used for attendance keys (en-CA style).
const DateLayout = "2006-01-02"

// ClockLayout is the 24h wall clock layout used for check-in/check-out display.
const ClockLayout = "15:04:05"

// DayString formats t as YYYY-MM-DD in loc.
func DayString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ClockString formats t as HH:MM:SS (24h) in loc.
func ClockString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ClockLayout)
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, loc)
}

// LoadLocation loads name, falling back to RiyadhTZ when the tz database
// is missing from the host.
func LoadLocation(name string) *time.Location {
	if name == "" || name == RiyadhTZ.String() {
		if loc, err := time.LoadLocation("Asia/Riyadh"); err == nil {
			return loc
		}
		return RiyadhTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return RiyadhTZ
	}
	return loc
}
