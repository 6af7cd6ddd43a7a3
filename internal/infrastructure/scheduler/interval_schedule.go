package scheduler

import (
	"fmt"
	"time"
)

// MinInterval is the shortest interval NewIntervalSchedule accepts.
const MinInterval = time.Second

// IntervalSchedule runs a job every Interval, measured from the previous start.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates an IntervalSchedule, clamping the interval to
// MinInterval.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}
