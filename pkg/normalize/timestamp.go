package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinTimestampYear is the earliest year accepted from a sheet. Older values
// come from corrupted cells (Sheets' 1899 epoch, typos) and are discarded.
const MinTimestampYear = 2023

const (
	markerPM = "م"
	markerAM = "ص"
)

var isoDate = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

// genericDateLayouts are tried, in order, when a date cell does not contain
// a YYYY-MM-DD sequence.
var genericDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006/1/2",
	"1/2/2006",
	"1/2/2006 15:04:05",
}

// fallbackLayouts cover the ISO strings written by clients into the "time"
// column.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ResolveTimestamp combines an operation date cell and an operation time cell
// into one UTC instant.
//
// When either cell is missing or unparsable the fallback cell (an ISO
// timestamp) is used instead, provided its year is >= MinTimestampYear.
// A date cell that parses to a year before MinTimestampYear rejects the row
// outright. ok is false when no instant could be resolved.
func ResolveTimestamp(dateValue, timeValue, fallback any) (time.Time, bool) {
	if IsScalar(dateValue) && IsScalar(timeValue) {
		dateStr, timeStr := String(dateValue), String(timeValue)
		if dateStr != "" && timeStr != "" {
			year, month, day, ok := parseDate(dateStr)
			if ok {
				if year < MinTimestampYear {
					return time.Time{}, false
				}
				if hour, minute, second, ok := ParseClock(timeStr); ok {
					return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
				}
			}
		}
	}
	return parseFallback(fallback)
}

// ParseClock reads an "HH:MM[:SS]" wall clock, possibly prefixed by a date
// ("...T10:15:00.000Z", "2024-01-01 10:15") and possibly carrying an Arabic
// AM/PM marker. The 12-hour adjustment only applies when a marker is present.
func ParseClock(s string) (hour, minute, second int, ok bool) {
	s = strings.TrimSpace(s)
	pm, am := false, false
	switch {
	case strings.Contains(s, markerPM):
		pm = true
		s = strings.TrimSpace(strings.ReplaceAll(s, markerPM, ""))
	case strings.Contains(s, markerAM):
		am = true
		s = strings.TrimSpace(strings.ReplaceAll(s, markerAM, ""))
	}

	if i := strings.Index(s, "T"); i >= 0 {
		s = s[i+1:]
		if j := strings.Index(s, "T"); j >= 0 {
			s = s[:j]
		}
	} else if strings.Contains(s, " ") {
		s = s[strings.LastIndex(s, " ")+1:]
	}
	s = strings.Replace(s, "Z", "", 1)
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, 0, false
	}
	nums := make([]int, 0, 3)
	for _, p := range parts {
		n, valid := clockPart(p)
		if !valid {
			return 0, 0, 0, false
		}
		nums = append(nums, n)
	}
	hour, minute = nums[0], nums[1]
	if len(nums) > 2 {
		second = nums[2]
	}

	if pm && hour < 12 {
		hour += 12
	} else if am && hour == 12 {
		hour = 0
	}
	return hour, minute, second, true
}

// DatePrefix returns the YYYY-MM-DD part of a cell that is either exactly a
// date or an ISO timestamp starting with one.
func DatePrefix(v any) (string, bool) {
	s, isText := v.(string)
	if !isText || len(s) < 10 {
		return "", false
	}
	head := s[:10]
	if _, err := time.Parse("2006-01-02", head); err != nil {
		return "", false
	}
	if len(s) == 10 || s[10] == 'T' {
		return head, true
	}
	return "", false
}

func parseDate(s string) (year, month, day int, ok bool) {
	if m := isoDate.FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
		return year, month, day, true
	}
	s = strings.TrimSpace(s)
	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), int(t.Month()), t.Day(), true
		}
	}
	return 0, 0, 0, false
}

func parseFallback(v any) (time.Time, bool) {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() < MinTimestampYear {
				return time.Time{}, false
			}
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// clockPart mirrors numeric coercion of a clock component: surrounding
// whitespace is ignored and an empty part counts as zero.
func clockPart(p string) (int, bool) {
	p = strings.TrimSpace(p)
	if p == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
