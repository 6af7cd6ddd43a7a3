package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// String renders a cell value the way the sheet shows it. nil renders as "".
// Objects and arrays render as "" too: they are never meaningful cell text.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// IsScalar reports whether v is a plain cell value (text, number or bool).
func IsScalar(v any) bool {
	switch v.(type) {
	case string, json.Number, float64, float32, int, int64, int32, bool:
		return true
	default:
		return false
	}
}

// Truthy reports whether v counts as "present": not nil, not empty text,
// not zero, not false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number, float64, float32, int, int64, int32:
		f, ok := numeric(x)
		return ok && f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

// Number coerces v into a float, returning 0 for anything that is not a
// whole numeric literal ("12", " 7.5 ", 3). Empty text is 0.
func Number(v any) float64 {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	f, ok := numeric(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseFloatPrefix parses the longest numeric prefix of s after leading
// whitespace: "12 pages" gives 12. ok is false when no digits lead s.
func ParseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParsePercentage turns an attendance cell into a 0..1 ratio.
// "85%" and 85 both give 0.85; 0.85 is returned unchanged; junk gives 0.
func ParsePercentage(v any) float64 {
	switch v.(type) {
	case json.Number, float64, float32, int, int64, int32:
		f := Number(v)
		if f > 1 {
			return f / 100
		}
		return f
	}

	s := strings.TrimSpace(String(v))
	if s == "" {
		return 0
	}
	if strings.HasSuffix(s, "%") {
		f, _ := ParseFloatPrefix(strings.TrimSuffix(s, "%"))
		return f / 100
	}
	f, ok := ParseFloatPrefix(s)
	if !ok {
		return 0
	}
	if f > 1 {
		return f / 100
	}
	return f
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
