package normalize

import (
	"fmt"
	"strings"
)

// Achievement is an achieved/required page count with its completion ratio.
// Formatted and Index are derived; use NewAchievement or Recompute after
// changing the counts.
type Achievement struct {
	Achieved  float64 `json:"achieved"`
	Required  float64 `json:"required"`
	Formatted string  `json:"formatted"`
	Index     float64 `json:"index"`
}

// NewAchievement builds an Achievement with exact formatting ("5 / 10").
func NewAchievement(achieved, required float64) Achievement {
	a := Achievement{Achieved: achieved, Required: required}
	a.Formatted = formatFloat(achieved) + " / " + formatFloat(required)
	a.Index = ratio(achieved, required)
	return a
}

// ParseAchievement reads a "<achieved>%<required>" cell. Cells without a
// '%' separator, or with unparsable parts, count as zero.
func ParseAchievement(v any) Achievement {
	s := String(v)
	if !strings.Contains(s, "%") {
		return NewAchievement(0, 0)
	}
	parts := strings.Split(s, "%")
	achieved, _ := ParseFloatPrefix(parts[0])
	required, _ := ParseFloatPrefix(parts[1])
	return NewAchievement(achieved, required)
}

// Add sums two achievements and recomputes the derived fields.
func (a Achievement) Add(other Achievement) Achievement {
	return NewAchievement(a.Achieved+other.Achieved, a.Required+other.Required)
}

// Recompute returns a copy with Formatted rendered to one decimal place
// ("5.0 / 10.0") and Index refreshed.
func (a Achievement) Recompute() Achievement {
	a.Formatted = fmt.Sprintf("%.1f / %.1f", a.Achieved, a.Required)
	a.Index = ratio(a.Achieved, a.Required)
	return a
}

// Fraction encodes the counts back into the sheet cell form.
func (a Achievement) Fraction() string {
	return formatFloat(a.Achieved) + "%" + formatFloat(a.Required)
}

// ResetAchieved keeps the required count and clears everything else.
func (a Achievement) ResetAchieved() Achievement {
	return Achievement{Required: a.Required}
}

func ratio(achieved, required float64) float64 {
	if required <= 0 {
		return 0
	}
	return achieved / required
}
