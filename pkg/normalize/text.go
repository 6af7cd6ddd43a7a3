// Package normalize contains the total, side-effect free parsers used to turn
// spreadsheet cells into comparable text, numbers, ratios and instants.
//
// Every function returns a safe default on malformed input; none of them
// return errors or panic.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	zeroWidth = strings.NewReplacer(
		"\u200B", "",
		"\u200C", "",
		"\u200D", "",
		"\uFEFF", "",
	)

	// letterFold maps Arabic letter variants onto one canonical form.
	letterFold = strings.NewReplacer(
		"إ", "ا",
		"أ", "ا",
		"آ", "ا",
		"ى", "ي",
		"ة", "ه",
	)

	alefFold = strings.NewReplacer(
		"إ", "ا",
		"أ", "ا",
		"آ", "ا",
	)
)

// StripZeroWidth removes zero-width spaces, joiners and the BOM.
func StripZeroWidth(s string) string {
	return zeroWidth.Replace(s)
}

// CollapseSpace replaces every run of Unicode whitespace with one ASCII space
// and trims both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text is the matching form of s: NFC, no zero-width marks, single spaces,
// alef/yeh/teh-marbuta variants folded. Use it for comparing names and
// labels, never for display.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = StripZeroWidth(s)
	s = CollapseSpace(s)
	s = letterFold.Replace(s)
	return strings.TrimSpace(s)
}

// Clean is the display form of s: NFC, no zero-width marks, trimmed,
// internal whitespace collapsed. Letters are left untouched.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	return CollapseSpace(StripZeroWidth(norm.NFC.String(s)))
}

// HeaderKey reduces a column header to a whitespace-free key with alef forms
// folded, so that "السؤال  الأول" and "السؤال الاول" compare equal.
func HeaderKey(s string) string {
	if s == "" {
		return ""
	}
	s = StripZeroWidth(norm.NFC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return alefFold.Replace(s)
}

// Label trims a sheet column label the way headers are cleaned on ingestion:
// zero-width marks removed, surrounding whitespace trimmed.
func Label(s string) string {
	return strings.TrimSpace(StripZeroWidth(s))
}
