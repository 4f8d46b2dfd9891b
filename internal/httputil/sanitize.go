package httputil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field length limits, in characters.
const (
	MaxLineLength = 200
	MaxTextLength = 5000
)

// CleanLine trims a single-line field and drops every control character.
// Names and workshop titles go through here before they reach a PDF or a mail header.
func CleanLine(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}

// CleanText trims free text and drops control characters except newline,
// carriage return and tab.
func CleanText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}

// CheckLength returns an error when value is longer than max characters.
// A max of 0 disables the check.
func CheckLength(field, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must be at most %d characters long", field, max)
	}
	return nil
}
