// Package recurrence turns natural-language reminder phrases into five-field
// recurrence rules and computes when a rule next fires.
//
// A rule has the form "<minute> <hour> <day-of-month> <month> <weekday>",
// where each field is "*", "*/N" or an integer literal. Weekdays are 0-based
// with Sunday = 0.
package recurrence

import (
	"strconv"
	"strings"
	"time"
)

type fieldKind int

const (
	matchAny fieldKind = iota
	matchStep
	matchExact
)

// field matches one calendar component of a candidate instant.
type field struct {
	kind fieldKind
	n    int
}

func (f field) matches(v int) bool {
	switch f.kind {
	case matchAny:
		return true
	case matchStep:
		return v%f.n == 0
	default:
		return v == f.n
	}
}

// Value domains per field position: minute, hour, day-of-month, month, weekday.
var fieldBounds = [5]struct{ min, max int }{
	{0, 59},
	{0, 23},
	{1, 31},
	{1, 12},
	{0, 6},
}

// parseRule splits a rule into its five field matchers. A rule with any other
// field count, or with a field that is not "*", "*/N" or an in-domain integer,
// is malformed and reported as not-ok.
func parseRule(expr string) ([5]field, bool) {
	parts := strings.Fields(strings.TrimSpace(expr))
	if len(parts) != 5 {
		return [5]field{}, false
	}

	var fields [5]field
	for i, p := range parts {
		f, ok := parseField(p, fieldBounds[i].min, fieldBounds[i].max)
		if !ok {
			return [5]field{}, false
		}
		fields[i] = f
	}
	return fields, true
}

func parseField(s string, min, max int) (field, bool) {
	if s == "*" {
		return field{kind: matchAny}, true
	}

	if rest, ok := strings.CutPrefix(s, "*/"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return field{}, false
		}
		return field{kind: matchStep, n: n}, true
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return field{}, false
	}
	return field{kind: matchExact, n: n}, true
}

// weekdayIndex normalizes the weekday of t to the rule numbering: Sunday = 0
// through Saturday = 6. Go's time.Weekday already starts the week on Sunday
// at 0, so this is a direct cast; it stays isolated here because calendars
// that number weekdays from 1 need a shift at exactly this point.
func weekdayIndex(t time.Time) int {
	return int(t.Weekday())
}
