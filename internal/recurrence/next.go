package recurrence

import "time"

// searchHorizon caps the forward search at one year of minutes. A rule that
// matches nothing within the horizon is treated as never firing.
const searchHorizon = 365 * 24 * 60

// Next computes the earliest instant strictly after `after` that satisfies
// every field of the rule, at whole-minute resolution in the calendar and
// zone of `after`. The second result is false when no occurrence exists:
// either the rule is malformed or the one-year search horizon was exhausted.
// The two cases are deliberately indistinguishable — callers that need the
// distinction must validate the rule separately.
//
// Next is pure and safe for concurrent use. Worst case it evaluates the
// field predicate once per minute of a full year, so callers on a tight
// deadline should wrap it in a cancellable goroutine.
func Next(rule string, after time.Time) (time.Time, bool) {
	fields, ok := parseRule(rule)
	if !ok {
		return time.Time{}, false
	}

	// Seeding at the truncated minute + 1 keeps the result strictly greater
	// than `after` and pins occurrences to whole minutes.
	t := after.Truncate(time.Minute).Add(time.Minute)

	for i := 0; i < searchHorizon; i++ {
		if fields[0].matches(t.Minute()) &&
			fields[1].matches(t.Hour()) &&
			fields[2].matches(t.Day()) &&
			fields[3].matches(int(t.Month())) &&
			fields[4].matches(weekdayIndex(t)) {
			return t, true
		}
		t = t.Add(time.Minute)
	}

	return time.Time{}, false
}
