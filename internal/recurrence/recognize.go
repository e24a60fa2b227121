package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// keywordRules is the fixed priority table for phrase recognition. Entries
// are tested top to bottom and the first keyword contained in the input wins,
// regardless of where in the input it appears.
var keywordRules = []struct {
	keyword string
	rule    string
}{
	{"every day", "0 9 * * *"},
	{"daily", "0 9 * * *"},
	{"each day", "0 9 * * *"},
	{"every morning", "0 8 * * *"},
	{"every evening", "0 18 * * *"},
	{"every night", "0 18 * * *"},
	{"weekly", "0 9 * * 1"},
	{"every week", "0 9 * * 1"},
	{"every monday", "0 9 * * 1"},
	{"every tuesday", "0 9 * * 2"},
	{"every wednesday", "0 9 * * 3"},
	{"every thursday", "0 9 * * 4"},
	{"every friday", "0 9 * * 5"},
	{"every saturday", "0 9 * * 6"},
	{"every sunday", "0 9 * * 0"},
}

// everyNHours sits between the weekday names and the plain "hourly" keywords
// in the priority order.
var everyNHours = regexp.MustCompile(`every\s+(\d+)\s+hours?`)

var trailingKeywordRules = []struct {
	keyword string
	rule    string
}{
	{"hourly", "0 * * * *"},
	{"every hour", "0 * * * *"},
	{"monthly", "0 9 1 * *"},
	{"every month", "0 9 1 * *"},
}

// Recognize maps a free-text reminder phrase to its canonical five-field
// rule. Matching is case-insensitive and ignores surrounding whitespace.
// Text that matches no known phrase — including "every N hours" with N
// outside [1,24] — reports ok = false; that is a normal outcome, not an
// error.
func Recognize(text string) (rule string, ok bool) {
	s := strings.ToLower(strings.TrimSpace(text))

	for _, kr := range keywordRules {
		if strings.Contains(s, kr.keyword) {
			return kr.rule, true
		}
	}

	if m := everyNHours.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 24 {
			return fmt.Sprintf("0 */%d * * *", n), true
		}
		// Out-of-range interval: fall through to the remaining keywords.
	}

	for _, kr := range trailingKeywordRules {
		if strings.Contains(s, kr.keyword) {
			return kr.rule, true
		}
	}

	return "", false
}
