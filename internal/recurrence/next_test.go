package recurrence

import (
	"testing"
	"time"
)

// 2026-08-16 through 2026-08-22 run Sunday through Saturday.
func TestWeekdayIndex(t *testing.T) {
	for i, day := range []int{16, 17, 18, 19, 20, 21, 22} {
		d := time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)
		if got := weekdayIndex(d); got != i {
			t.Errorf("weekdayIndex(%s) = %d, want %d", d.Format("2006-01-02"), got, i)
		}
	}
}

func TestNext_StrictlyAfterReference(t *testing.T) {
	ref := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)

	for _, rule := range []string{
		"* * * * *",
		"0 * * * *",
		"0 9 * * *",
		"0 9 * * 1",
		"0 9 1 * *",
		"0 */6 * * *",
	} {
		got, ok := Next(rule, ref)
		if !ok {
			t.Fatalf("Next(%q) found no occurrence", rule)
		}
		if !got.After(ref) {
			t.Errorf("Next(%q) = %s, not strictly after %s", rule, got, ref)
		}
	}
}

func TestNext_ChainedCallsStrictlyIncrease(t *testing.T) {
	cur := time.Date(2026, 8, 23, 14, 37, 12, 0, time.UTC)

	for i := 0; i < 10; i++ {
		next, ok := Next("0 */2 * * *", cur)
		if !ok {
			t.Fatalf("iteration %d: no occurrence", i)
		}
		if !next.After(cur) {
			t.Fatalf("iteration %d: %s is not after %s", i, next, cur)
		}
		cur = next
	}
}

func TestNext_HourlyWithinSixtyMinutes(t *testing.T) {
	refs := []time.Time{
		time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 23, 10, 0, 30, 0, time.UTC),
		time.Date(2026, 8, 23, 10, 59, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 23, 30, 0, 0, time.UTC),
	}

	for _, ref := range refs {
		got, ok := Next("0 * * * *", ref)
		if !ok {
			t.Fatalf("no occurrence from %s", ref)
		}
		if got.Minute() != 0 {
			t.Errorf("Next from %s = %s, want minute 0", ref, got)
		}
		if d := got.Sub(ref); d <= 0 || d > time.Hour {
			t.Errorf("Next from %s = %s, want within the following hour", ref, got)
		}
	}
}

func TestNext_MonthlyLandsOnSoonestFirst(t *testing.T) {
	// Mid-month: the 1st has passed, so the occurrence is next month's 1st.
	ref := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	got, ok := Next("0 9 1 * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}

	// Before 09:00 on the 1st: this month's 1st still qualifies.
	ref = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)
	got, ok = Next("0 9 1 * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}

func TestNext_WeeklyMondayFromSunday(t *testing.T) {
	ref := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) // Sunday
	got, ok := Next("0 9 * * 1", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC) // Monday
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}

func TestNext_ExactTimeRollsToNextDay(t *testing.T) {
	ref := time.Date(2026, 8, 23, 15, 0, 0, 0, time.UTC)
	got, ok := Next("30 14 * * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want := time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}

func TestNext_StepFields(t *testing.T) {
	ref := time.Date(2026, 8, 23, 10, 7, 0, 0, time.UTC)

	got, ok := Next("*/15 * * * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want := time.Date(2026, 8, 23, 10, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}

	got, ok = Next("0 */6 * * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}

func TestNext_SecondsDoNotLeakIntoResult(t *testing.T) {
	ref := time.Date(2026, 8, 23, 10, 0, 30, 500, time.UTC)
	got, ok := Next("* * * * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	want := time.Date(2026, 8, 23, 10, 1, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}

func TestNext_MalformedRule(t *testing.T) {
	ref := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	for _, rule := range []string{
		"",
		"not a rule",
		"0 9 * *",       // four fields
		"0 9 * * * *",   // six fields
		"x 9 * * *",     // non-numeric field
		"*/0 * * * *",   // zero step
		"61 * * * *",    // minute out of domain
		"0 9 * * 7",     // weekday out of domain
		"-5 * * * *",    // negative literal
	} {
		if got, ok := Next(rule, ref); ok {
			t.Errorf("Next(%q) = %s, want none-found", rule, got)
		}
	}
}

func TestNext_HorizonExhausted(t *testing.T) {
	// February 31st never exists, so the full one-year scan comes up empty.
	ref := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	if got, ok := Next("0 9 31 2 *", ref); ok {
		t.Errorf("Next = %s, want none-found", got)
	}
}

func TestNext_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	ref := time.Date(2026, 8, 23, 10, 30, 0, 0, loc)

	got, ok := Next("0 9 * * *", ref)
	if !ok {
		t.Fatal("no occurrence")
	}
	if got.Location() != loc {
		t.Errorf("result location = %v, want %v", got.Location(), loc)
	}
	want := time.Date(2026, 8, 24, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}
