package recurrence

import (
	"fmt"
	"testing"
)

func TestRecognize_KnownPhrases(t *testing.T) {
	tests := []struct {
		text string
		want string
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
		{"hourly", "0 * * * *"},
		{"every hour", "0 * * * *"},
		{"monthly", "0 9 1 * *"},
		{"every month", "0 9 1 * *"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Recognize(tt.text)
			if !ok {
				t.Fatalf("Recognize(%q) reported no match", tt.text)
			}
			if got != tt.want {
				t.Errorf("Recognize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestRecognize_CaseAndWhitespaceInsensitive(t *testing.T) {
	want, ok := Recognize("daily")
	if !ok {
		t.Fatal("baseline phrase did not match")
	}

	for _, text := range []string{" DAILY ", "Daily", "\tdaily\n", "  dAiLy"} {
		got, ok := Recognize(text)
		if !ok || got != want {
			t.Errorf("Recognize(%q) = (%q, %v), want (%q, true)", text, got, ok, want)
		}
	}
}

func TestRecognize_EveryNHours(t *testing.T) {
	for n := 1; n <= 24; n++ {
		text := fmt.Sprintf("every %d hours", n)
		got, ok := Recognize(text)
		if !ok {
			t.Fatalf("Recognize(%q) reported no match", text)
		}
		want := fmt.Sprintf("0 */%d * * *", n)
		if got != want {
			t.Errorf("Recognize(%q) = %q, want %q", text, got, want)
		}
	}

	// Singular form.
	if got, ok := Recognize("every 1 hour"); !ok || got != "0 */1 * * *" {
		t.Errorf(`Recognize("every 1 hour") = (%q, %v), want ("0 */1 * * *", true)`, got, ok)
	}

	// Out-of-range intervals do not match.
	for _, text := range []string{"every 0 hours", "every 25 hours", "every 100 hours"} {
		if got, ok := Recognize(text); ok {
			t.Errorf("Recognize(%q) = %q, want no match", text, got)
		}
	}
}

func TestRecognize_PriorityOrder(t *testing.T) {
	// The table order decides, not the position of the keyword in the input.
	tests := []struct {
		text string
		want string
	}{
		{"every monday every morning", "0 8 * * *"}, // morning outranks weekday names
		{"weekly daily", "0 9 * * *"},               // daily outranks weekly
		{"every friday weekly", "0 9 * * 1"},        // weekly outranks weekday names
		{"monthly every hour", "0 * * * *"},         // hourly outranks monthly
		{"every 3 hours hourly", "0 */3 * * *"},     // N-hours outranks plain hourly
	}

	for _, tt := range tests {
		got, ok := Recognize(tt.text)
		if !ok {
			t.Fatalf("Recognize(%q) reported no match", tt.text)
		}
		if got != tt.want {
			t.Errorf("Recognize(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestRecognize_NoMatch(t *testing.T) {
	for _, text := range []string{
		"",
		"   ",
		"remind me sometime",
		"on the 5th of every other fortnight",
		"every",
		"hours",
	} {
		if got, ok := Recognize(text); ok {
			t.Errorf("Recognize(%q) = %q, want no match", text, got)
		}
	}
}
