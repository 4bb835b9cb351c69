package recurrence

import (
	"testing"
	"time"
)

func TestParseRejectsEmptyExpression(t *testing.T) {
	if _, err := Parse(""); err != ErrEmptyExpression {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}
	if _, err := Parse("   "); err != ErrEmptyExpression {
		t.Fatalf("expected ErrEmptyExpression for whitespace, got %v", err)
	}
}

func TestParseRejectsMalformedExpression(t *testing.T) {
	for _, expr := range []string{"FREQ=SOMETIMES", "not a rule", "FREQ="} {
		if _, err := Parse(expr); err == nil {
			t.Errorf("Parse(%q) accepted a malformed rule", expr)
		}
	}
}

func TestParseAcceptsValidExpressions(t *testing.T) {
	for _, expr := range []string{
		"FREQ=DAILY",
		"FREQ=WEEKLY;BYDAY=MO",
		"FREQ=MONTHLY;BYMONTHDAY=15;BYHOUR=9;BYMINUTE=0",
	} {
		rule, err := Parse(expr)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", expr, err)
			continue
		}
		if rule.String() != expr {
			t.Errorf("String() = %q, want %q", rule.String(), expr)
		}
	}
}

func TestNextOccurrenceDaily(t *testing.T) {
	rule, err := Parse("FREQ=DAILY")
	if err != nil {
		t.Fatal(err)
	}

	after := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	next, ok := rule.NextOccurrence(after, 30*time.Minute)
	if !ok {
		t.Fatal("expected a next occurrence")
	}

	want := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextOccurrenceHonorsMinimumGap(t *testing.T) {
	rule, err := Parse("FREQ=MINUTELY")
	if err != nil {
		t.Fatal(err)
	}

	after := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	gap := time.Hour
	next, ok := rule.NextOccurrence(after, gap)
	if !ok {
		t.Fatal("expected a next occurrence")
	}
	if !next.After(after.Add(gap)) {
		t.Fatalf("next %v is not strictly after %v", next, after.Add(gap))
	}
}

func TestNextOccurrenceExhaustedRule(t *testing.T) {
	rule, err := Parse("FREQ=DAILY;COUNT=1")
	if err != nil {
		t.Fatal(err)
	}

	after := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	if _, ok := rule.NextOccurrence(after, 30*time.Minute); ok {
		t.Fatal("expected no occurrence for an exhausted rule")
	}
}

func TestNextOccurrenceWeeklyByDay(t *testing.T) {
	rule, err := Parse("FREQ=WEEKLY;BYDAY=MO")
	if err != nil {
		t.Fatal(err)
	}

	// 2026-08-31 is a Monday.
	after := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	next, ok := rule.NextOccurrence(after, time.Hour)
	if !ok {
		t.Fatal("expected a next occurrence")
	}
	if next.Weekday() != time.Monday {
		t.Fatalf("next occurrence falls on %v, want Monday", next.Weekday())
	}
	want := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}
