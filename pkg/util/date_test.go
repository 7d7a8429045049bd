package util

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	cases := map[string]time.Time{
		"2024M03":    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"2024M3":     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"2024Q2":     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"20243":      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		"202411":     time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		"2024 March": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"Sep 2023":   time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
		"2024":       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"2024-03":    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"2024-03-15": time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParsePeriod(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestParsePeriodRejects(t *testing.T) {
	for _, in := range []string{"", "2024M13", "2024Q5", "someday", "Foo 2024"} {
		if _, err := ParsePeriod(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestExtractMonthYear(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	got, ok := ExtractMonthYear("AIB Ireland Manufacturing PMI February 2024", now)
	if !ok || !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected %v %v", got, ok)
	}

	// a month after now without a year belongs to last year
	got, ok = ExtractMonthYear("released in November", now)
	if !ok || got.Year() != 2023 || got.Month() != time.November {
		t.Fatalf("unexpected %v %v", got, ok)
	}

	if _, ok := ExtractMonthYear("no month here", now); ok {
		t.Fatalf("expected no match")
	}
}

func TestReportDate(t *testing.T) {
	sat := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{
		time.Date(2024, 3, 16, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 22, 23, 0, 0, 0, time.UTC),
	} {
		if got := ReportDate(d); !got.Equal(sat) {
			t.Fatalf("ReportDate(%v) = %v", d, got)
		}
	}
}

func TestPeriodsBack(t *testing.T) {
	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	m := PeriodsBack(end, "monthly", 3)
	if len(m) != 3 || !m[0].Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !m[2].Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly: %v", m)
	}
	q := PeriodsBack(end, "quarterly", 2)
	if !q[0].Equal(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("quarterly: %v", q)
	}
	w := PeriodsBack(end, "weekly", 2)
	if w[1].Weekday() != time.Monday || !w[1].Equal(time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("weekly: %v", w)
	}
	if PeriodsBack(end, "daily", 0) != nil {
		t.Fatalf("expected nil for n=0")
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{"1,234.5": 1234.5, " 3.057% ": 3.057, "-0.2": -0.2}
	for in, want := range cases {
		got, ok := ParseNumber(in)
		if !ok || got != want {
			t.Fatalf("%q: got %v %v", in, got, ok)
		}
	}
	if _, ok := ParseNumber("n/a"); ok {
		t.Fatalf("expected failure")
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); got != "Mar-24" {
		t.Fatalf("got %q", got)
	}
}
