package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	rePeriodMonth    = regexp.MustCompile(`^(\d{4})\s*M(\d{1,2})$`)
	rePeriodQuarter  = regexp.MustCompile(`^(\d{4})\s*Q([1-4])$`)
	rePeriodCompact  = regexp.MustCompile(`^(\d{4})(\d{1,2})$`)
	rePeriodNamed    = regexp.MustCompile(`^(\d{4})\s+([A-Za-z]+)$`)
	rePeriodNamedRev = regexp.MustCompile(`^([A-Za-z]+)[\s\-]+(\d{4})$`)
	reMonthWord      = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\b`)
	reYear           = regexp.MustCompile(`\b(20\d{2})\b`)
)

// ParsePeriod converts a statistical period label into the first day of the
// period in UTC. Accepted forms: 2024M03, 2024Q1, 20241 (year + quarter digit),
// 202403, 2024 March, March 2024, 2024, 2024-03 and 2024-03-15.
func ParsePeriod(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty period")
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.UTC(), nil
	}
	if m := rePeriodMonth.FindStringSubmatch(s); m != nil {
		return monthStart(m[1], m[2])
	}
	if m := rePeriodQuarter.FindStringSubmatch(s); m != nil {
		return quarterStart(m[1], m[2])
	}
	if m := rePeriodCompact.FindStringSubmatch(s); m != nil {
		// five digits is a CSO quarter code, six is year and month
		if len(s) == 5 {
			return quarterStart(m[1], m[2])
		}
		return monthStart(m[1], m[2])
	}
	if m := rePeriodNamed.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNames[strings.ToLower(m[2])]; ok {
			y, _ := strconv.Atoi(m[1])
			return time.Date(y, mon, 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if m := rePeriodNamedRev.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNames[strings.ToLower(m[1])]; ok {
			y, _ := strconv.Atoi(m[2])
			return time.Date(y, mon, 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil {
			return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised period %q", s)
}

func monthStart(year, month string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	if m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("month out of range in %s/%s", year, month)
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), nil
}

func quarterStart(year, quarter string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	q, _ := strconv.Atoi(quarter)
	if q < 1 || q > 4 {
		return time.Time{}, fmt.Errorf("quarter out of range in %s/%s", year, quarter)
	}
	return time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), nil
}

// ExtractMonthYear finds a month name in free text. The year is taken from a
// nearby 20xx token; without one the most recent occurrence of that month
// relative to now is assumed.
func ExtractMonthYear(text string, now time.Time) (time.Time, bool) {
	m := reMonthWord.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	mon := monthNames[strings.ToLower(m[1])]

	year := now.Year()
	if y := reYear.FindStringSubmatch(text); y != nil {
		year, _ = strconv.Atoi(y[1])
	} else if mon > now.Month() {
		year--
	}
	return time.Date(year, mon, 1, 0, 0, 0, 0, time.UTC), true
}

// ReportDate is the most recent Saturday on or before t.
func ReportDate(t time.Time) time.Time {
	back := (int(t.Weekday()) + 1) % 7
	d := t.AddDate(0, 0, -back)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PeriodsBack returns n period start dates ending at the period containing
// end, oldest first. Frequency is daily, weekly, monthly or quarterly.
func PeriodsBack(end time.Time, frequency string, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	end = end.UTC()
	var last time.Time
	step := func(t time.Time, k int) time.Time { return t }
	switch frequency {
	case "daily":
		last = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
		step = func(t time.Time, k int) time.Time { return t.AddDate(0, 0, -k) }
	case "weekly":
		back := (int(end.Weekday()) + 6) % 7
		d := end.AddDate(0, 0, -back)
		last = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		step = func(t time.Time, k int) time.Time { return t.AddDate(0, 0, -7*k) }
	case "quarterly":
		q := (int(end.Month()) - 1) / 3
		last = time.Date(end.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		step = func(t time.Time, k int) time.Time { return t.AddDate(0, -3*k, 0) }
	default:
		last = MonthStart(end)
		step = func(t time.Time, k int) time.Time { return t.AddDate(0, -k, 0) }
	}

	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = step(last, n-1-i)
	}
	return out
}

// MonthLabel formats a date the way the dashboard tables label months, e.g. Mar-24.
func MonthLabel(t time.Time) string {
	return t.Format("Jan-06")
}
