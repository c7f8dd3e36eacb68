// Package dateutil provides pure calendar-date arithmetic on ISO
// YYYY-MM-DD strings. Dates are compared lexicographically and only
// converted to time.Time (in UTC, at midnight) for arithmetic, then
// immediately formatted back, so daylight-saving transitions can never
// shift a date.
package dateutil

import (
	"time"

	"yearcal/internal/model"
)

// Layout is the wire format for all calendar dates.
const Layout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

// FormatDate formats t's calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the current calendar date in the local timezone.
func Today() string {
	return time.Now().Format(Layout)
}

// mustParse is used internally on dates that already passed boundary
// validation; a malformed date here is a programming error.
func mustParse(s string) time.Time {
	t, err := time.Parse(Layout, s)
	if err != nil {
		panic("dateutil: malformed date " + s)
	}
	return t
}

// AddDays returns date shifted by n calendar days (n may be negative).
func AddDays(date string, n int) string {
	return FormatDate(mustParse(date).AddDate(0, 0, n))
}

// Duration returns the number of days from start to end, exclusive of the
// end day itself: a single-day event has duration 0.
func Duration(start, end string) int {
	d := mustParse(end).Sub(mustParse(start))
	return int(d / (24 * time.Hour))
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] intersect: aStart <= bEnd && aEnd >= bStart.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= bEnd && aEnd >= bStart
}

// Contains reports whether date falls within [rangeStart, rangeEnd].
func Contains(date, rangeStart, rangeEnd string) bool {
	return date >= rangeStart && date <= rangeEnd
}

// DatesBetween enumerates every date from start through end inclusive.
// Returns nil if end precedes start.
func DatesBetween(start, end string) []string {
	if end < start {
		return nil
	}
	var out []string
	for t, last := mustParse(start), mustParse(end); !t.After(last); t = t.AddDate(0, 0, 1) {
		out = append(out, FormatDate(t))
	}
	return out
}

// MonthBounds returns the first and last date of the given month.
func MonthBounds(year int, month time.Month) (first, last string) {
	f := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return FormatDate(f), FormatDate(f.AddDate(0, 1, -1))
}

// MonthDays returns the day sequence for a month-grid view, padded at both
// ends to whole weeks: leading days come from the previous month (count =
// weekday of the 1st, Sunday=0) and trailing days pad to a week ending on
// Saturday. The result length is always a multiple of 7.
//
// today is the date to flag as Day.Today; pass an empty string to flag none.
// Out-of-range year/month values follow time.Date normalization and are the
// caller's responsibility.
func MonthDays(year int, month time.Month, today string) []model.Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	startPad := int(first.Weekday())
	endPad := 6 - int(last.Weekday())

	cur := first.AddDate(0, 0, -startPad)
	end := last.AddDate(0, 0, endPad)

	days := make([]model.Day, 0, 42)
	for !cur.After(end) {
		days = append(days, makeDay(cur, cur.Month() == month, today))
		cur = cur.AddDate(0, 0, 1)
	}
	return days
}

// MonthSpan locates one month's slice of a timeline row: StartIndex is the
// offset of its first day in the row, Days its length.
type MonthSpan struct {
	Month      time.Month `json:"month"`
	Label      string     `json:"label"`
	StartIndex int        `json:"startIndex"`
	Days       int        `json:"days"`
}

// RowDays concatenates monthCount full months starting at startMonth into
// one unpadded day sequence for a timeline row, along with per-month spans
// for header rendering. Every day is flagged InMonth; timeline rows have no
// padding days.
func RowDays(year int, startMonth time.Month, monthCount int, today string) ([]model.Day, []MonthSpan) {
	var days []model.Day
	spans := make([]MonthSpan, 0, monthCount)

	for i := 0; i < monthCount; i++ {
		month := startMonth + time.Month(i)
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		inMonth := first.AddDate(0, 1, 0).Sub(first) / (24 * time.Hour)

		spans = append(spans, MonthSpan{
			Month:      first.Month(),
			Label:      model.MonthNamesShort[first.Month()-1],
			StartIndex: len(days),
			Days:       int(inMonth),
		})
		for d := 0; d < int(inMonth); d++ {
			days = append(days, makeDay(first.AddDate(0, 0, d), true, today))
		}
	}
	return days, spans
}

func makeDay(t time.Time, inMonth bool, today string) model.Day {
	date := FormatDate(t)
	dow := int(t.Weekday())
	return model.Day{
		Date:      date,
		DayOfWeek: dow,
		InMonth:   inMonth,
		Today:     today != "" && date == today,
		Weekend:   dow == 0 || dow == 6,
	}
}
