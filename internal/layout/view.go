package layout

import (
	"time"

	"yearcal/internal/dateutil"
	"yearcal/internal/model"
)

// Week is one rendered month-grid row: seven days plus the event segments
// laid over them.
type Week struct {
	Days     []model.Day     `json:"days"`
	Segments []model.Segment `json:"segments"`
}

// MonthView is the render model for one month card.
type MonthView struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"` // 1-12
	Label  string `json:"label"`
	Weeks  []Week `json:"weeks"`
	// Badges maps each date covered by at least one event to the number of
	// events covering it, for day-cell markers.
	Badges map[string]int `json:"badges,omitempty"`
}

// TimelineRow is one horizontal band of whole months in the timeline view.
type TimelineRow struct {
	Days     []model.Day          `json:"days"`
	Months   []dateutil.MonthSpan `json:"months"`
	Segments []model.Segment      `json:"segments"`
}

// BuildMonthView lays out one month: padded day grid chunked into weeks,
// one RowSegments pass per week, and per-day badge counts for the month's
// own span.
func BuildMonthView(year int, month time.Month, today string, events []model.Event) MonthView {
	days := dateutil.MonthDays(year, month, today)
	first, last := dateutil.MonthBounds(year, month)
	monthEvents := Overlapping(events, days[0].Date, days[len(days)-1].Date)

	weeks := make([]Week, 0, len(days)/DaysPerWeek)
	for _, wd := range MonthWeeks(days) {
		weeks = append(weeks, Week{
			Days:     wd,
			Segments: RowSegments(wd, monthEvents),
		})
	}

	badges := make(map[string]int)
	for date, evs := range ByDay(Overlapping(events, first, last)) {
		if dateutil.Contains(date, first, last) {
			badges[date] = len(evs)
		}
	}

	return MonthView{
		Year:   year,
		Month:  int(month),
		Label:  model.MonthNames[month-1],
		Weeks:  weeks,
		Badges: badges,
	}
}

// BuildYearView lays out all twelve month cards of a year.
func BuildYearView(year int, today string, events []model.Event) []MonthView {
	views := make([]MonthView, 0, 12)
	for m := time.January; m <= time.December; m++ {
		views = append(views, BuildMonthView(year, m, today, events))
	}
	return views
}

// BuildTimelineView lays out a year as rows of monthsPerRow consecutive
// whole months. Each row is a single segment pass: an event crossing a
// month boundary inside the row stays one segment, the two views differ
// only in row granularity. monthsPerRow is clamped to 1..4.
func BuildTimelineView(year, monthsPerRow int, today string, events []model.Event) []TimelineRow {
	if monthsPerRow < 1 {
		monthsPerRow = 1
	}
	if monthsPerRow > 4 {
		monthsPerRow = 4
	}

	rows := make([]TimelineRow, 0, (12+monthsPerRow-1)/monthsPerRow)
	for start := 0; start < 12; start += monthsPerRow {
		count := monthsPerRow
		if remaining := 12 - start; count > remaining {
			count = remaining
		}
		days, spans := dateutil.RowDays(year, time.Month(start+1), count, today)
		rows = append(rows, TimelineRow{
			Days:     days,
			Months:   spans,
			Segments: RowSegments(days, events),
		})
	}
	return rows
}
