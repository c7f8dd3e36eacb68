package layout

import (
	"errors"

	"yearcal/internal/dateutil"
	"yearcal/internal/log"
	"yearcal/internal/model"
)

// RowHeight is the vertical stacking step in pixels; an event in slot n is
// offset n*RowHeight below the row's event baseline.
const RowHeight = 18

// DaysPerWeek is the month-grid row width.
const DaysPerWeek = 7

// RowSegments computes the segments for one row of consecutive days (a
// week in month view, a block of whole months in timeline view). Each
// event overlapping the row yields exactly one contiguous segment, clipped
// to the row's bounds, with 1-based columns and an exclusive end column.
//
// Stacking is deliberately simple: the slot is the event's position in
// Sort order restricted to this row, not an interval-graph coloring. Two
// events with disjoint spans still occupy different slots when they share
// a row; renderers rely on this exact behavior.
func RowSegments(days []model.Day, events []model.Event) []model.Segment {
	if len(days) == 0 {
		return nil
	}
	rowStart := days[0].Date
	rowEnd := days[len(days)-1].Date

	inRow := Sort(Overlapping(events, rowStart, rowEnd))

	segments := make([]model.Segment, 0, len(inRow))
	for slot, e := range inRow {
		clipStart := e.StartDate
		if clipStart < rowStart {
			clipStart = rowStart
		}
		clipEnd := e.EndDate
		if clipEnd > rowEnd {
			clipEnd = rowEnd
		}
		// Cannot happen after the overlap filter; skip rather than emit a
		// negative-width segment if an invariant is ever broken upstream.
		if clipStart > clipEnd {
			log.Error("layout: empty clip for overlapping event", errors.New("clip start after clip end"),
				"event_id", e.ID, "row_start", rowStart, "row_end", rowEnd)
			continue
		}

		startIdx := dateutil.Duration(rowStart, clipStart)
		endIdx := dateutil.Duration(rowStart, clipEnd)

		segments = append(segments, model.Segment{
			EventID:  e.ID,
			StartCol: startIdx + 1,
			EndCol:   endIdx + 2,
			First:    clipStart == e.StartDate,
			Last:     clipEnd == e.EndDate,
			Slot:     slot,
			Offset:   slot * RowHeight,
		})
	}
	return segments
}

// MonthWeeks chunks a padded month-day sequence (from dateutil.MonthDays)
// into week rows of seven days each.
func MonthWeeks(days []model.Day) [][]model.Day {
	weeks := make([][]model.Day, 0, len(days)/DaysPerWeek)
	for i := 0; i+DaysPerWeek <= len(days); i += DaysPerWeek {
		weeks = append(weeks, days[i:i+DaysPerWeek])
	}
	return weeks
}
