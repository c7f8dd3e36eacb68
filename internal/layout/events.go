// Package layout turns the event list into renderable structures: overlap
// filtering, deterministic ordering, per-day grouping, and the row
// segmentation/stacking engine used by both the month grid and the
// timeline.
package layout

import (
	"sort"

	"yearcal/internal/dateutil"
	"yearcal/internal/model"
)

// Overlapping returns the events whose inclusive span intersects
// [rangeStart, rangeEnd]. Result order follows the input and is not
// otherwise guaranteed; callers needing determinism apply Sort.
func Overlapping(events []model.Event, rangeStart, rangeEnd string) []model.Event {
	var out []model.Event
	for _, e := range events {
		if dateutil.Overlaps(e.StartDate, e.EndDate, rangeStart, rangeEnd) {
			out = append(out, e)
		}
	}
	return out
}

// Sort orders events ascending by start date, ties broken by end date
// descending so longer events come first. The sort is stable; this order
// drives stacking-slot assignment, so it must be a total deterministic
// order for equal inputs.
func Sort(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].EndDate > out[j].EndDate
	})
	return out
}

// ByDay expands every event into its full inclusive date span and groups
// events under each covered date. A 10-day event appears in 10 buckets.
// Per-day order equals event iteration order.
func ByDay(events []model.Event) map[string][]model.Event {
	grouped := make(map[string][]model.Event)
	for _, e := range events {
		for _, date := range dateutil.DatesBetween(e.StartDate, e.EndDate) {
			grouped[date] = append(grouped[date], e)
		}
	}
	return grouped
}
