// Package ics maps calendar state to and from the iCalendar format. Events
// are whole-day spans, so every VEVENT uses DATE values: DTSTART is the
// inclusive start and DTEND the exclusive day after the inclusive end.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"yearcal/internal/dateutil"
	"yearcal/internal/model"
)

const prodID = "-//yearcal//calendar//EN"

// Export serializes all events into a VCALENDAR. The owning category's
// name is carried in the CATEGORIES property so a later import can map
// events back onto categories.
func Export(events []model.Event, categories []model.Category) ([]byte, error) {
	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, e := range events {
		start, err := dateutil.ParseDate(e.StartDate)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad start date: %w", e.ID, err)
		}
		end, err := dateutil.ParseDate(e.EndDate)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad end date: %w", e.ID, err)
		}

		ve := cal.AddEvent(e.ID + "@yearcal")
		ve.SetSummary(e.Title)
		ve.SetAllDayStartAt(start)
		// DTEND is exclusive for DATE values.
		ve.SetAllDayEndAt(end.AddDate(0, 0, 1))

		if desc := exportDescription(e); desc != "" {
			ve.SetDescription(desc)
		}
		if c, ok := byID[e.CategoryID]; ok {
			ve.SetProperty(ical.ComponentPropertyCategories, c.Name)
		}
		if ts, err := time.Parse(time.RFC3339, e.UpdatedAt); err == nil {
			ve.SetDtStampTime(ts)
		} else {
			ve.SetDtStampTime(time.Now().UTC())
		}
	}

	return []byte(cal.Serialize()), nil
}

func exportDescription(e model.Event) string {
	switch {
	case e.Description != "" && e.Notes != "":
		return e.Description + "\n\n" + e.Notes
	case e.Description != "":
		return e.Description
	default:
		return e.Notes
	}
}
