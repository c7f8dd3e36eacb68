package ics

import (
	"bytes"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	"yearcal/internal/dateutil"
	"yearcal/internal/log"
)

// ImportedEvent is one VEVENT reduced to this system's whole-day model.
// Category carries the first CATEGORIES name verbatim; mapping it onto a
// stored category is the caller's job.
type ImportedEvent struct {
	Title       string
	Description string
	StartDate   string // YYYY-MM-DD, inclusive
	EndDate     string // YYYY-MM-DD, inclusive
	Category    string
}

// Import parses an ICS payload into whole-day events. Timed events are
// truncated to their calendar dates; all-day events have their exclusive
// DTEND mapped back to an inclusive end date. Events carrying an RRULE are
// skipped (recurrence is out of scope here) and counted in skipped.
func Import(body []byte) (events []ImportedEvent, skipped int, err error) {
	if len(body) == 0 {
		return nil, 0, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	for _, ve := range cal.Events() {
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			skipped++
			log.Info("ics import: skipping recurring event",
				"uid", propValue(ve, ical.ComponentPropertyUniqueId), "rrule", p.Value)
			continue
		}

		ev, perr := importVEvent(ve)
		if perr != nil {
			log.Error("ics import: skipping unparseable event", perr,
				"uid", propValue(ve, ical.ComponentPropertyUniqueId))
			skipped++
			continue
		}
		events = append(events, ev)
	}

	return events, skipped, nil
}

func importVEvent(ve *ical.VEvent) (ImportedEvent, error) {
	var out ImportedEvent

	out.Title = propValue(ve, ical.ComponentPropertySummary)
	if strings.TrimSpace(out.Title) == "" {
		out.Title = "(untitled)"
	}
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Category = propValue(ve, ical.ComponentPropertyCategories)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.StartDate = dateutil.FormatDate(start)

	end, err := ve.GetEndAt()
	if err != nil {
		// No DTEND: a single-day event.
		out.EndDate = out.StartDate
		return out, nil
	}

	if isAllDay(ve) {
		// DTEND is the exclusive next day for DATE values.
		end = end.AddDate(0, 0, -1)
	}
	out.EndDate = dateutil.FormatDate(end)
	if out.EndDate < out.StartDate {
		out.EndDate = out.StartDate
	}
	return out, nil
}

// isAllDay detects DATE-valued starts: VALUE=DATE or a value without a
// time component.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
