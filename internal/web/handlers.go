package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"yearcal/internal/dateutil"
	"yearcal/internal/ics"
	"yearcal/internal/layout"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
	"yearcal/internal/snapshot"
	"yearcal/internal/store"
)

// maxImportBytes caps an uploaded ICS payload.
const maxImportBytes = 10 << 20

// stateResponse is the JSON response shape for /api/state.
type stateResponse struct {
	*model.State
	ColorPalette []string `json:"colorPalette"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		State:        s.store.State(),
		ColorPalette: model.ColorPalette,
	})
}

// writeStoreError maps store sentinel errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrOtherCategoryUndeletable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrOtherCategoryMissing):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		appLog.Error("store operation failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var draft model.EventDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	if err := draft.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := s.store.AddEvent(draft)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch model.EventPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateEvent(r.PathValue("id"), patch); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEvent(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetDate string `json:"targetDate"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.store.MoveEvent(r.PathValue("id"), body.TargetDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var draft model.CategoryDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	if err := draft.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := s.store.AddCategory(draft)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch model.CategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateCategory(r.PathValue("id"), patch); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if !decodeBody(w, r, &settings) {
		return
	}

	if err := s.store.SetSettings(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.Settings())
}

// viewParams pulls year/month query parameters, falling back to today and
// clamping out-of-range months instead of erroring.
func viewParams(r *http.Request) (year int, month time.Month, today string) {
	today = dateutil.Today()
	now, _ := dateutil.ParseDate(today)

	q := r.URL.Query()
	year = parseIntDefault(q.Get("year"), now.Year())
	if year < 1 || year > 9999 {
		year = now.Year()
	}

	m := parseIntDefault(q.Get("month"), int(now.Month()))
	if m < 1 {
		m = 1
	}
	if m > 12 {
		m = 12
	}
	return year, time.Month(m), today
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	year, month, today := viewParams(r)
	start, end := dateutil.MonthBounds(year, month)
	events := s.store.EventsInRange(start, end)

	writeJSON(w, http.StatusOK, layout.BuildMonthView(year, month, today, events))
}

func (s *Server) handleYearView(w http.ResponseWriter, r *http.Request) {
	year, _, today := viewParams(r)
	events := s.store.EventsInRange(
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))

	writeJSON(w, http.StatusOK, struct {
		Year   int                `json:"year"`
		Months []layout.MonthView `json:"months"`
	}{year, layout.BuildYearView(year, today, events)})
}

func (s *Server) handleTimelineView(w http.ResponseWriter, r *http.Request) {
	year, _, today := viewParams(r)
	monthsPerRow := parseIntDefault(r.URL.Query().Get("monthsPerRow"), 3)
	events := s.store.EventsInRange(
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))

	writeJSON(w, http.StatusOK, struct {
		Year int                  `json:"year"`
		Rows []layout.TimelineRow `json:"rows"`
	}{year, layout.BuildTimelineView(year, monthsPerRow, today, events)})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	body, err := ics.Export(s.store.Events(), s.store.Categories())
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// importResult is the JSON response shape for /api/import.
type importResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleImport accepts either a raw ICS payload or a JSON body of the form
// {"url": "https://..."} naming a feed to fetch.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.URL == "" {
			writeError(w, http.StatusBadRequest, "expected a JSON body with a url field")
			return
		}
		body, err = ics.FetchURL(r.Context(), req.URL)
		if err != nil {
			appLog.Error("ics import fetch failed", err, "url", req.URL)
			writeError(w, http.StatusBadGateway, "failed to fetch ICS feed")
			return
		}
	}

	imported, skipped, err := ics.Import(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ICS payload: "+err.Error())
		return
	}

	added, addErr := s.importEvents(imported)
	if addErr != nil {
		writeStoreError(w, addErr)
		return
	}

	writeJSON(w, http.StatusOK, importResult{Imported: added, Skipped: skipped})
}

// importEvents stores imported events, mapping category names onto existing
// categories case-insensitively and falling back to "Other".
func (s *Server) importEvents(imported []ics.ImportedEvent) (int, error) {
	byName := make(map[string]string)
	otherID := ""
	for _, c := range s.store.Categories() {
		byName[strings.ToLower(c.Name)] = c.ID
		if c.Name == model.OtherCategoryName {
			otherID = c.ID
		}
	}

	added := 0
	for _, ev := range imported {
		categoryID, ok := byName[strings.ToLower(ev.Category)]
		if !ok {
			categoryID = otherID
		}
		_, err := s.store.AddEvent(model.EventDraft{
			Title:       ev.Title,
			Description: ev.Description,
			StartDate:   ev.StartDate,
			EndDate:     ev.EndDate,
			CategoryID:  categoryID,
		})
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.selfURL == "" {
		writeError(w, http.StatusServiceUnavailable, "preview capture not configured")
		return
	}

	png, err := snapshot.CapturePNG(r.Context(), snapshot.Options{
		URL:    s.selfURL + "/",
		Width:  s.cfg.Snapshot.Width,
		Height: s.cfg.Snapshot.Height,
	})
	if err != nil {
		appLog.Error("preview capture failed", err)
		writeError(w, http.StatusInternalServerError, "capture failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
