package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yearcal/internal/config"
	"yearcal/internal/model"
	"yearcal/internal/storage"
	"yearcal/internal/store"
)

type memBackend struct {
	saved *model.State
}

func (m *memBackend) LoadState() (*model.State, bool, error) {
	if m.saved == nil {
		return storage.InitialState(), true, nil
	}
	return m.saved.Clone(), false, nil
}

func (m *memBackend) SaveState(state *model.State) error {
	m.saved = state.Clone()
	return nil
}

func (m *memBackend) Close() error { return nil }

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(&memBackend{})
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	srv := httptest.NewServer(NewServer(cfg, st, "").Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func workCategoryID(t *testing.T, st *store.Store) string {
	t.Helper()
	for _, c := range st.Categories() {
		if c.Name == "Work" {
			return c.ID
		}
	}
	t.Fatal("Work category missing")
	return ""
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestStateIncludesPalette(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	got := decode[stateResponse](t, resp)
	if len(got.Categories) != 4 {
		t.Errorf("categories = %d", len(got.Categories))
	}
	if len(got.ColorPalette) != len(model.ColorPalette) {
		t.Errorf("palette size = %d", len(got.ColorPalette))
	}
}

func TestEventLifecycle(t *testing.T) {
	srv, st := newTestServer(t, nil)
	work := workCategoryID(t, st)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/events", model.EventDraft{
		Title: "Sprint", StartDate: "2024-03-01", EndDate: "2024-03-03", CategoryID: work,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[model.Event](t, resp)
	if created.ID == "" {
		t.Fatal("no id assigned")
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/events/"+created.ID+"/move",
		map[string]string{"targetDate": "2024-03-10"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	moved, _ := st.State().EventByID(created.ID)
	if moved.StartDate != "2024-03-10" || moved.EndDate != "2024-03-12" {
		t.Errorf("moved span = %s..%s", moved.StartDate, moved.EndDate)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/events/"+created.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if len(st.Events()) != 0 {
		t.Error("event not deleted")
	}
}

func TestCreateEventRejectsBadDraft(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/events", model.EventDraft{
		Title: "", StartDate: "2024-03-01", EndDate: "2024-03-03",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteOtherCategoryConflicts(t *testing.T) {
	srv, st := newTestServer(t, nil)

	var otherID string
	for _, c := range st.Categories() {
		if c.Name == model.OtherCategoryName {
			otherID = c.ID
		}
	}

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/categories/"+otherID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestSettingsValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/settings",
		model.Settings{GridLayout: "5x5", DefaultView: 2024})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/settings",
		model.Settings{GridLayout: model.GridLayout4x3, DefaultView: 2025})
	got := decode[model.Settings](t, resp)
	if got.GridLayout != model.GridLayout4x3 || got.DefaultView != 2025 {
		t.Errorf("settings = %+v", got)
	}
}

func TestMonthViewClampsParams(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/view/month?year=2024&month=99")
	if err != nil {
		t.Fatal(err)
	}
	got := decode[struct {
		Month int `json:"month"`
		Weeks []struct {
			Days []model.Day `json:"days"`
		} `json:"weeks"`
	}](t, resp)
	if got.Month != 12 {
		t.Errorf("month = %d, want clamped 12", got.Month)
	}
	if len(got.Weeks) == 0 || len(got.Weeks[0].Days) != 7 {
		t.Errorf("weeks = %+v", got.Weeks)
	}
}

func TestYearViewSegments(t *testing.T) {
	srv, st := newTestServer(t, nil)
	work := workCategoryID(t, st)
	if _, err := st.AddEvent(model.EventDraft{
		Title: "Span", StartDate: "2024-01-30", EndDate: "2024-02-02", CategoryID: work,
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/view/year?year=2024")
	if err != nil {
		t.Fatal(err)
	}
	got := decode[struct {
		Year   int `json:"year"`
		Months []struct {
			Month int `json:"month"`
			Weeks []struct {
				Segments []model.Segment `json:"segments"`
			} `json:"weeks"`
		} `json:"months"`
	}](t, resp)

	if got.Year != 2024 || len(got.Months) != 12 {
		t.Fatalf("year view shape: year=%d months=%d", got.Year, len(got.Months))
	}
	segments := 0
	for _, m := range got.Months[:2] {
		for _, w := range m.Weeks {
			segments += len(w.Segments)
		}
	}
	if segments == 0 {
		t.Error("event produced no segments in Jan/Feb")
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	srv, st := newTestServer(t, nil)
	work := workCategoryID(t, st)
	if _, err := st.AddEvent(model.EventDraft{
		Title: "Offsite", StartDate: "2024-06-10", EndDate: "2024-06-12", CategoryID: work,
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/export.ics")
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %s", ct)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	// Clear and import the exported payload back.
	for _, e := range st.Events() {
		if err := st.DeleteEvent(e.ID); err != nil {
			t.Fatal(err)
		}
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/import", &buf)
	req.Header.Set("Content-Type", "text/calendar")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	got := decode[importResult](t, resp)
	if got.Imported != 1 || got.Skipped != 0 {
		t.Errorf("import result = %+v", got)
	}

	events := st.Events()
	if len(events) != 1 || events[0].Title != "Offsite" {
		t.Fatalf("events after import = %+v", events)
	}
	if events[0].CategoryID != work {
		t.Errorf("category not mapped back to Work: %s", events[0].CategoryID)
	}
}

func TestImportUnknownCategoryFallsBackToOther(t *testing.T) {
	srv, st := newTestServer(t, nil)

	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:x@test",
		"DTSTART;VALUE=DATE:20240701",
		"DTEND;VALUE=DATE:20240702",
		"SUMMARY:Mystery",
		"CATEGORIES:Nonexistent",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/calendar")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	got := decode[importResult](t, resp)
	if got.Imported != 1 {
		t.Fatalf("import result = %+v", got)
	}

	other, _ := st.State().CategoryByName(model.OtherCategoryName)
	events := st.Events()
	if len(events) != 1 || events[0].CategoryID != other.ID {
		t.Errorf("unknown category should map to Other: %+v", events)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	srv, _ := newTestServer(t, cfg)

	// /health stays open.
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/state", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d", resp.StatusCode)
	}
}

func TestStaticUIServed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "YearCal") {
		t.Error("embedded UI not served at /")
	}

	resp, err = http.Get(srv.URL + "/api/nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown api path status = %d", resp.StatusCode)
	}
}
