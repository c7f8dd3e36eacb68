// Package model defines the domain types shared across the application:
// persisted entities (Event, Category, Settings, State) and the derived
// per-render types produced by the layout engine (Day, Segment).
//
// Persisted dates are inclusive calendar dates in YYYY-MM-DD form with no
// time-of-day component; timestamps are RFC 3339 UTC strings.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Event is a multi-day calendar entry. StartDate and EndDate are both
// inclusive; StartDate <= EndDate always holds for stored events.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	CategoryID  string `json:"categoryId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Category groups events under a display name and hex color.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Settings holds user preferences carried in the persisted record.
type Settings struct {
	GridLayout  string `json:"gridLayout"`  // "3x4" or "4x3"
	DefaultView int    `json:"defaultView"` // year
}

// State is the versioned record persisted under the fixed storage key.
type State struct {
	Version    string     `json:"version"`
	Events     []Event    `json:"events"`
	Categories []Category `json:"categories"`
	Settings   Settings   `json:"settings"`
}

// Day is one calendar date within a rendering row. Derived per render,
// never persisted.
type Day struct {
	Date      string `json:"date"`      // YYYY-MM-DD
	DayOfWeek int    `json:"dayOfWeek"` // 0=Sunday .. 6=Saturday
	InMonth   bool   `json:"inMonth"`   // belongs to the row's target month
	Today     bool   `json:"today"`
	Weekend   bool   `json:"weekend"`
}

// Segment is the portion of one event's span that falls within a single
// row. Columns are 1-based; EndCol is exclusive, so EndCol-StartCol equals
// the number of covered days.
type Segment struct {
	EventID  string `json:"eventId"`
	StartCol int    `json:"startCol"`
	EndCol   int    `json:"endCol"`
	First    bool   `json:"first"`  // contains the event's true start
	Last     bool   `json:"last"`   // contains the event's true end
	Slot     int    `json:"slot"`   // vertical stacking lane
	Offset   int    `json:"offset"` // Slot * layout.RowHeight, in pixels
}

// EventDraft is a request to create an event. It is a distinct type from
// Event so handlers never pass around half-populated entities.
type EventDraft struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	CategoryID  string `json:"categoryId"`
}

// EventPatch is a request to edit an existing event. Nil fields are left
// untouched by the store.
type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

// CategoryDraft is a request to create a category.
type CategoryDraft struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryPatch is a request to edit a category. Nil fields are left
// untouched.
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

const (
	// StorageKey is the fixed key the state record is stored under.
	StorageKey = "calendar-data"
	// StorageVersion is the current record version.
	StorageVersion = "1.0.0"

	// OtherCategoryName is the undeletable fallback category. Events of a
	// deleted category are reassigned to it.
	OtherCategoryName = "Other"

	GridLayout3x4 = "3x4"
	GridLayout4x3 = "4x3"
)

// DefaultCategorySeed is a name/color pair used to build the default
// category set on first run.
type DefaultCategorySeed struct {
	Name  string
	Color string
}

// DefaultCategories are created when no valid persisted state exists.
var DefaultCategories = []DefaultCategorySeed{
	{Name: "Work", Color: "#3B82F6"},
	{Name: "Personal", Color: "#10B981"},
	{Name: "Important", Color: "#EF4444"},
	{Name: OtherCategoryName, Color: "#6B7280"},
}

// ColorPalette is the preset swatch list offered for category colors.
// Any 6-digit hex value is accepted; these are only suggestions.
var ColorPalette = []string{
	"#EF4444", "#F97316", "#F59E0B", "#EAB308", "#84CC16", "#10B981",
	"#14B8A6", "#06B6D4", "#0EA5E9", "#3B82F6", "#6366F1", "#8B5CF6",
	"#A855F7", "#D946EF", "#EC4899", "#F43F5E", "#6B7280",
}

var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var MonthNamesShort = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var DayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidHexColor reports whether s is a 6-digit hex color like "#3B82F6".
func ValidHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks an EventDraft at the request boundary. It returns an
// error naming the offending field; the store never sees invalid drafts.
func (d EventDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("title is required")
	}
	if d.StartDate == "" {
		return errors.New("startDate is required")
	}
	if d.EndDate == "" {
		return errors.New("endDate is required")
	}
	if d.CategoryID == "" {
		return errors.New("categoryId is required")
	}
	if !dateRe.MatchString(d.StartDate) {
		return fmt.Errorf("startDate %q is not a YYYY-MM-DD date", d.StartDate)
	}
	if !dateRe.MatchString(d.EndDate) {
		return fmt.Errorf("endDate %q is not a YYYY-MM-DD date", d.EndDate)
	}
	if d.StartDate > d.EndDate {
		return fmt.Errorf("startDate %s is after endDate %s", d.StartDate, d.EndDate)
	}
	return nil
}

// Validate checks an EventPatch. Only set fields are checked; if both dates
// are set they must be ordered. Cross-field ordering against unset fields
// is enforced by the store, which knows the current values.
func (p EventPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if p.StartDate != nil && !dateRe.MatchString(*p.StartDate) {
		return fmt.Errorf("startDate %q is not a YYYY-MM-DD date", *p.StartDate)
	}
	if p.EndDate != nil && !dateRe.MatchString(*p.EndDate) {
		return fmt.Errorf("endDate %q is not a YYYY-MM-DD date", *p.EndDate)
	}
	if p.StartDate != nil && p.EndDate != nil && *p.StartDate > *p.EndDate {
		return fmt.Errorf("startDate %s is after endDate %s", *p.StartDate, *p.EndDate)
	}
	return nil
}

// Validate checks a CategoryDraft.
func (d CategoryDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	if !ValidHexColor(d.Color) {
		return fmt.Errorf("color %q is not a 6-digit hex value", d.Color)
	}
	return nil
}

// Validate checks a CategoryPatch. Only set fields are checked.
func (p CategoryPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if p.Color != nil && !ValidHexColor(*p.Color) {
		return fmt.Errorf("color %q is not a 6-digit hex value", *p.Color)
	}
	return nil
}

// Clone returns a deep copy of the state so published snapshots are never
// aliased by mutation paths.
func (s *State) Clone() *State {
	out := &State{
		Version:    s.Version,
		Settings:   s.Settings,
		Events:     make([]Event, len(s.Events)),
		Categories: make([]Category, len(s.Categories)),
	}
	copy(out.Events, s.Events)
	copy(out.Categories, s.Categories)
	return out
}

// CategoryByID returns the category with the given id, if present.
func (s *State) CategoryByID(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryByName returns the first category with the given name.
func (s *State) CategoryByName(name string) (Category, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// EventByID returns the event with the given id, if present.
func (s *State) EventByID(id string) (Event, bool) {
	for _, e := range s.Events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}
