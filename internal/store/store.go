// Package store owns the canonical calendar state. It is the only writer:
// every mutation copies the current snapshot, computes the next state,
// persists it through the storage backend, and then publishes it with a
// single assignment. Readers always see a complete state, never a partial
// update.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"yearcal/internal/dateutil"
	"yearcal/internal/layout"
	"yearcal/internal/log"
	"yearcal/internal/model"
	"yearcal/internal/storage"
)

var (
	// ErrCategoryNotFound is returned when an event references a category
	// id that does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrOtherCategoryUndeletable is returned on attempts to delete the
	// "Other" fallback category.
	ErrOtherCategoryUndeletable = errors.New(`the "Other" category cannot be deleted`)

	// ErrOtherCategoryMissing indicates a corrupted default set: category
	// deletion needs "Other" as the reassignment target and it is absent.
	ErrOtherCategoryMissing = errors.New(`"Other" category not found`)

	// ErrInvalidRange is returned when a merge would leave an event with
	// its start date after its end date.
	ErrInvalidRange = errors.New("start date is after end date")
)

// Store is the single-writer application-state controller.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	state   *model.State

	now func() time.Time // injectable for tests
}

// Open loads persisted state from the backend, repairs the "Other"
// category invariant if needed, saves back any backfilled defaults, and
// publishes the initial snapshot.
func Open(backend storage.Backend) (*Store, error) {
	state, backfilled, err := backend.LoadState()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	s := &Store{backend: backend, now: time.Now}

	if _, ok := state.CategoryByName(model.OtherCategoryName); !ok {
		log.Warn(`store: "Other" category missing from loaded state, restoring it`)
		ts := s.timestamp()
		state.Categories = append(state.Categories, model.Category{
			ID:        uuid.New().String(),
			Name:      model.OtherCategoryName,
			Color:     "#6B7280",
			CreatedAt: ts,
			UpdatedAt: ts,
		})
		backfilled = true
	}

	if backfilled {
		if err := backend.SaveState(state); err != nil {
			return nil, fmt.Errorf("save backfilled state: %w", err)
		}
	}

	s.state = state
	return s, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// publish persists next and, on success, makes it the visible snapshot.
func (s *Store) publish(next *model.State) error {
	if err := s.backend.SaveState(next); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.state = next
	return nil
}

// State returns a deep copy of the current snapshot.
func (s *Store) State() *model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Events returns a copy of the current event list.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.state.Events))
	copy(out, s.state.Events)
	return out
}

// Categories returns a copy of the current category list.
func (s *Store) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, len(s.state.Categories))
	copy(out, s.state.Categories)
	return out
}

// Settings returns the current settings.
func (s *Store) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Settings
}

// EventsInRange returns the events overlapping [start, end], unsorted.
func (s *Store) EventsInRange(start, end string) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return layout.Overlapping(s.state.Events, start, end)
}

// AddEvent creates an event from a validated draft, assigning id and
// timestamps.
func (s *Store) AddEvent(draft model.EventDraft) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.CategoryByID(draft.CategoryID); !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, draft.CategoryID)
	}

	ts := s.timestamp()
	event := model.Event{
		ID:          uuid.New().String(),
		Title:       draft.Title,
		Description: draft.Description,
		Notes:       draft.Notes,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		CategoryID:  draft.CategoryID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	next := s.state.Clone()
	next.Events = append(next.Events, event)
	if err := s.publish(next); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// UpdateEvent merges the set fields of patch into the event and refreshes
// its update timestamp. An unknown id is a silent no-op.
func (s *Store) UpdateEvent(id string, patch model.EventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := -1
	for i := range next.Events {
		if next.Events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Debug("store: update for unknown event", "event_id", id)
		return nil
	}

	e := next.Events[idx]
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	if patch.StartDate != nil {
		e.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		e.EndDate = *patch.EndDate
	}
	if patch.CategoryID != nil {
		if _, ok := next.CategoryByID(*patch.CategoryID); !ok {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, *patch.CategoryID)
		}
		e.CategoryID = *patch.CategoryID
	}
	if e.StartDate > e.EndDate {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, e.StartDate, e.EndDate)
	}
	e.UpdatedAt = s.timestamp()
	next.Events[idx] = e

	return s.publish(next)
}

// DeleteEvent removes the event with the given id; deleting an absent id
// is a no-op.
func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	kept := next.Events[:0]
	for _, e := range next.Events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(next.Events) {
		return nil
	}
	next.Events = kept

	return s.publish(next)
}

// MoveEvent resolves a completed drag: the event keeps its duration and is
// repositioned so its start date equals targetDate. An empty target (drop
// outside any droppable region) and an unknown id are both no-ops.
func (s *Store) MoveEvent(id, targetDate string) error {
	if targetDate == "" {
		return nil
	}
	if _, err := dateutil.ParseDate(targetDate); err != nil {
		return fmt.Errorf("invalid drop target date %q: %w", targetDate, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	for i := range next.Events {
		if next.Events[i].ID != id {
			continue
		}
		e := next.Events[i]
		duration := dateutil.Duration(e.StartDate, e.EndDate)
		e.StartDate = targetDate
		e.EndDate = dateutil.AddDays(targetDate, duration)
		e.UpdatedAt = s.timestamp()
		next.Events[i] = e
		return s.publish(next)
	}

	log.Debug("store: move for unknown event", "event_id", id)
	return nil
}

// AddCategory creates a category from a validated draft.
func (s *Store) AddCategory(draft model.CategoryDraft) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.timestamp()
	category := model.Category{
		ID:        uuid.New().String(),
		Name:      draft.Name,
		Color:     draft.Color,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	next := s.state.Clone()
	next.Categories = append(next.Categories, category)
	if err := s.publish(next); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

// UpdateCategory merges the set fields of patch into the category. An
// unknown id is a silent no-op. Renaming "Other" is rejected so the
// fallback invariant cannot be broken by a rename.
func (s *Store) UpdateCategory(id string, patch model.CategoryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	for i := range next.Categories {
		if next.Categories[i].ID != id {
			continue
		}
		c := next.Categories[i]
		if patch.Name != nil && *patch.Name != c.Name {
			if c.Name == model.OtherCategoryName {
				return ErrOtherCategoryUndeletable
			}
			c.Name = *patch.Name
		}
		if patch.Color != nil {
			c.Color = *patch.Color
		}
		c.UpdatedAt = s.timestamp()
		next.Categories[i] = c
		return s.publish(next)
	}

	log.Debug("store: update for unknown category", "category_id", id)
	return nil
}

// DeleteCategory removes a category and reassigns its events to "Other".
// Deleting "Other" itself is rejected; deleting an already-absent id is a
// no-op. A missing "Other" category indicates a corrupted default set: the
// deletion is aborted and logged.
func (s *Store) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.state.CategoryByID(id)
	if !ok {
		return nil
	}
	if target.Name == model.OtherCategoryName {
		return ErrOtherCategoryUndeletable
	}

	other, ok := s.state.CategoryByName(model.OtherCategoryName)
	if !ok {
		log.Error("store: cannot delete category", ErrOtherCategoryMissing, "category_id", id)
		return ErrOtherCategoryMissing
	}

	ts := s.timestamp()
	next := s.state.Clone()

	kept := next.Categories[:0]
	for _, c := range next.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	next.Categories = kept

	for i := range next.Events {
		if next.Events[i].CategoryID == id {
			next.Events[i].CategoryID = other.ID
			next.Events[i].UpdatedAt = ts
		}
	}

	return s.publish(next)
}

// SetSettings replaces the stored settings.
func (s *Store) SetSettings(settings model.Settings) error {
	if settings.GridLayout != model.GridLayout3x4 && settings.GridLayout != model.GridLayout4x3 {
		return fmt.Errorf("unknown grid layout %q", settings.GridLayout)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Settings = settings
	return s.publish(next)
}
