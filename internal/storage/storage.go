// Package storage persists the calendar state as one versioned JSON record
// under a fixed key in a SQLite-backed key-value table. The record is
// replaced whole on every save; there is no partial-update path.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"yearcal/internal/log"
	"yearcal/internal/model"
)

// Backend is the narrow persistence interface the store consumes. It
// exists so store tests can run against an in-memory implementation.
type Backend interface {
	// LoadState returns the persisted state. Missing or malformed records
	// are replaced with defaults; backfilled reports whether the caller
	// should save the returned state back.
	LoadState() (state *model.State, backfilled bool, err error)

	// SaveState replaces the whole persisted record.
	SaveState(state *model.State) error

	Close() error
}

// DB is the SQLite-backed Backend.
type DB struct {
	db *sql.DB
}

var _ Backend = (*DB)(nil)

// Open opens (or creates) the database at path and ensures the kv table
// exists. Parent directories are created as needed.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// LoadState loads the record stored under model.StorageKey. A missing row,
// unparseable JSON, or a record failing the shape contract is silently
// replaced with freshly generated defaults (logged, not surfaced to the
// user). A partial record keeps whatever valid sections it has and
// backfills the rest.
func (d *DB) LoadState() (*model.State, bool, error) {
	var raw string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, model.StorageKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("storage: no saved state, starting from defaults")
		return InitialState(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read state record: %w", err)
	}

	state, backfilled := decodeState([]byte(raw))
	return state, backfilled, nil
}

// SaveState writes the whole record in one UPSERT.
func (d *DB) SaveState(state *model.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		model.StorageKey, string(data),
	)
	if err != nil {
		return fmt.Errorf("write state record: %w", err)
	}
	return nil
}

// InitialState builds a fresh default state: empty events, the four
// default categories, and default settings for the current year.
func InitialState() *model.State {
	now := time.Now().UTC().Format(time.RFC3339)

	categories := make([]model.Category, 0, len(model.DefaultCategories))
	for _, seed := range model.DefaultCategories {
		categories = append(categories, model.Category{
			ID:        uuid.New().String(),
			Name:      seed.Name,
			Color:     seed.Color,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return &model.State{
		Version:    model.StorageVersion,
		Events:     []model.Event{},
		Categories: categories,
		Settings: model.Settings{
			GridLayout:  model.GridLayout3x4,
			DefaultView: time.Now().Year(),
		},
	}
}

// rawState defers section decoding so a record can be judged section by
// section: absent sections are backfilled, present-but-wrong-type sections
// invalidate the whole record.
type rawState struct {
	Version    string          `json:"version"`
	Events     json.RawMessage `json:"events"`
	Categories json.RawMessage `json:"categories"`
	Settings   json.RawMessage `json:"settings"`
}

// decodeState applies the validation and migration contracts to a raw
// record. It never fails: the worst outcome is a full reset to defaults.
func decodeState(data []byte) (*model.State, bool) {
	defaults := InitialState()

	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Error("storage: malformed state record, resetting to defaults", err)
		return defaults, true
	}

	out := &model.State{Version: model.StorageVersion}
	backfilled := raw.Version != model.StorageVersion

	switch {
	case sectionAbsent(raw.Events):
		out.Events = defaults.Events
		backfilled = true
	default:
		if err := json.Unmarshal(raw.Events, &out.Events); err != nil {
			log.Error("storage: events section is not an array, resetting to defaults", err)
			return defaults, true
		}
		if out.Events == nil {
			out.Events = []model.Event{}
		}
	}

	switch {
	case sectionAbsent(raw.Categories):
		out.Categories = defaults.Categories
		backfilled = true
	default:
		if err := json.Unmarshal(raw.Categories, &out.Categories); err != nil {
			log.Error("storage: categories section is not an array, resetting to defaults", err)
			return defaults, true
		}
	}

	switch {
	case sectionAbsent(raw.Settings):
		out.Settings = defaults.Settings
		backfilled = true
	default:
		if err := json.Unmarshal(raw.Settings, &out.Settings); err != nil {
			log.Error("storage: settings section is not an object, resetting to defaults", err)
			return defaults, true
		}
	}

	return out, backfilled
}

func sectionAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
