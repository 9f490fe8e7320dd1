package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rdo34/fuel/internal/calc"
	"github.com/rdo34/fuel/internal/model"
	"github.com/rdo34/fuel/internal/store"
)

// ErrUnknownEntry is returned by lookups for an id that is not in the log.
var ErrUnknownEntry = errors.New("no entry with that id")

// Mode is either Creating or Editing.
type Mode interface{ isMode() }

// Creating means the next Submit adds a new entry.
type Creating struct{}

// Editing means the next Submit replaces the entry with ID.
type Editing struct{ ID string }

func (Creating) isMode() {}
func (Editing) isMode()  {}

// State is everything the controller owns.
type State struct {
	Entries []model.Entry
	Mode    Mode
}

// Options tune an App. Zero values select defaults.
type Options struct {
	TankCapacity float64
	NewID        func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// App holds application state and applies commands to it.
type App struct {
	log    *store.Log
	state  State
	tank   float64
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

func New(l *store.Log, opts Options) *App {
	a := &App{
		log:    l,
		state:  State{Entries: []model.Entry{}, Mode: Creating{}},
		tank:   opts.TankCapacity,
		newID:  opts.NewID,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if a.tank <= 0 {
		a.tank = 5
	}
	if a.newID == nil {
		a.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "app")
	return a
}

// Load reads the persisted log and recomputes it. Records without an id,
// or sharing an id with an earlier record, get a fresh one. The log is
// written back only when an id was repaired.
func (a *App) Load() {
	loaded := a.log.Load()
	repaired := a.assignIDs(loaded, make(map[string]bool, len(loaded)))
	a.state.Entries = calc.Recompute(loaded)
	a.state.Mode = Creating{}
	if repaired > 0 {
		if err := a.log.Save(a.state.Entries); err != nil {
			a.logger.Warn("persist repaired ids failed", "repaired", repaired, "error", err)
		} else {
			a.logger.Info("repaired entry ids", "repaired", repaired)
		}
	}
	a.logger.Debug("log loaded", "entries", len(a.state.Entries))
}

// Entries returns the canonical collection. Callers must not modify it.
func (a *App) Entries() []model.Entry { return a.state.Entries }

func (a *App) Mode() Mode { return a.state.Mode }

// State returns a copy of the controller state.
func (a *App) State() State {
	return State{Entries: append([]model.Entry(nil), a.state.Entries...), Mode: a.state.Mode}
}

func (a *App) TankCapacity() float64 { return a.tank }

// Lookup finds an entry by id.
func (a *App) Lookup(id string) (model.Entry, error) {
	i := model.Index(a.state.Entries, id)
	if i < 0 {
		return model.Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	return a.state.Entries[i], nil
}

// Summary aggregates the given month.
func (a *App) Summary(m model.Month) calc.Summary {
	return calc.Summarize(a.state.Entries, m.First())
}

// CurrentMonth is the month of the injected clock.
func (a *App) CurrentMonth() model.Month { return model.MonthOf(a.now()) }

// commit recomputes next and persists it. State only changes when the
// write succeeds.
func (a *App) commit(next []model.Entry, mode Mode) error {
	canon := calc.Recompute(next)
	if err := a.log.Save(canon); err != nil {
		a.logger.Error("save failed", "error", err)
		return err
	}
	a.state = State{Entries: canon, Mode: mode}
	return nil
}

// assignIDs gives every entry whose id is empty or already in seen a
// fresh one, and records each id in seen. It returns how many changed.
func (a *App) assignIDs(entries []model.Entry, seen map[string]bool) int {
	n := 0
	for i := range entries {
		if entries[i].ID == "" || seen[entries[i].ID] {
			entries[i].ID = a.newID()
			n++
		}
		seen[entries[i].ID] = true
	}
	return n
}

// Rejected is an import record that failed validation.
type Rejected struct {
	Index  int      `json:"index"`
	Fields []string `json:"fields"`
}

// ImportError is returned when any record fails validation. Nothing is
// imported in that case.
type ImportError struct {
	Total    int
	Rejected []Rejected
}

func (e *ImportError) Error() string {
	parts := make([]string, len(e.Rejected))
	for i, r := range e.Rejected {
		parts[i] = fmt.Sprintf("#%d (%s)", r.Index+1, strings.Join(r.Fields, ", "))
	}
	return fmt.Sprintf("%d of %d records invalid: %s", len(e.Rejected), e.Total, strings.Join(parts, "; "))
}

// Import adds entries in bulk. Each record goes through the same checks
// as a submitted form. Entries without an id, or whose id is already
// present, get a fresh one. Returns how many were added.
func (a *App) Import(entries []model.Entry) (int, error) {
	added := make([]model.Entry, 0, len(entries))
	var rejected []Rejected
	for i, e := range entries {
		v, err := InputFrom(e).Parse()
		if err != nil {
			r := Rejected{Index: i}
			var ve *ValidationError
			if errors.As(err, &ve) {
				r.Fields = ve.Fields
			}
			rejected = append(rejected, r)
			continue
		}
		added = append(added, v.Entry(e.ID))
	}
	if len(rejected) > 0 {
		return 0, &ImportError{Total: len(entries), Rejected: rejected}
	}

	seen := make(map[string]bool, len(a.state.Entries)+len(added))
	for _, e := range a.state.Entries {
		seen[e.ID] = true
	}
	a.assignIDs(added, seen)

	next := append(append([]model.Entry(nil), a.state.Entries...), added...)
	if err := a.commit(next, a.state.Mode); err != nil {
		return 0, err
	}
	a.logger.Info("entries imported", "count", len(added))
	return len(added), nil
}
