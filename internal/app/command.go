package app

import (
	"errors"
	"fmt"

	"github.com/rdo34/fuel/internal/model"
	"github.com/rdo34/fuel/internal/store"
)

// Command is a user action emitted by a presentation adapter.
type Command interface{ isCommand() }

// Submit creates an entry, or replaces the one being edited.
type Submit struct {
	Input Input
	// Confirmed skips the tank capacity prompt.
	Confirmed bool
}

// RequestEdit switches to Editing for ID.
type RequestEdit struct{ ID string }

// CancelEdit returns to Creating.
type CancelEdit struct{}

// RequestDelete removes ID once confirmed.
type RequestDelete struct {
	ID        string
	Confirmed bool
}

func (Submit) isCommand()        {}
func (RequestEdit) isCommand()   {}
func (CancelEdit) isCommand()    {}
func (RequestDelete) isCommand() {}

// Result reports what a command did.
type Result struct {
	// Entry is the created, updated, edited or deleted entry.
	Entry   model.Entry
	Changed bool
}

// ConfirmationRequired asks the adapter to confirm before retrying.
// Dispatching Retry performs the action; dropping it cancels.
type ConfirmationRequired struct {
	Prompt string
	Retry  Command
}

func (c *ConfirmationRequired) Error() string { return c.Prompt }

// IsConfirmation unwraps a *ConfirmationRequired from err.
func IsConfirmation(err error) (*ConfirmationRequired, bool) {
	var c *ConfirmationRequired
	ok := errors.As(err, &c)
	return c, ok
}

// Dispatch applies cmd to the state. Validation failures come back as
// *ValidationError, gated actions as *ConfirmationRequired; in both cases
// nothing changed.
func (a *App) Dispatch(cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case Submit:
		return a.submit(c)
	case RequestEdit:
		return a.requestEdit(c)
	case CancelEdit:
		a.state.Mode = Creating{}
		return Result{}, nil
	case RequestDelete:
		return a.requestDelete(c)
	default:
		return Result{}, fmt.Errorf("unknown command %T", cmd)
	}
}

func (a *App) submit(c Submit) (Result, error) {
	v, err := c.Input.Parse()
	if err != nil {
		a.logger.Debug("submission rejected", "error", err)
		return Result{}, err
	}
	if v.Liters > a.tank && !c.Confirmed {
		retry := c
		retry.Confirmed = true
		return Result{}, &ConfirmationRequired{
			Prompt: fmt.Sprintf("You entered %s L which is more than tank capacity (%s L). Continue?", fmtNum(v.Liters), fmtNum(a.tank)),
			Retry:  retry,
		}
	}

	var id string
	if ed, ok := a.state.Mode.(Editing); ok {
		id = ed.ID
	} else {
		id = a.newID()
	}
	e := v.Entry(id)
	if err := a.commit(store.Upsert(a.state.Entries, e), Creating{}); err != nil {
		return Result{}, err
	}
	saved, _ := a.Lookup(id)
	a.logger.Info("entry saved", "id", id, "meter", e.Meter)
	return Result{Entry: saved, Changed: true}, nil
}

func (a *App) requestEdit(c RequestEdit) (Result, error) {
	e, err := a.Lookup(c.ID)
	if err != nil {
		return Result{}, nil
	}
	a.state.Mode = Editing{ID: c.ID}
	return Result{Entry: e}, nil
}

func (a *App) requestDelete(c RequestDelete) (Result, error) {
	e, err := a.Lookup(c.ID)
	if err != nil {
		return Result{}, nil
	}
	if !c.Confirmed {
		return Result{}, &ConfirmationRequired{
			Prompt: "Are you sure you want to delete this entry?",
			Retry:  RequestDelete{ID: c.ID, Confirmed: true},
		}
	}
	mode := a.state.Mode
	if ed, ok := mode.(Editing); ok && ed.ID == c.ID {
		mode = Creating{}
	}
	if err := a.commit(store.Remove(a.state.Entries, c.ID), mode); err != nil {
		return Result{}, err
	}
	a.logger.Info("entry deleted", "id", c.ID)
	return Result{Entry: e, Changed: true}, nil
}
