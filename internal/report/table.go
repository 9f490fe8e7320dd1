// Package report renders fuel entries and monthly summaries as fixed-width
// text, and wraps CLI results in a JSON envelope.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rdo34/fuel/internal/calc"
	"github.com/rdo34/fuel/internal/model"
)

// DefaultPlaceholder stands in for absent derived values.
const DefaultPlaceholder = "-"

const rowFormat = "%-*s  %-10s  %8s  %10s  %8s  %8s  %8s  %8s\n"

// EntryTable is the canonical collection as printed by `fuel list`.
type EntryTable struct {
	Entries     []model.Entry
	Placeholder string
}

func (t EntryTable) WriteText(w io.Writer) error {
	if len(t.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}
	idw := len("ID")
	for _, e := range t.Entries {
		idw = max(idw, len(e.ID))
	}
	if _, err := fmt.Fprintf(w, rowFormat, idw, "ID", "DATE", "LITERS", "AMOUNT", "RATE", "METER", "MILEAGE", "COST"); err != nil {
		return err
	}
	for _, e := range t.Entries {
		_, err := fmt.Fprintf(w, rowFormat, idw, e.ID, e.Date,
			Number(e.Liters), Number(e.Amount), Number(e.Rate),
			strconv.FormatInt(e.Meter, 10),
			Optional(e.Mileage, t.placeholder()), Optional(e.Cost, t.placeholder()))
		if err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON emits the bare entry array.
func (t EntryTable) MarshalJSON() ([]byte, error) {
	if t.Entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.Entries)
}

func (t EntryTable) placeholder() string {
	if t.Placeholder == "" {
		return DefaultPlaceholder
	}
	return t.Placeholder
}

// SummaryView is a monthly summary as printed by `fuel summary`.
type SummaryView struct {
	Summary     calc.Summary
	Placeholder string
}

func (v SummaryView) WriteText(w io.Writer) error {
	ph := v.Placeholder
	if ph == "" {
		ph = DefaultPlaceholder
	}
	s := v.Summary
	_, err := fmt.Fprintf(w, "%s\n%-14s%d\n%-14s%s\n%-14s%s\n%-14s%s\n%-14s%s\n",
		s.Month.Label(),
		"Entries", s.Count,
		"Total cost", Number(s.TotalCost),
		"Total liters", Number(s.TotalLiters),
		"Avg mileage", Optional(s.AvgMileage, ph),
		"Avg cost", Optional(s.AvgCost, ph))
	return err
}

func (v SummaryView) MarshalJSON() ([]byte, error) { return json.Marshal(v.Summary) }

// Number formats v with two decimals.
func Number(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// Optional formats v, or returns placeholder when v is nil.
func Optional(v *float64, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return Number(*v)
}
