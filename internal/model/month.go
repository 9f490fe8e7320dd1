package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MonthLayout is the YYYY-MM form used on the command line and in prefs.
const MonthLayout = "2006-01"

// Month is a calendar month bucket used by the summary view.
type Month struct {
	Year  int
	Month time.Month
}

type DateRange struct {
	Start time.Time
	End   time.Time
}

func MonthOf(t time.Time) Month {
	y, m, _ := t.Date()
	return Month{Year: y, Month: m}
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

func (m Month) Contains(t time.Time) bool {
	y, mm, _ := t.Date()
	return y == m.Year && mm == m.Month
}

func (m Month) First() time.Time { return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC) }

func (m Month) Next() Month { return MonthOf(m.First().AddDate(0, 1, 0)) }
func (m Month) Prev() Month { return MonthOf(m.First().AddDate(0, -1, 0)) }

// Range returns the first and last day of the month.
func (m Month) Range() DateRange {
	start := m.First()
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

func (m Month) String() string { return m.First().Format(MonthLayout) }

// Label renders the month for display, e.g. "October 2026".
func (m Month) Label() string { return m.First().Format("January 2006") }

func (m Month) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }
