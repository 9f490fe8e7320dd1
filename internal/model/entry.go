package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for entry dates.
const DateLayout = "2006-01-02"

// Entry is one refueling event. Mileage and Cost are derived by the
// recompute pass and are nil when they cannot be computed.
type Entry struct {
	ID      string   `json:"id"`
	Date    string   `json:"date"`
	Liters  float64  `json:"liters"`
	Amount  float64  `json:"amount"`
	Rate    float64  `json:"rate"`
	Meter   int64    `json:"meter"`
	Mileage *float64 `json:"mileage"`
	Cost    *float64 `json:"cost"`
}

// Day parses Date. ok is false for empty or malformed dates.
func (e Entry) Day() (time.Time, bool) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(e.Date))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ClearDerived drops Mileage and Cost.
func (e *Entry) ClearDerived() {
	e.Mileage = nil
	e.Cost = nil
}

// UnmarshalJSON accepts records written by older clients, where numbers may
// be stored as strings and ids as millisecond timestamps.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      flexString `json:"id"`
		Date    flexString `json:"date"`
		Liters  flexNumber `json:"liters"`
		Amount  flexNumber `json:"amount"`
		Rate    flexNumber `json:"rate"`
		Meter   flexNumber `json:"meter"`
		Mileage flexNumber `json:"mileage"`
		Cost    flexNumber `json:"cost"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		ID:      string(raw.ID),
		Date:    string(raw.Date),
		Liters:  raw.Liters.value(),
		Amount:  raw.Amount.value(),
		Rate:    raw.Rate.value(),
		Meter:   toMeter(raw.Meter.value()),
		Mileage: raw.Mileage.ptr(),
		Cost:    raw.Cost.ptr(),
	}
	return nil
}

// flexNumber decodes a JSON number, numeric string or null.
type flexNumber struct {
	v   float64
	set bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = flexNumber{}
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	*n = flexNumber{v: ParseNumber(s), set: strings.TrimSpace(s) != ""}
	return nil
}

func (n flexNumber) value() float64 { return n.v }

func (n flexNumber) ptr() *float64 {
	if !n.set {
		return nil
	}
	v := n.v
	return &v
}

// flexString decodes a JSON string or number into its text form.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// ParseNumber coerces text to a finite float. Malformed or non-finite input
// yields 0.
func ParseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toMeter truncates f to an odometer reading. Values outside the int64
// range coerce to 0 like other unusable numbers.
func toMeter(f float64) int64 {
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// Index returns the position of the entry with id, or -1.
func Index(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
