package app

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rdo34/fuel/internal/model"
)

const validationMessage = "Please fill in valid values for all fields."

// ValidationError lists the fields that did not parse.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return validationMessage
	}
	return validationMessage + " (" + strings.Join(e.Fields, ", ") + ")"
}

// Input is the raw text of the five editable fields.
type Input struct {
	Date   string
	Liters string
	Amount string
	Rate   string
	Meter  string
}

// InputFrom renders e back into form text.
func InputFrom(e model.Entry) Input {
	return Input{
		Date:   e.Date,
		Liters: fmtNum(e.Liters),
		Amount: fmtNum(e.Amount),
		Rate:   fmtNum(e.Rate),
		Meter:  strconv.FormatInt(e.Meter, 10),
	}
}

// Values is a validated Input.
type Values struct {
	Date   string
	Liters float64
	Amount float64
	Rate   float64
	Meter  int64
}

// Entry builds an entry with no derived values.
func (v Values) Entry(id string) model.Entry {
	return model.Entry{ID: id, Date: v.Date, Liters: v.Liters, Amount: v.Amount, Rate: v.Rate, Meter: v.Meter}
}

// Parse validates every field and reports all failures at once.
func (in Input) Parse() (Values, error) {
	var v Values
	var bad []string

	v.Date = strings.TrimSpace(in.Date)
	if _, err := time.Parse(model.DateLayout, v.Date); err != nil {
		bad = append(bad, "date")
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"liters", in.Liters, &v.Liters},
		{"amount", in.Amount, &v.Amount},
		{"rate", in.Rate, &v.Rate},
	} {
		n, ok := parseAmount(f.raw)
		if !ok {
			bad = append(bad, f.name)
			continue
		}
		*f.dst = n
	}
	m, err := strconv.ParseInt(strings.TrimSpace(in.Meter), 10, 64)
	if err != nil || m < 0 {
		bad = append(bad, "meter")
	}
	v.Meter = m

	if len(bad) > 0 {
		return Values{}, &ValidationError{Fields: bad}
	}
	return v, nil
}

func parseAmount(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return n, true
}

func fmtNum(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
