// Package filter selects fuel entries with CEL expressions.
//
// Expressions see one entry at a time through these variables:
//
//	id, date          string
//	year, month       int     (0 when date does not parse)
//	liters, amount,
//	rate              double
//	meter             int
//	mileage, cost     double or null
//
// Examples:
//
//	liters > 4.0
//	year == 2024 && month == 3
//	mileage != null && mileage < 15.0
package filter

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/rdo34/fuel/internal/model"
)

// Filter is a compiled predicate. The zero value matches everything.
type Filter struct {
	prog cel.Program
}

// Compile parses and type-checks expr. An empty expression yields a filter
// that matches every entry.
func Compile(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("date", cel.StringType),
		cel.Variable("year", cel.IntType),
		cel.Variable("month", cel.IntType),
		cel.Variable("liters", cel.DoubleType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("rate", cel.DoubleType),
		cel.Variable("meter", cel.IntType),
		cel.Variable("mileage", cel.DynType),
		cel.Variable("cost", cel.DynType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return Filter{}, fmt.Errorf("filter %q: must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog}, nil
}

// Match reports whether e satisfies the filter. Evaluation errors, such as
// comparing a null mileage with a number, count as no match.
func (f Filter) Match(e model.Entry) bool {
	if f.prog == nil {
		return true
	}
	out, _, err := f.prog.Eval(activation(e))
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Apply returns the entries that match, preserving order.
func (f Filter) Apply(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func activation(e model.Entry) map[string]any {
	var year, month int64
	if d, ok := e.Day(); ok {
		year, month = int64(d.Year()), int64(d.Month())
	}
	return map[string]any{
		"id":      e.ID,
		"date":    e.Date,
		"year":    year,
		"month":   month,
		"liters":  e.Liters,
		"amount":  e.Amount,
		"rate":    e.Rate,
		"meter":   e.Meter,
		"mileage": optional(e.Mileage),
		"cost":    optional(e.Cost),
	}
}

func optional(v *float64) any {
	if v == nil {
		return types.NullValue
	}
	return *v
}
