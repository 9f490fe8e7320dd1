// Package calc derives mileage and cost figures from the fuel log.
//
// Recompute is the only place derived fields are written. Callers run it
// over the whole collection after every mutation; nothing is patched
// incrementally.
package calc

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rdo34/fuel/internal/model"
)

// Recompute returns entries in odometer order with Mileage and Cost
// recalculated. Entries with equal meter readings keep their relative
// order. The input slice is left untouched.
func Recompute(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].ClearDerived()
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Meter < out[j].Meter })

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], &out[i]
		distance := cur.Meter - prev.Meter
		if distance <= 0 || cur.Liters <= 0 {
			continue
		}
		d := decimal.NewFromInt(distance)
		mileage := d.Div(decimal.NewFromFloat(cur.Liters)).Round(2).InexactFloat64()
		cost := decimal.NewFromFloat(cur.Amount).Div(d).Round(2).InexactFloat64()
		cur.Mileage = &mileage
		cur.Cost = &cost
	}
	return out
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
