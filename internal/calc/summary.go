package calc

import (
	"time"

	"github.com/rdo34/fuel/internal/model"
)

// Summary aggregates the entries dated within one calendar month.
// AvgMileage and AvgCost are nil when no entry in the month has the value.
type Summary struct {
	Month       model.Month `json:"month"`
	Count       int         `json:"count"`
	TotalCost   float64     `json:"total_cost"`
	TotalLiters float64     `json:"total_liters"`
	AvgMileage  *float64    `json:"avg_mileage"`
	AvgCost     *float64    `json:"avg_cost"`
}

// Summarize builds the summary for ref's month from a recomputed collection.
// Entries whose date does not parse are never counted.
func Summarize(entries []model.Entry, ref time.Time) Summary {
	s := Summary{Month: model.MonthOf(ref)}
	var mileage, cost mean
	for _, e := range entries {
		d, ok := e.Day()
		if !ok || !s.Month.Contains(d) {
			continue
		}
		s.Count++
		s.TotalCost += e.Amount
		s.TotalLiters += e.Liters
		mileage.add(e.Mileage)
		cost.add(e.Cost)
	}
	s.TotalCost = Round2(s.TotalCost)
	s.TotalLiters = Round2(s.TotalLiters)
	s.AvgMileage = mileage.result()
	s.AvgCost = cost.result()
	return s
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) result() *float64 {
	if m.n == 0 {
		return nil
	}
	v := Round2(m.sum / float64(m.n))
	return &v
}
