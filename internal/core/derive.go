package core

import (
	"time"
)

// DeriveFeatures fills the derived fields of every fact in place and returns the slice.
// Calendar buckets are left null when created_at is null.
func DeriveFeatures(facts []Fact) []Fact {
	for i := range facts {
		deriveFact(&facts[i])
	}
	return facts
}

func deriveFact(f *Fact) {
	f.TotalPricePerItem = float64(f.QtyOrdered) * f.PricePerUnitSold
	f.NetItemSales = f.TotalPricePerItem - f.DiscountAmount

	f.OrderDate = NullTime{}
	f.OrderMonth = Month{}
	f.Year = NullInt{}
	f.DayOfWeek = ""
	f.HourOfDay = NullInt{}

	if !f.CreatedAt.Valid {
		return
	}
	t := f.CreatedAt.Time
	f.OrderDate = NullTime{Time: truncateToDay(t), Valid: true}
	f.OrderMonth = MonthOf(t)
	f.Year = NullInt{Int: int64(t.Year()), Valid: true}
	f.DayOfWeek = t.Weekday().String()
	f.HourOfDay = NullInt{Int: int64(t.Hour()), Valid: true}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
