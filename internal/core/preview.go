package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// TimestampLayout is how timestamps are written in previews and exports.
const TimestampLayout = "2006-01-02 15:04:05"

// factColumn renders one fact column. numeric is nil for non-numeric columns.
type factColumn struct {
	text    func(f *Fact) string
	numeric func(f *Fact) (float64, bool)
}

var factColumns = map[string]factColumn{
	ColIncrementID:          {text: func(f *Fact) string { return f.IncrementID }},
	ColCreatedAt:            {text: func(f *Fact) string { return formatTime(f.CreatedAt, TimestampLayout) }},
	ColStatus:               {text: func(f *Fact) string { return f.Status }},
	ColPaymentMethod:        {text: func(f *Fact) string { return f.PaymentMethod }},
	ColGrandTotal:           number(func(f *Fact) float64 { return f.GrandTotal }),
	ColCustomerID:           integer(func(f *Fact) NullInt { return NullInt{Int: f.CustomerID, Valid: true} }),
	ColSalesCommissionCode:  {text: func(f *Fact) string { return f.SalesCommissionCode }},
	ColCustomerSince:        {text: func(f *Fact) string { return formatTime(f.CustomerSince, TimestampLayout) }},
	ColItemID:               integer(func(f *Fact) NullInt { return NullInt{Int: f.ItemID, Valid: true} }),
	ColQtyOrdered:           integer(func(f *Fact) NullInt { return NullInt{Int: f.QtyOrdered, Valid: true} }),
	ColPricePerUnitSold:     number(func(f *Fact) float64 { return f.PricePerUnitSold }),
	ColDiscountAmount:       number(func(f *Fact) float64 { return f.DiscountAmount }),
	ColSKU:                  {text: func(f *Fact) string { return f.SKU }},
	ColCategory:             {text: func(f *Fact) string { return f.Category }},
	ColProductOriginalPrice: number(func(f *Fact) float64 { return f.ProductOriginalPrice }),
	"total_price_per_item":  number(func(f *Fact) float64 { return f.TotalPricePerItem }),
	"net_item_sales":        number(func(f *Fact) float64 { return f.NetItemSales }),
	"order_date":            {text: func(f *Fact) string { return formatTime(f.OrderDate, DateLayout) }},
	"order_month":           {text: func(f *Fact) string { return f.OrderMonth.String() }},
	"year":                  integer(func(f *Fact) NullInt { return f.Year }),
	"day_of_week":           {text: func(f *Fact) string { return f.DayOfWeek }},
	"hour_of_day":           integer(func(f *Fact) NullInt { return f.HourOfDay }),
}

func number(get func(f *Fact) float64) factColumn {
	return factColumn{
		text:    func(f *Fact) string { return strconv.FormatFloat(get(f), 'f', -1, 64) },
		numeric: func(f *Fact) (float64, bool) { return get(f), true },
	}
}

func integer(get func(f *Fact) NullInt) factColumn {
	return factColumn{
		text: func(f *Fact) string {
			if v := get(f); v.Valid {
				return strconv.FormatInt(v.Int, 10)
			}
			return ""
		},
		numeric: func(f *Fact) (float64, bool) {
			v := get(f)
			return float64(v.Int), v.Valid
		},
	}
}

func formatTime(t NullTime, layout string) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(layout)
}

// FactTable renders facts as string rows in FactSchema column order.
type FactTable struct {
	columns []string
	render  []factColumn
}

// NewFactTable resolves the fact schema. It fails if the schema has a
// collision or a column without a renderer.
func NewFactTable() (*FactTable, error) {
	cols, err := FactSchema()
	if err != nil {
		return nil, err
	}
	render := make([]factColumn, len(cols))
	for i, c := range cols {
		fc, ok := factColumns[c]
		if !ok {
			return nil, fmt.Errorf("fact schema: no renderer for column %q", c)
		}
		render[i] = fc
	}
	return &FactTable{columns: cols, render: render}, nil
}

// Columns returns the header row.
func (t *FactTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Record renders one fact.
func (t *FactTable) Record(f *Fact) []string {
	rec := make([]string, len(t.render))
	for i, fc := range t.render {
		rec[i] = fc.text(f)
	}
	return rec
}

// ColumnStats are descriptive statistics of one numeric column.
// Std is the sample standard deviation; percentiles interpolate linearly.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// Describe computes ColumnStats for every numeric column. Null values are
// skipped; a column with no values has Count 0 and zero statistics.
// Std is 0 below two values.
func (t *FactTable) Describe(facts []Fact) []ColumnStats {
	var out []ColumnStats
	for i, fc := range t.render {
		if fc.numeric == nil {
			continue
		}
		vals := make([]float64, 0, len(facts))
		for j := range facts {
			if v, ok := fc.numeric(&facts[j]); ok {
				vals = append(vals, v)
			}
		}
		out = append(out, describe(t.columns[i], vals))
	}
	return out
}

func describe(col string, vals []float64) ColumnStats {
	s := ColumnStats{Column: col, Count: len(vals)}
	if len(vals) == 0 {
		return s
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	s.Mean = sum / float64(len(vals))

	if len(vals) > 1 {
		var ss float64
		for _, v := range vals {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(vals)-1))
	}

	sort.Float64s(vals)
	s.Min = vals[0]
	s.Max = vals[len(vals)-1]
	s.P25 = Quantile(vals, 0.25)
	s.P50 = Quantile(vals, 0.5)
	s.P75 = Quantile(vals, 0.75)
	return s
}

// Preview is a page of rendered fact rows plus column statistics.
type Preview struct {
	Columns  []string      `json:"columns"`
	Rows     [][]string    `json:"rows"`
	Offset   int           `json:"offset"`
	Total    int           `json:"total"`
	Describe []ColumnStats `json:"describe,omitempty"`
}

// Page renders facts[offset:offset+limit]. Statistics cover all facts, not just the page.
func (t *FactTable) Page(facts []Fact, offset, limit int, withStats bool) Preview {
	if offset < 0 {
		offset = 0
	}
	if offset > len(facts) {
		offset = len(facts)
	}
	end := len(facts)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	p := Preview{
		Columns: t.Columns(),
		Rows:    make([][]string, 0, end-offset),
		Offset:  offset,
		Total:   len(facts),
	}
	for i := offset; i < end; i++ {
		p.Rows = append(p.Rows, t.Record(&facts[i]))
	}
	if withStats {
		p.Describe = t.Describe(facts)
	}
	return p
}
