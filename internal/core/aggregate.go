package core

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Weekdays in display order. Weekday series always carry all seven.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// KPIs are the headline metrics of a view. Every field is zero for an empty view.
type KPIs struct {
	NetSales           float64 `json:"netSales"`
	Orders             int     `json:"orders"`
	Customers          int     `json:"customers"`
	SKUs               int     `json:"skus"`
	AvgOrderValue      float64 `json:"avgOrderValue"`
	TotalDiscount      float64 `json:"totalDiscount"`
	AvgDiscountPerLine float64 `json:"avgDiscountPerLine"`
	PreDiscountTotal   float64 `json:"preDiscountTotal"`
	DiscountPct        float64 `json:"discountPct"`
}

// ComputeKPIs aggregates the view. AvgOrderValue is the mean of per-order net
// sales; DiscountPct is TotalDiscount over PreDiscountTotal in percent, and 0
// when there is nothing to divide by.
func ComputeKPIs(v View) KPIs {
	var k KPIs
	if len(v.Facts) == 0 {
		return k
	}

	perOrder := make(map[string]float64)
	customers := make(map[int64]struct{})
	skus := make(map[string]struct{})
	for i := range v.Facts {
		f := &v.Facts[i]
		k.NetSales += f.NetItemSales
		k.TotalDiscount += f.DiscountAmount
		k.PreDiscountTotal += f.TotalPricePerItem
		perOrder[f.IncrementID] += f.NetItemSales
		customers[f.CustomerID] = struct{}{}
		skus[f.SKU] = struct{}{}
	}

	k.Orders = len(perOrder)
	k.Customers = len(customers)
	k.SKUs = len(skus)
	k.AvgDiscountPerLine = k.TotalDiscount / float64(len(v.Facts))

	if k.Orders > 0 {
		var sum float64
		for _, net := range perOrder {
			sum += net
		}
		k.AvgOrderValue = sum / float64(k.Orders)
	}
	if k.PreDiscountTotal > 0 {
		k.DiscountPct = k.TotalDiscount / k.PreDiscountTotal * 100
	}
	return k
}

// Point is one (bucket, value) pair of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is an ordered sequence of points.
type Series []Point

// Dimension is a categorical fact attribute used for grouping.
type Dimension int

const (
	ByCustomer Dimension = iota
	ByCategory
	BySKU
	ByStatus
	ByPaymentMethod
)

func (d Dimension) String() string {
	switch d {
	case ByCustomer:
		return "customer"
	case ByCategory:
		return "category"
	case BySKU:
		return "sku"
	case ByStatus:
		return "status"
	case ByPaymentMethod:
		return "payment_method"
	default:
		return "Dimension(" + strconv.Itoa(int(d)) + ")"
	}
}

// key returns the grouping label of f. Null values are excluded from groups.
func (d Dimension) key(f *Fact) (string, bool) {
	switch d {
	case ByCustomer:
		return strconv.FormatInt(f.CustomerID, 10), true
	case ByCategory:
		return f.Category, f.Category != ""
	case BySKU:
		return f.SKU, f.SKU != ""
	case ByStatus:
		return f.Status, f.Status != ""
	case ByPaymentMethod:
		return f.PaymentMethod, f.PaymentMethod != ""
	}
	return "", false
}

// TopByNetSales sums net sales per group and returns the n largest, descending.
// n <= 0 returns every group. Ties are ordered by label.
func TopByNetSales(v View, d Dimension, n int) Series {
	sums := make(map[string]float64)
	for i := range v.Facts {
		if k, ok := d.key(&v.Facts[i]); ok {
			sums[k] += v.Facts[i].NetItemSales
		}
	}
	return topN(sums, n)
}

// TopByCount counts fact rows per group and returns the n largest, descending.
// n <= 0 returns every group. Ties are ordered by label.
func TopByCount(v View, d Dimension, n int) Series {
	counts := make(map[string]float64)
	for i := range v.Facts {
		if k, ok := d.key(&v.Facts[i]); ok {
			counts[k]++
		}
	}
	return topN(counts, n)
}

func topN(m map[string]float64, n int) Series {
	s := make(Series, 0, len(m))
	for k, val := range m {
		s = append(s, Point{Label: k, Value: val})
	}
	sort.Slice(s, func(i, j int) bool {
		if s[i].Value != s[j].Value {
			return s[i].Value > s[j].Value
		}
		return s[i].Label < s[j].Label
	})
	if n > 0 && len(s) > n {
		s = s[:n]
	}
	return s
}

// SalesByWeekday sums net sales per weekday, Monday first, with zero for
// weekdays that have no sales.
func SalesByWeekday(v View) Series {
	sums := make(map[string]float64, 7)
	for i := range v.Facts {
		if d := v.Facts[i].DayOfWeek; d != "" {
			sums[d] += v.Facts[i].NetItemSales
		}
	}
	s := make(Series, len(Weekdays))
	for i, wd := range Weekdays {
		name := wd.String()
		s[i] = Point{Label: name, Value: sums[name]}
	}
	return s
}

// PeakWeekday returns the weekday with the highest net sales. Ties resolve to
// the earliest weekday in Monday-first order. ok is false for an empty view.
func PeakWeekday(v View) (string, bool) {
	if len(v.Facts) == 0 {
		return "", false
	}
	s := SalesByWeekday(v)
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i].Value > s[best].Value {
			best = i
		}
	}
	return s[best].Label, true
}

// SalesByHour sums net sales per hour of day for the hours present, ascending.
func SalesByHour(v View) Series {
	var sums [24]float64
	var present [24]bool
	for i := range v.Facts {
		h := v.Facts[i].HourOfDay
		if !h.Valid || h.Int < 0 || h.Int > 23 {
			continue
		}
		sums[h.Int] += v.Facts[i].NetItemSales
		present[h.Int] = true
	}
	s := Series{}
	for h := 0; h < 24; h++ {
		if present[h] {
			s = append(s, Point{Label: strconv.Itoa(h), Value: sums[h]})
		}
	}
	return s
}

// SalesByMonth sums net sales per YYYY-MM bucket in chronological order.
func SalesByMonth(v View) Series {
	sums := make(map[Month]float64)
	for i := range v.Facts {
		if m := v.Facts[i].OrderMonth; !m.IsZero() {
			sums[m] += v.Facts[i].NetItemSales
		}
	}
	months := make([]Month, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Key() < months[j].Key() })

	s := make(Series, len(months))
	for i, m := range months {
		s[i] = Point{Label: m.String(), Value: sums[m]}
	}
	return s
}

// SalesByDay sums net sales per calendar day in chronological order.
func SalesByDay(v View) Series {
	sums := make(map[time.Time]float64)
	for i := range v.Facts {
		if d := v.Facts[i].OrderDate; d.Valid {
			sums[d.Time] += v.Facts[i].NetItemSales
		}
	}
	days := make([]time.Time, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	s := make(Series, len(days))
	for i, d := range days {
		s[i] = Point{Label: d.Format(DateLayout), Value: sums[d]}
	}
	return s
}

// OrdersBySinceYear counts fact rows per order year, ascending. The year is
// taken from created_at so that every dated row has one.
func OrdersBySinceYear(v View) Series {
	counts := make(map[int64]float64)
	for i := range v.Facts {
		if y := v.Facts[i].Year; y.Valid {
			counts[y.Int]++
		}
	}
	years := make([]int64, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })

	s := make(Series, len(years))
	for i, y := range years {
		s[i] = Point{Label: strconv.FormatInt(y, 10), Value: counts[y]}
	}
	return s
}

// ScatterPoint is one fact plotted as catalog price against discount.
type ScatterPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Category string  `json:"category"`
	SKU      string  `json:"sku"`
}

// Scatter is the price-vs-discount relationship with clipped axis ranges.
type Scatter struct {
	Points []ScatterPoint `json:"points"`
	XMax   float64        `json:"xMax"`
	YMax   float64        `json:"yMax"`
}

// PriceDiscountPoints plots product_original_price against discount_amount.
// Axis maxima are the q-quantile of each column, so outliers fall off-chart.
// maxPoints > 0 thins the points by even striding; the ranges always use every row.
func PriceDiscountPoints(v View, q float64, maxPoints int) Scatter {
	if len(v.Facts) == 0 {
		return Scatter{Points: []ScatterPoint{}}
	}

	xs := make([]float64, len(v.Facts))
	ys := make([]float64, len(v.Facts))
	for i := range v.Facts {
		xs[i] = v.Facts[i].ProductOriginalPrice
		ys[i] = v.Facts[i].DiscountAmount
	}

	stride := 1
	if maxPoints > 0 && len(v.Facts) > maxPoints {
		stride = (len(v.Facts) + maxPoints - 1) / maxPoints
	}
	points := make([]ScatterPoint, 0, len(v.Facts)/stride+1)
	for i := 0; i < len(v.Facts); i += stride {
		f := &v.Facts[i]
		points = append(points, ScatterPoint{
			X:        f.ProductOriginalPrice,
			Y:        f.DiscountAmount,
			Category: f.Category,
			SKU:      f.SKU,
		})
	}

	return Scatter{
		Points: points,
		XMax:   Quantile(xs, q),
		YMax:   Quantile(ys, q),
	}
}

// Quantile returns the q-quantile of values using linear interpolation
// between closest ranks. values is sorted in place. NaN for an empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	if q <= 0 {
		return values[0]
	}
	if q >= 1 {
		return values[len(values)-1]
	}
	pos := q * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return values[lo] + (values[hi]-values[lo])*frac
}
