package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Dedup(t *testing.T) {
	raw := fixtureRaw(t)

	tests := []struct {
		name string
		fn   func(*RawTable) *Projection
		want int
	}{
		{"customers", ExtractCustomers, 4},
		{"orders", ExtractOrders, 4},
		{"products", ExtractProducts, 5},
		{"sale lines", ExtractSaleLines, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.fn(raw)
			assert.Len(t, p.Rows, tt.want)
			for _, row := range p.Rows {
				assert.Len(t, row, len(p.Columns))
			}
		})
	}
}

func TestExtract_MissingTokensCompareEqual(t *testing.T) {
	header := RequiredColumns()
	rows := []fixtureRow{
		{ColItemID: "1", ColSKU: "a", ColCategory: "x", ColPrice: ""},
		{ColItemID: "1", ColSKU: "a", ColCategory: "x", ColPrice: "NA"},
		{ColItemID: "1", ColSKU: "a ", ColCategory: " x", ColPrice: "nan"},
		{ColItemID: "1", ColSKU: "A", ColCategory: "x", ColPrice: ""},
	}
	raw, err := ReadRaw(strings.NewReader(buildCSV(header, rows)), DefaultLoadOptions())
	require.NoError(t, err)

	p := ExtractProducts(raw)
	require.Len(t, p.Rows, 3, "whitespace and case differences are not duplicates before sanitizing")
	assert.Equal(t, "a", p.Rows[0][1], "first occurrence wins")
	assert.Equal(t, "a ", p.Rows[1][1])
	assert.Equal(t, "A", p.Rows[2][1])
}

func TestExtract_WhitespaceIsSignificant(t *testing.T) {
	header := RequiredColumns()
	rows := []fixtureRow{
		{ColItemID: "7", ColSKU: "abc", ColCategory: "Books", ColPrice: "5"},
		{ColItemID: "7", ColSKU: "abc ", ColCategory: "Books", ColPrice: "5"},
		{ColItemID: "7", ColSKU: "abc", ColCategory: "Books", ColPrice: "5"},
	}
	raw, err := ReadRaw(strings.NewReader(buildCSV(header, rows)), DefaultLoadOptions())
	require.NoError(t, err)

	assert.Len(t, ExtractProducts(raw).Rows, 2)
}

func TestJoinFacts(t *testing.T) {
	since := NullTime{Time: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	customers := []Customer{
		{CustomerID: 1, SalesCommissionCode: "A", CustomerSince: since},
		{CustomerID: 2, SalesCommissionCode: "B"},
		{CustomerID: 3, SalesCommissionCode: "C"}, // no orders
	}
	orders := []Order{
		{IncrementID: "o1", CustomerID: 1, Status: "complete"},
		{IncrementID: "o2", CustomerID: 2, Status: "canceled"},
		{IncrementID: "o3", CustomerID: SentinelCustomerID},
		{IncrementID: "o4", CustomerID: 1}, // no lines
	}
	sales := []SaleLine{
		{IncrementID: "o1", ItemID: 10, QtyOrdered: 2, Price: 9, DiscountAmount: 1},
		{IncrementID: "o1", ItemID: 20, QtyOrdered: 1, Price: 5},
		{IncrementID: "o2", ItemID: 10, QtyOrdered: 1, Price: 10},
		{IncrementID: "o3", ItemID: 30, QtyOrdered: 1, Price: 7},
		{IncrementID: "o9", ItemID: 10, QtyOrdered: 1, Price: 10}, // unknown order
	}
	products := []Product{
		{ItemID: 10, SKU: "P10", Category: "A", Price: 10},
		{ItemID: 20, SKU: "P20", Category: "B", Price: 5},
		{ItemID: 30, SKU: "P30", Category: "A", Price: 8},
	}

	facts, stats := JoinFacts(customers, orders, sales, products)

	assert.Equal(t, JoinStats{CustomerOrders: 5, WithSaleLines: 4, WithProducts: 4}, stats)
	require.Len(t, facts, 4)

	got := make([]string, len(facts))
	for i, f := range facts {
		got[i] = f.IncrementID + "/" + f.SKU
	}
	assert.Equal(t, []string{"o1/P10", "o1/P20", "o2/P10", "o3/P30"}, got)

	f := facts[0]
	assert.Equal(t, int64(1), f.CustomerID)
	assert.True(t, f.HasCustomer)
	assert.Equal(t, "A", f.SalesCommissionCode)
	assert.Equal(t, since, f.CustomerSince)
	assert.Equal(t, 9.0, f.PricePerUnitSold, "sale line price")
	assert.Equal(t, 10.0, f.ProductOriginalPrice, "catalog price")

	assert.False(t, facts[3].HasCustomer)
	assert.Equal(t, SentinelCustomerID, facts[3].CustomerID)
}

func TestJoinFacts_DuplicateKeysMultiply(t *testing.T) {
	customers := []Customer{
		{CustomerID: 1, SalesCommissionCode: "A"},
		{CustomerID: 1, SalesCommissionCode: "B"},
	}
	orders := []Order{{IncrementID: "o1", CustomerID: 1}}
	sales := []SaleLine{{IncrementID: "o1", ItemID: 10, QtyOrdered: 1, Price: 1}}
	products := []Product{
		{ItemID: 10, SKU: "P10", Category: "A", Price: 1},
		{ItemID: 10, SKU: "P10", Category: "A", Price: 2},
	}

	facts, stats := JoinFacts(customers, orders, sales, products)

	assert.Equal(t, 2, stats.CustomerOrders)
	assert.Equal(t, 2, stats.WithSaleLines)
	assert.Len(t, facts, 4)
}

func TestJoinFacts_Empty(t *testing.T) {
	facts, stats := JoinFacts(nil, nil, nil, nil)
	assert.Empty(t, facts)
	assert.Equal(t, JoinStats{}, stats)
}

func TestMergeColumns(t *testing.T) {
	got := mergeColumns(
		[]string{"increment_id", "item_id", "price"},
		[]string{"item_id", "sku", "price"},
		"item_id",
		productSuffixes,
	)
	assert.Equal(t, []string{"increment_id", "item_id", "price_sales_detail", "sku", "price_product_info"}, got)
}

func TestFactSchema(t *testing.T) {
	cols, err := FactSchema()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range cols {
		assert.False(t, seen[c], "duplicate column %q", c)
		seen[c] = true
	}
	assert.False(t, seen[ColPrice], "raw price must be renamed")
	assert.True(t, seen[ColPricePerUnitSold])
	assert.True(t, seen[ColProductOriginalPrice])
	for _, c := range derivedColumns {
		assert.True(t, seen[c], c)
	}
	assert.Equal(t, "hour_of_day", cols[len(cols)-1])
}

func TestDeriveFeatures(t *testing.T) {
	created := time.Date(2017, 3, 10, 15, 30, 0, 0, time.UTC) // Friday
	facts := []Fact{
		{QtyOrdered: 3, PricePerUnitSold: 20, DiscountAmount: 5, CreatedAt: NullTime{Time: created, Valid: true}},
		{QtyOrdered: 2, PricePerUnitSold: 2.5, DiscountAmount: 0},
	}

	DeriveFeatures(facts)

	dated := facts[0]
	assert.Equal(t, 60.0, dated.TotalPricePerItem)
	assert.Equal(t, 55.0, dated.NetItemSales)
	assert.Equal(t, NullTime{Time: time.Date(2017, 3, 10, 0, 0, 0, 0, time.UTC), Valid: true}, dated.OrderDate)
	assert.Equal(t, "2017-03", dated.OrderMonth.String())
	assert.Equal(t, NullInt{Int: 2017, Valid: true}, dated.Year)
	assert.Equal(t, "Friday", dated.DayOfWeek)
	assert.Equal(t, NullInt{Int: 15, Valid: true}, dated.HourOfDay)

	undated := facts[1]
	assert.Equal(t, 5.0, undated.NetItemSales)
	assert.False(t, undated.OrderDate.Valid)
	assert.True(t, undated.OrderMonth.IsZero())
	assert.False(t, undated.Year.Valid)
	assert.Empty(t, undated.DayOfWeek)
	assert.False(t, undated.HourOfDay.Valid)
}

func TestDeriveFeatures_OffsetTimestamp(t *testing.T) {
	created, ok := ParseTimestamp("2017-03-17T02:00:00+05:00")
	require.True(t, ok)

	facts := []Fact{{QtyOrdered: 1, PricePerUnitSold: 10, CreatedAt: NullTime{Time: created, Valid: true}}}
	DeriveFeatures(facts)

	assert.Equal(t, NullTime{Time: time.Date(2017, 3, 17, 0, 0, 0, 0, time.UTC), Valid: true}, facts[0].OrderDate)
	assert.Equal(t, "Friday", facts[0].DayOfWeek)
	assert.Equal(t, NullInt{Int: 2, Valid: true}, facts[0].HourOfDay)
}

func TestDeriveFeatures_Idempotent(t *testing.T) {
	facts := []Fact{{QtyOrdered: 1, PricePerUnitSold: 10, DiscountAmount: 1}}
	DeriveFeatures(facts)
	first := facts[0]
	DeriveFeatures(facts)
	assert.Equal(t, first, facts[0])
}
