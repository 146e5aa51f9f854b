package core

// join.go recomposes the four sanitized entities into line-level facts:
//
//  1. Orders ⟗ Customers, outer, on customer id
//  2. (1) ⋈ SaleLines, inner, on increment id
//  3. (2) ⋈ Products, inner, on item id
//
// Steps 2 and 3 are inner joins, so rows that failed to match earlier are dropped there.
// Row order follows the left side, with right-side matches in their own order;
// unmatched customers from step 1 are appended after all orders.

import (
	"fmt"
)

// Names of the columns produced by the joins. The sale line's unit price and the
// product's catalog price collide on "price" and are renamed explicitly.
const (
	ColPricePerUnitSold     = "price_per_unit_sold"
	ColProductOriginalPrice = "product_original_price"
)

// Suffixes applied to overlapping non-key columns, per join step.
var (
	saleLineSuffixes = [2]string{"_order", "_sale_item"}
	productSuffixes  = [2]string{"_sales_detail", "_product_info"}
)

// priceRenames maps suffixed join output to the final fact column names.
var priceRenames = map[string]string{
	ColPrice + productSuffixes[0]: ColPricePerUnitSold,
	ColPrice + productSuffixes[1]: ColProductOriginalPrice,
}

// Derived columns appended by DeriveFeatures.
var derivedColumns = []string{
	"total_price_per_item",
	"net_item_sales",
	"order_date",
	"order_month",
	"year",
	"day_of_week",
	"hour_of_day",
}

type orderCustomer struct {
	order       Order
	hasOrder    bool
	customer    Customer
	hasCustomer bool
	customerID  int64
}

// JoinFacts runs the three joins and returns one Fact per
// (order, sale line, product) match. Derived fields are left zero; see DeriveFeatures.
func JoinFacts(customers []Customer, orders []Order, sales []SaleLine, products []Product) ([]Fact, JoinStats) {
	var stats JoinStats

	oc := joinOrdersCustomers(orders, customers)
	stats.CustomerOrders = len(oc)

	salesByOrder := make(map[string][]int, len(sales))
	for i, s := range sales {
		salesByOrder[s.IncrementID] = append(salesByOrder[s.IncrementID], i)
	}

	type orderLine struct {
		oc   *orderCustomer
		line *SaleLine
	}
	lines := make([]orderLine, 0, len(sales))
	for i := range oc {
		row := &oc[i]
		if !row.hasOrder || row.order.IncrementID == "" {
			continue
		}
		for _, j := range salesByOrder[row.order.IncrementID] {
			lines = append(lines, orderLine{oc: row, line: &sales[j]})
		}
	}
	stats.WithSaleLines = len(lines)

	productsByItem := make(map[int64][]int, len(products))
	for i, p := range products {
		productsByItem[p.ItemID] = append(productsByItem[p.ItemID], i)
	}

	facts := make([]Fact, 0, len(lines))
	for _, ol := range lines {
		for _, k := range productsByItem[ol.line.ItemID] {
			facts = append(facts, newFact(ol.oc, ol.line, &products[k]))
		}
	}
	stats.WithProducts = len(facts)

	return facts, stats
}

func joinOrdersCustomers(orders []Order, customers []Customer) []orderCustomer {
	byID := make(map[int64][]int, len(customers))
	for i, c := range customers {
		byID[c.CustomerID] = append(byID[c.CustomerID], i)
	}

	matched := make([]bool, len(customers))
	out := make([]orderCustomer, 0, len(orders)+len(customers))
	for _, o := range orders {
		idx := byID[o.CustomerID]
		if len(idx) == 0 {
			out = append(out, orderCustomer{order: o, hasOrder: true, customerID: o.CustomerID})
			continue
		}
		for _, i := range idx {
			matched[i] = true
			out = append(out, orderCustomer{
				order:       o,
				hasOrder:    true,
				customer:    customers[i],
				hasCustomer: true,
				customerID:  o.CustomerID,
			})
		}
	}
	for i, c := range customers {
		if !matched[i] {
			out = append(out, orderCustomer{customer: c, hasCustomer: true, customerID: c.CustomerID})
		}
	}
	return out
}

func newFact(oc *orderCustomer, line *SaleLine, p *Product) Fact {
	return Fact{
		CustomerID:          oc.customerID,
		HasCustomer:         oc.hasCustomer,
		SalesCommissionCode: oc.customer.SalesCommissionCode,
		CustomerSince:       oc.customer.CustomerSince,

		IncrementID:   oc.order.IncrementID,
		CreatedAt:     oc.order.CreatedAt,
		Status:        oc.order.Status,
		PaymentMethod: oc.order.PaymentMethod,
		GrandTotal:    oc.order.GrandTotal,

		ItemID:           line.ItemID,
		QtyOrdered:       line.QtyOrdered,
		PricePerUnitSold: line.Price,
		DiscountAmount:   line.DiscountAmount,

		SKU:                  p.SKU,
		Category:             p.Category,
		ProductOriginalPrice: p.Price,
	}
}

// mergeColumns returns the column list of a join on key. Overlapping non-key
// columns get the left and right suffix respectively.
func mergeColumns(left, right []string, key string, suffixes [2]string) []string {
	inRight := make(map[string]bool, len(right))
	for _, c := range right {
		inRight[c] = true
	}
	inLeft := make(map[string]bool, len(left))
	for _, c := range left {
		inLeft[c] = true
	}

	out := make([]string, 0, len(left)+len(right))
	for _, c := range left {
		if c != key && inRight[c] {
			c += suffixes[0]
		}
		out = append(out, c)
	}
	for _, c := range right {
		if c == key {
			continue
		}
		if inLeft[c] {
			c += suffixes[1]
		}
		out = append(out, c)
	}
	return out
}

// FactSchema returns the ordered column names of the joined fact table,
// after renaming and with derived columns appended.
// It fails if any name still collides or an unrenamed price column remains.
func FactSchema() ([]string, error) {
	orders := MustGet(EntityOrders).Columns()
	customers := MustGet(EntityCustomers).Columns()
	sales := MustGet(EntitySaleLines).Columns()
	products := MustGet(EntityProducts).Columns()

	cols := mergeColumns(orders, customers, ColCustomerID, [2]string{"_x", "_y"})
	cols = mergeColumns(cols, sales, ColIncrementID, saleLineSuffixes)
	cols = mergeColumns(cols, products, ColItemID, productSuffixes)

	for i, c := range cols {
		if to, ok := priceRenames[c]; ok {
			cols[i] = to
		}
	}
	cols = append(cols, derivedColumns...)

	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c] {
			return nil, fmt.Errorf("fact schema: duplicate column %q", c)
		}
		if c == ColPrice {
			return nil, fmt.Errorf("fact schema: ambiguous column %q", c)
		}
		seen[c] = true
	}
	return cols, nil
}
