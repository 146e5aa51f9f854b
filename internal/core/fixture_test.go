package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureHeader deliberately differs from the canonical column order and
// carries one column the pipeline ignores.
var fixtureHeader = []string{
	ColItemID, ColStatus, ColCreatedAt, ColSKU, ColPrice, ColQtyOrdered,
	ColGrandTotal, ColCategory, ColSalesCommissionCode, ColDiscountAmount,
	ColPaymentMethod, ColIncrementID, ColCustomerSince, ColCustomerID, "BI Status",
}

type fixtureRow map[string]string

func (r fixtureRow) with(kv ...string) fixtureRow {
	out := make(fixtureRow, len(r)+len(kv)/2)
	for k, v := range r {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

var (
	orderOne = fixtureRow{
		ColCustomerID: "1", ColSalesCommissionCode: `\N`, ColCustomerSince: "2016-1",
		ColIncrementID: "100001", ColCreatedAt: "2017-03-07 10:00:00", // Tuesday
		ColStatus: "complete", ColPaymentMethod: "cod", ColGrandTotal: "240",
		"BI Status": "Net",
	}

	// 3 customers, 4 orders, 5 sale lines and 3 products survive sanitizing.
	// The joins yield 4 facts with net sales 190 + 50 + 55 + 100 = 395.
	fixtureRows = []fixtureRow{
		orderOne.with(ColItemID, "10", ColSKU, "sku-a ", ColCategory, " Mobiles", ColPrice, "100", ColQtyOrdered, "2", ColDiscountAmount, "10"),
		orderOne.with(ColItemID, "20", ColSKU, "sku-b", ColCategory, `\N`, ColPrice, "50", ColQtyOrdered, "1", ColDiscountAmount, "0"),
		{
			ColCustomerID: "2", ColSalesCommissionCode: "R-2", ColCustomerSince: "2016-3",
			ColIncrementID: "100002", ColCreatedAt: "2017-03-10 15:30:00", // Friday
			ColStatus: "complete", ColPaymentMethod: "Payaxis", ColGrandTotal: "55",
			ColItemID: "30", ColSKU: "sku-c", ColCategory: "Books", ColPrice: "20", ColQtyOrdered: "3", ColDiscountAmount: "5",
		},
		{
			// unparseable customer id: order kept with the sentinel, customer row dropped
			ColCustomerID: "abc", ColSalesCommissionCode: `\N`, ColCustomerSince: "2016-5",
			ColIncrementID: "100003", ColCreatedAt: "2017-03-14 09:00:00", // Tuesday
			ColStatus: "canceled", ColPaymentMethod: "cod", ColGrandTotal: "n/a",
			ColItemID: "10", ColSKU: "sku-a ", ColCategory: " Mobiles", ColPrice: "100", ColQtyOrdered: "1", ColDiscountAmount: "0",
		},
		{
			// product has no sku: sale line survives but the product join drops it
			ColCustomerID: "3", ColSalesCommissionCode: `\N`, ColCustomerSince: "2017-1",
			ColIncrementID: "100004", ColCreatedAt: "2017-03-17 20:00:00", // Friday
			ColStatus: "complete", ColPaymentMethod: "cod", ColGrandTotal: "30",
			ColItemID: "40", ColSKU: "", ColCategory: "Books", ColPrice: "30", ColQtyOrdered: "1", ColDiscountAmount: "0",
		},
		// negative price: dropped as both product and sale line
		orderOne.with(ColItemID, "50", ColSKU, "sku-e", ColCategory, "Books", ColPrice, "-10", ColQtyOrdered, "1", ColDiscountAmount, "0"),
		// exact duplicate of the first row
		orderOne.with(ColItemID, "10", ColSKU, "sku-a ", ColCategory, " Mobiles", ColPrice, "100", ColQtyOrdered, "2", ColDiscountAmount, "10"),
	}
)

const (
	fixtureFactCount = 4
	fixtureNetSales  = 395.0
)

func buildCSV(header []string, rows []fixtureRow) string {
	var b strings.Builder
	b.WriteString(csvLine(header))
	for _, r := range rows {
		cells := make([]string, len(header))
		for i, h := range header {
			cells[i] = r[h]
		}
		b.WriteString(csvLine(cells))
	}
	return b.String()
}

func csvLine(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		if strings.ContainsAny(c, ",\"\n") {
			c = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		quoted[i] = c
	}
	return strings.Join(quoted, ",") + "\n"
}

func fixtureCSV() string {
	return buildCSV(fixtureHeader, fixtureRows)
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func fixtureRaw(t *testing.T) *RawTable {
	t.Helper()
	raw, err := ReadRaw(strings.NewReader(fixtureCSV()), DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	return raw
}
