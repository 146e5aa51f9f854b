package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source column headers.
const (
	ColCustomerID          = "Customer ID"
	ColSalesCommissionCode = "sales_commission_code"
	ColCustomerSince       = "Customer Since"
	ColIncrementID         = "increment_id"
	ColCreatedAt           = "created_at"
	ColStatus              = "status"
	ColPaymentMethod       = "payment_method"
	ColGrandTotal          = "grand_total"
	ColItemID              = "item_id"
	ColSKU                 = "sku"
	ColCategory            = "category_name_1"
	ColPrice               = "price"
	ColQtyOrdered          = "qty_ordered"
	ColDiscountAmount      = "discount_amount"
)

// UnknownCategory replaces the \N placeholder some exports write for a missing category.
const UnknownCategory = "UNKNOWN"

const categoryPlaceholder = `\N`

func init() {
	registerCustomers()
	registerOrders()
	registerProducts()
	registerSaleLines()
}

func registerCustomers() {
	Register(EntityDefinition{
		Entity: EntityCustomers,
		Label:  "Customers",
		Order:  0,
		Fields: []FieldSpec{
			{Name: "customer_id", Source: ColCustomerID, Type: FieldInt, OnFailure: DropRow},
			{Name: "sales_commission_code", Source: ColSalesCommissionCode, Type: FieldText, OnFailure: KeepNull},
			{Name: "customer_since", Source: ColCustomerSince, Type: FieldTimestamp, OnFailure: KeepNull},
		},
	})
}

func registerOrders() {
	Register(EntityDefinition{
		Entity: EntityOrders,
		Label:  "Orders",
		Order:  1,
		Fields: []FieldSpec{
			{Name: "increment_id", Source: ColIncrementID, Type: FieldText, OnFailure: KeepNull},
			{Name: "created_at", Source: ColCreatedAt, Type: FieldTimestamp, OnFailure: KeepNull},
			{Name: "status", Source: ColStatus, Type: FieldText, OnFailure: KeepNull},
			{Name: "payment_method", Source: ColPaymentMethod, Type: FieldText, OnFailure: KeepNull},
			{Name: "grand_total", Source: ColGrandTotal, Type: FieldNumber, OnFailure: UseFallback, Fallback: NumberValue(0)},
			{Name: "customer_id", Source: ColCustomerID, Type: FieldInt, OnFailure: UseFallback, Fallback: IntValue(SentinelCustomerID)},
		},
	})
}

func registerProducts() {
	Register(EntityDefinition{
		Entity: EntityProducts,
		Label:  "Products",
		Order:  2,
		Fields: []FieldSpec{
			{Name: "item_id", Source: ColItemID, Type: FieldInt, OnFailure: DropRow},
			{Name: "sku", Source: ColSKU, Type: FieldText, OnFailure: DropRow, Normalizer: NormalizeCode},
			{Name: "category_name_1", Source: ColCategory, Type: FieldText, OnFailure: DropRow, Normalizer: NormalizeCategory},
			{Name: "price", Source: ColPrice, Type: FieldNumber, OnFailure: DropRow, Checks: []Check{NonNegative}},
		},
	})
}

func registerSaleLines() {
	Register(EntityDefinition{
		Entity: EntitySaleLines,
		Label:  "Sale lines",
		Order:  3,
		Fields: []FieldSpec{
			{Name: "increment_id", Source: ColIncrementID, Type: FieldText, OnFailure: DropRow},
			{Name: "item_id", Source: ColItemID, Type: FieldInt, OnFailure: DropRow},
			{Name: "qty_ordered", Source: ColQtyOrdered, Type: FieldInt, OnFailure: DropRow, Checks: []Check{Positive}},
			{Name: "price", Source: ColPrice, Type: FieldNumber, OnFailure: DropRow, Checks: []Check{NonNegative}},
			{Name: "discount_amount", Source: ColDiscountAmount, Type: FieldNumber, OnFailure: DropRow, Checks: []Check{NonNegative}},
		},
	})
}

// NormalizeCode uppercases and trims an identifier such as a SKU.
func NormalizeCode(s string) string {
	return strings.TrimSpace(cases.Upper(language.Und).String(s))
}

// NormalizeCategory uppercases and trims a category label and maps the \N placeholder to UnknownCategory.
func NormalizeCategory(s string) string {
	s = NormalizeCode(s)
	if s == categoryPlaceholder {
		return UnknownCategory
	}
	return s
}
