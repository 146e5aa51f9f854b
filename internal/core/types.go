package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SentinelCustomerID marks an order whose customer reference could not be parsed.
const SentinelCustomerID int64 = -1

// Entity names one of the four logical tables reconstructed from the source.
type Entity string

const (
	EntityCustomers Entity = "customers"
	EntityOrders    Entity = "orders"
	EntityProducts  Entity = "products"
	EntitySaleLines Entity = "sale_lines"
)

// NullTime is a timestamp that may be absent.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// NullInt is an integer that may be absent.
type NullInt struct {
	Int   int64
	Valid bool
}

// Month is a year-month bucket. The zero value means "no month".
// It sorts chronologically by Key and serializes as "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the bucket containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// IsZero reports whether m is the empty bucket.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Key returns a sortable integer for chronological ordering.
func (m Month) Key() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler so months stay categorical in JSON.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Customer is one de-duplicated customer row.
// The same CustomerID may appear more than once if auxiliary fields disagree.
type Customer struct {
	CustomerID          int64
	SalesCommissionCode string
	CustomerSince       NullTime
}

// Order is one de-duplicated order row.
// CustomerID is SentinelCustomerID when the source value did not parse.
type Order struct {
	IncrementID   string
	CreatedAt     NullTime
	Status        string
	PaymentMethod string
	GrandTotal    float64
	CustomerID    int64
}

// Product is one catalog row that survived sanitization.
type Product struct {
	ItemID   int64
	SKU      string
	Category string
	Price    float64
}

// SaleLine is one order line. (IncrementID, ItemID) is not enforced unique.
type SaleLine struct {
	IncrementID    string
	ItemID         int64
	QtyOrdered     int64
	Price          float64
	DiscountAmount float64
}

// Fact is one row of the unified sales table at line-item granularity.
type Fact struct {
	// customer
	CustomerID          int64
	HasCustomer         bool
	SalesCommissionCode string
	CustomerSince       NullTime

	// order
	IncrementID   string
	CreatedAt     NullTime
	Status        string
	PaymentMethod string
	GrandTotal    float64

	// sale line
	ItemID           int64
	QtyOrdered       int64
	PricePerUnitSold float64
	DiscountAmount   float64

	// product
	SKU                  string
	Category             string
	ProductOriginalPrice float64

	// derived
	TotalPricePerItem float64
	NetItemSales      float64
	OrderDate         NullTime
	OrderMonth        Month
	Year              NullInt
	DayOfWeek         string
	HourOfDay         NullInt
}

// Dataset is the cached, immutable output of one pipeline run.
type Dataset struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Facts    []Fact
	Stats    PipelineStats
}

// DateBounds returns the earliest and latest order date in the dataset.
// ok is false when no fact carries a date.
func (d *Dataset) DateBounds() (minDate, maxDate time.Time, ok bool) {
	for i := range d.Facts {
		od := d.Facts[i].OrderDate
		if !od.Valid {
			continue
		}
		if !ok || od.Time.Before(minDate) {
			minDate = od.Time
		}
		if !ok || od.Time.After(maxDate) {
			maxDate = od.Time
		}
		ok = true
	}
	return minDate, maxDate, ok
}

// SanitizeStats counts rows kept and dropped for one entity.
type SanitizeStats struct {
	Entity    Entity         `json:"entity"`
	Extracted int            `json:"extracted"`
	Kept      int            `json:"kept"`
	Dropped   int            `json:"dropped"`
	DroppedBy map[string]int `json:"droppedBy,omitempty"` // column -> rows dropped because of it
}

// JoinStats records the cardinality after each join step.
type JoinStats struct {
	CustomerOrders int `json:"customerOrders"` // rows after the outer join
	WithSaleLines  int `json:"withSaleLines"`  // rows after the sale-line inner join
	WithProducts   int `json:"withProducts"`   // rows after the product inner join
}

// PipelineStats summarizes one pipeline run.
type PipelineStats struct {
	RawRows   int                      `json:"rawRows"`
	BytesRead int64                    `json:"bytesRead"`
	Entities  map[Entity]SanitizeStats `json:"entities"`
	Joins     JoinStats                `json:"joins"`
	Duration  time.Duration            `json:"duration"`
}
