package core

import (
	"strings"
)

// Projection is the column subset of the raw table belonging to one entity,
// with exact-duplicate rows removed. Rows keep first-seen order.
type Projection struct {
	Entity  Entity
	Columns []string
	Rows    [][]string
}

// missingKey stands in for any missing-value token when comparing rows,
// so "" and "NA" in the same column collapse to one row.
const missingKey = "\x00"

// Extract projects t onto the columns of def and drops duplicate rows.
// Two rows are duplicates when every projected cell is byte-identical, with
// all missing-value tokens treated as equal. Whitespace is significant here;
// cells are only trimmed later by the field policy.
func Extract(t *RawTable, def EntityDefinition) *Projection {
	positions := make([]int, len(def.Fields))
	for i, f := range def.Fields {
		pos, ok := t.Column(f.Source)
		if !ok {
			pos = -1
		}
		positions[i] = pos
	}

	p := &Projection{
		Entity:  def.Entity,
		Columns: def.Columns(),
		Rows:    make([][]string, 0, len(t.Records)),
	}

	seen := make(map[string]struct{}, len(t.Records))
	var key strings.Builder
	for _, rec := range t.Records {
		row := make([]string, len(positions))
		key.Reset()
		for i, pos := range positions {
			if pos >= 0 && pos < len(rec) {
				row[i] = rec[pos]
			}
			if i > 0 {
				key.WriteByte(0x1f)
			}
			if IsMissing(row[i]) {
				key.WriteString(missingKey)
			} else {
				key.WriteString(row[i])
			}
		}
		k := key.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		p.Rows = append(p.Rows, row)
	}
	return p
}

// ExtractCustomers projects customer_id, sales_commission_code, and customer_since.
func ExtractCustomers(t *RawTable) *Projection {
	return Extract(t, MustGet(EntityCustomers))
}

// ExtractOrders projects the order header columns and the customer reference.
func ExtractOrders(t *RawTable) *Projection {
	return Extract(t, MustGet(EntityOrders))
}

// ExtractProducts projects the catalog columns.
func ExtractProducts(t *RawTable) *Projection {
	return Extract(t, MustGet(EntityProducts))
}

// ExtractSaleLines projects the order line columns.
func ExtractSaleLines(t *RawTable) *Projection {
	return Extract(t, MustGet(EntitySaleLines))
}
