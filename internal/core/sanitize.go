package core

// sanitize.go applies the per-entity FieldSpec tables to projected rows.
// Coercion failures never produce errors; they either resolve to a value
// or drop the row, and every drop is counted in SanitizeStats.

// SanitizeRows coerces every row of p with the fields of def.
// Rows are returned in input order, one Value per field.
func SanitizeRows(p *Projection, def EntityDefinition) ([][]Value, SanitizeStats) {
	stats := SanitizeStats{
		Entity:    def.Entity,
		Extracted: len(p.Rows),
	}

	out := make([][]Value, 0, len(p.Rows))
rows:
	for _, raw := range p.Rows {
		vals := make([]Value, len(def.Fields))
		for i, spec := range def.Fields {
			var cell string
			if i < len(raw) {
				cell = raw[i]
			}
			v, drop := coerce(spec, cell)
			if drop {
				stats.Dropped++
				if stats.DroppedBy == nil {
					stats.DroppedBy = make(map[string]int)
				}
				stats.DroppedBy[spec.Name]++
				continue rows
			}
			vals[i] = v
		}
		out = append(out, vals)
	}

	stats.Kept = len(out)
	return out, stats
}

// SanitizeCustomers coerces customer rows. Rows whose customer_id does not
// parse are dropped.
func SanitizeCustomers(p *Projection) ([]Customer, SanitizeStats) {
	rows, stats := SanitizeRows(p, MustGet(EntityCustomers))
	out := make([]Customer, len(rows))
	for i, v := range rows {
		out[i] = Customer{
			CustomerID:          v[0].Int,
			SalesCommissionCode: v[1].Text,
			CustomerSince:       NullTime{Time: v[2].Time, Valid: v[2].Valid},
		}
	}
	return out, stats
}

// SanitizeOrders coerces order rows. No order is ever dropped: created_at
// becomes null, grand_total becomes 0, and customer_id becomes
// SentinelCustomerID when they do not parse.
func SanitizeOrders(p *Projection) ([]Order, SanitizeStats) {
	rows, stats := SanitizeRows(p, MustGet(EntityOrders))
	out := make([]Order, len(rows))
	for i, v := range rows {
		out[i] = Order{
			IncrementID:   v[0].Text,
			CreatedAt:     NullTime{Time: v[1].Time, Valid: v[1].Valid},
			Status:        v[2].Text,
			PaymentMethod: v[3].Text,
			GrandTotal:    v[4].Num,
			CustomerID:    v[5].Int,
		}
	}
	return out, stats
}

// SanitizeProducts coerces catalog rows, dropping any row with a missing or
// unparseable field or a negative price.
func SanitizeProducts(p *Projection) ([]Product, SanitizeStats) {
	rows, stats := SanitizeRows(p, MustGet(EntityProducts))
	out := make([]Product, len(rows))
	for i, v := range rows {
		out[i] = Product{
			ItemID:   v[0].Int,
			SKU:      v[1].Text,
			Category: v[2].Text,
			Price:    v[3].Num,
		}
	}
	return out, stats
}

// SanitizeSaleLines coerces order lines, dropping any row with a missing or
// unparseable field, a non-positive quantity, or a negative price or discount.
func SanitizeSaleLines(p *Projection) ([]SaleLine, SanitizeStats) {
	rows, stats := SanitizeRows(p, MustGet(EntitySaleLines))
	out := make([]SaleLine, len(rows))
	for i, v := range rows {
		out[i] = SaleLine{
			IncrementID:    v[0].Text,
			ItemID:         v[1].Int,
			QtyOrdered:     v[2].Int,
			Price:          v[3].Num,
			DiscountAmount: v[4].Num,
		}
	}
	return out, stats
}
