package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// DashboardParams is everything the dashboard page shows for one selection.
type DashboardParams struct {
	Source    string
	Bounds    core.Bounds
	From      string
	To        string
	Selected  map[string]bool // nil selects every category
	Result    core.DashboardResult
	Preview   core.Preview
	ExportURL string
}

func (p DashboardParams) checked(c string) bool {
	return p.Selected == nil || p.Selected[c]
}

// DashboardPage renders the full dashboard.
func DashboardPage(p DashboardParams) templ.Component {
	return Layout("Sales dashboard", Dashboard(p))
}

// Dashboard renders the filter form, KPI cards, series and preview.
func Dashboard(p DashboardParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		d := p.Result.Dashboard
		if err := write(w,
			`<h1>Sales dashboard</h1><p class="muted">`, templ.EscapeString(p.Source),
			` &middot; dataset `, templ.EscapeString(p.Result.DatasetID.String()), `</p>`,
		); err != nil {
			return err
		}
		if err := filterForm(p).Render(ctx, w); err != nil {
			return err
		}
		if err := summaryLine(d.Summary).Render(ctx, w); err != nil {
			return err
		}
		if err := kpiCards(d.KPIs).Render(ctx, w); err != nil {
			return err
		}
		if err := faq(d.FAQ).Render(ctx, w); err != nil {
			return err
		}

		if err := write(w, `<div class="grid">`); err != nil {
			return err
		}
		s := d.Series
		for _, t := range []struct {
			title string
			s     core.Series
			money bool
		}{
			{"Net sales by month", s.MonthlyNetSales, true},
			{"Net sales by weekday", s.WeekdayNetSales, true},
			{"Net sales by hour", s.HourlyNetSales, true},
			{"Orders by year", s.OrdersByYear, false},
			{"Top categories by net sales", s.TopCategoriesByNet, true},
			{"Top categories by lines", s.TopCategoriesByCount, false},
			{"Top SKUs by net sales", s.TopSKUsByNet, true},
			{"Top customers by net sales", s.TopCustomers, true},
			{"Order status", s.StatusCounts, false},
			{"Payment methods", s.PaymentMethodCounts, false},
		} {
			if err := SeriesTable(t.title, t.s, t.money).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := write(w, `</div>`); err != nil {
			return err
		}

		return PreviewTable(p.Preview).Render(ctx, w)
	})
}

func filterForm(p DashboardParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<form method="get" action="/"><label>From <input type="date" name="from" value="`, templ.EscapeString(p.From),
			`" min="`, templ.EscapeString(p.Bounds.From), `" max="`, templ.EscapeString(p.Bounds.To),
			`"></label> <label>To <input type="date" name="to" value="`, templ.EscapeString(p.To),
			`" min="`, templ.EscapeString(p.Bounds.From), `" max="`, templ.EscapeString(p.Bounds.To),
			`"></label><fieldset><legend>Categories</legend><input type="hidden" name="category" value="">`,
		); err != nil {
			return err
		}
		for _, c := range p.Result.Categories {
			checked := ""
			if p.checked(c) {
				checked = " checked"
			}
			if err := write(w,
				`<label><input type="checkbox" name="category" value="`, templ.EscapeString(c), `"`, checked, `> `,
				templ.EscapeString(c), `</label> `,
			); err != nil {
				return err
			}
		}
		return write(w, `</fieldset><button type="submit">Apply</button> <a href="`,
			templ.EscapeString(p.ExportURL), `">Download CSV</a></form>`)
	})
}

func summaryLine(s core.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w, `<p>`, count(s.Lines), ` lines &middot; `, count(s.Orders), ` orders &middot; `,
			count(s.Customers), ` customers</p>`)
	})
}

func kpiCards(k core.KPIs) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section class="cards">`); err != nil {
			return err
		}
		for _, c := range []struct{ label, value string }{
			{"Net sales", money(k.NetSales)},
			{"Orders", count(k.Orders)},
			{"Customers", count(k.Customers)},
			{"SKUs", count(k.SKUs)},
			{"Avg order value", money(k.AvgOrderValue)},
			{"Total discount", money(k.TotalDiscount)},
			{"Avg discount per line", money(k.AvgDiscountPerLine)},
			{"Pre-discount total", money(k.PreDiscountTotal)},
			{"Discount", percent(k.DiscountPct)},
		} {
			if err := write(w, `<div class="card"><div class="label">`, c.label,
				`</div><div class="value">`, c.value, `</div></div>`); err != nil {
				return err
			}
		}
		return write(w, `</section>`)
	})
}

func faq(f core.FAQ) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		peak := f.PeakWeekday
		if peak == "" {
			peak = "n/a"
		}
		if err := write(w, `<section><h2>Quick answers</h2><p>Busiest weekday: <strong>`,
			templ.EscapeString(peak), `</strong></p><div class="grid">`); err != nil {
			return err
		}
		if err := SeriesTable("Top categories", f.TopCategories, true).Render(ctx, w); err != nil {
			return err
		}
		if err := SeriesTable("Top payment methods", f.TopPaymentMethods, false).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</div></section>`)
	})
}

// SeriesTable renders a series as a two-column table.
func SeriesTable(title string, s core.Series, asMoney bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<div><h3>`, templ.EscapeString(title), `</h3>`); err != nil {
			return err
		}
		if len(s) == 0 {
			return write(w, `<p class="muted">No data</p></div>`)
		}
		if err := write(w, `<table><tbody>`); err != nil {
			return err
		}
		for _, pt := range s {
			v := strconv.FormatFloat(pt.Value, 'f', -1, 64)
			if asMoney {
				v = money(pt.Value)
			}
			if err := write(w, `<tr><td>`, templ.EscapeString(pt.Label), `</td><td class="num">`, v, `</td></tr>`); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table></div>`)
	})
}

// PreviewTable renders the first rows of the filtered facts and their statistics.
func PreviewTable(p core.Preview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section><h2>Preview</h2><p class="muted">Showing `, count(len(p.Rows)),
			` of `, count(p.Total), ` rows</p><div style="overflow-x:auto"><table><thead><tr>`); err != nil {
			return err
		}
		for _, c := range p.Columns {
			if err := write(w, `<th>`, templ.EscapeString(c), `</th>`); err != nil {
				return err
			}
		}
		if err := write(w, `</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, row := range p.Rows {
			if err := write(w, `<tr>`); err != nil {
				return err
			}
			for _, cell := range row {
				if err := write(w, `<td>`, templ.EscapeString(cell), `</td>`); err != nil {
					return err
				}
			}
			if err := write(w, `</tr>`); err != nil {
				return err
			}
		}
		if err := write(w, `</tbody></table></div>`); err != nil {
			return err
		}
		if len(p.Describe) == 0 {
			return write(w, `</section>`)
		}

		if err := write(w, `<h3>Statistics</h3><table><thead><tr><th>column</th><th>count</th><th>mean</th>`+
			`<th>std</th><th>min</th><th>25%</th><th>50%</th><th>75%</th><th>max</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, st := range p.Describe {
			if err := write(w, `<tr><td>`, templ.EscapeString(st.Column), `</td><td class="num">`, count(st.Count), `</td>`); err != nil {
				return err
			}
			for _, v := range []float64{st.Mean, st.Std, st.Min, st.P25, st.P50, st.P75, st.Max} {
				if err := write(w, `<td class="num">`, money(v), `</td>`); err != nil {
					return err
				}
			}
			if err := write(w, `</tr>`); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table></section>`)
	})
}
