// Package report renders dashboards and pipeline statistics as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// Format selects how tables are written.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts text, markdown (or md) and csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "table":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, markdown or csv)", s)
}

// Writer renders tables in one format.
type Writer struct {
	w      io.Writer
	format Format
}

// New returns a Writer for w.
func New(w io.Writer, format Format) *Writer {
	if format == "" {
		format = FormatText
	}
	return &Writer{w: w, format: format}
}

func (r *Writer) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	if title != "" && r.format == FormatText {
		t.SetTitle(title)
	}
	return t
}

func (r *Writer) render(title string, t table.Writer) {
	switch r.format {
	case FormatMarkdown:
		if title != "" {
			fmt.Fprintf(r.w, "### %s\n\n", title)
		}
		fmt.Fprintln(r.w, t.RenderMarkdown())
	case FormatCSV:
		if title != "" {
			fmt.Fprintf(r.w, "# %s\n", title)
		}
		fmt.Fprintln(r.w, t.RenderCSV())
	default:
		fmt.Fprintln(r.w, t.Render())
	}
	fmt.Fprintln(r.w)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var rightAligned = []table.ColumnConfig{{Number: 2, Align: text.AlignRight}}

// Summary writes the selection headline and KPIs.
func (r *Writer) Summary(s core.Summary, k core.KPIs) {
	t := r.newTable("Summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Lines", s.Lines},
		{"Orders", k.Orders},
		{"Customers", k.Customers},
		{"SKUs", k.SKUs},
		{"Net sales", money(k.NetSales)},
		{"Avg order value", money(k.AvgOrderValue)},
		{"Pre-discount total", money(k.PreDiscountTotal)},
		{"Total discount", money(k.TotalDiscount)},
		{"Avg discount per line", money(k.AvgDiscountPerLine)},
		{"Discount %", money(k.DiscountPct)},
	})
	t.SetColumnConfigs(rightAligned)
	r.render("Summary", t)
}

// Series writes one labelled series. Money values print with two decimals.
func (r *Writer) Series(title, label string, s core.Series, asMoney bool) {
	t := r.newTable(title)
	t.AppendHeader(table.Row{label, "Value"})
	for _, p := range s {
		var v any = strconv.FormatFloat(p.Value, 'f', -1, 64)
		if asMoney {
			v = money(p.Value)
		}
		t.AppendRow(table.Row{p.Label, v})
	}
	if len(s) == 0 {
		t.AppendRow(table.Row{"(no data)", ""})
	}
	t.SetColumnConfigs(rightAligned)
	r.render(title, t)
}

// Dashboard writes the KPIs, quick answers and the ranked series.
func (r *Writer) Dashboard(d core.Dashboard) {
	r.Summary(d.Summary, d.KPIs)

	peak := d.FAQ.PeakWeekday
	if peak == "" {
		peak = "n/a"
	}
	fmt.Fprintf(r.w, "Busiest weekday: %s\n\n", peak)

	s := d.Series
	r.Series("Top categories by net sales", "Category", s.TopCategoriesByNet, true)
	r.Series("Top SKUs by net sales", "SKU", s.TopSKUsByNet, true)
	r.Series("Top customers by net sales", "Customer", s.TopCustomers, true)
	r.Series("Payment methods", "Method", s.PaymentMethodCounts, false)
	r.Series("Order status", "Status", s.StatusCounts, false)
	r.Series("Net sales by weekday", "Weekday", s.WeekdayNetSales, true)
	r.Series("Net sales by month", "Month", s.MonthlyNetSales, true)
}

// PipelineStats writes per-entity sanitize counts and join cardinalities.
func (r *Writer) PipelineStats(st core.PipelineStats) {
	t := r.newTable("Pipeline")
	t.AppendHeader(table.Row{"Entity", "Extracted", "Kept", "Dropped", "Dropped by"})
	for _, def := range core.All() {
		es, ok := st.Entities[def.Entity]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{def.Label, es.Extracted, es.Kept, es.Dropped, droppedBy(es.DroppedBy)})
	}
	t.AppendFooter(table.Row{"Raw rows", st.RawRows, "", "", ""})
	r.render("Pipeline", t)

	j := r.newTable("Joins")
	j.AppendHeader(table.Row{"Step", "Rows"})
	j.AppendRows([]table.Row{
		{"customers + orders (outer)", st.Joins.CustomerOrders},
		{"+ sale lines (inner)", st.Joins.WithSaleLines},
		{"+ products (inner)", st.Joins.WithProducts},
	})
	j.SetColumnConfigs(rightAligned)
	r.render("Joins", j)
}

func droppedBy(m map[string]int) string {
	if len(m) == 0 {
		return ""
	}
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%d", c, m[c])
	}
	return strings.Join(parts, " ")
}

// Policy writes the sanitize rules of every entity.
func (r *Writer) Policy(entities []core.PolicyEntity) {
	for _, e := range entities {
		t := r.newTable(e.Label)
		t.AppendHeader(table.Row{"Field", "Source", "Type", "On failure", "Fallback", "Checks"})
		for _, f := range e.Fields {
			t.AppendRow(table.Row{f.Field, f.Source, f.Type, f.OnFailure, f.Fallback, strings.Join(f.Checks, ", ")})
		}
		r.render(e.Label, t)
	}
}
