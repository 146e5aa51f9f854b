package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdash/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestErrorAlert_Escapes(t *testing.T) {
	out := render(t, ErrorAlert("The data file could not be opened", "Check the path", "SRC001", "<script>/x.csv"))

	assert.Contains(t, out, "SRC001")
	assert.Contains(t, out, "&lt;script&gt;/x.csv")
	assert.NotContains(t, out, "<script>")
}

func TestLayout_ComposesComponents(t *testing.T) {
	body := templ.Join(ErrorAlert("first", "", "A1", ""), ErrorAlert("second", "", "A2", ""))
	out := render(t, Layout(`Sales <"Q1">`, body))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Sales &lt;&#34;Q1&#34;&gt;</title>")
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.True(t, strings.HasSuffix(out, "</main></body></html>"))
}

func TestDashboardPage(t *testing.T) {
	p := DashboardParams{
		Source: "sales.csv",
		Bounds: core.Bounds{From: "2017-03-07", To: "2017-03-14"},
		Result: core.DashboardResult{Dashboard: core.Dashboard{
			Summary:    core.Summary{Lines: 4, Orders: 3, Customers: 2},
			Categories: []string{"MOBILES", "A&B"},
			KPIs:       core.KPIs{NetSales: 12345.5, Orders: 3},
			Series: core.DashboardSeries{
				WeekdayNetSales: core.Series{{Label: "Monday", Value: 0}, {Label: "Tuesday", Value: 340}},
			},
			FAQ: core.FAQ{PeakWeekday: "Tuesday"},
		}},
		Selected:  map[string]bool{"MOBILES": true},
		ExportURL: "/api/export?category=MOBILES",
		Preview: core.Preview{
			Columns: []string{"increment_id", "sku"},
			Rows:    [][]string{{"100001", "SKU-A"}},
			Total:   4,
		},
	}

	out := render(t, DashboardPage(p))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "12,345.50")
	assert.Contains(t, out, `value="MOBILES" checked`)
	assert.Contains(t, out, `value="A&amp;B">`)
	assert.Contains(t, out, "<strong>Tuesday</strong>")
	assert.Contains(t, out, "Showing 1 of 4 rows")
	assert.Contains(t, out, `<input type="hidden" name="category" value="">`)
	assert.Contains(t, out, "No data")
}

func TestSeriesTable_Counts(t *testing.T) {
	out := render(t, SeriesTable("Orders by year", core.Series{{Label: "2017", Value: 3}}, false))
	assert.Contains(t, out, `<td>2017</td><td class="num">3</td>`)
}
