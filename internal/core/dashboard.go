package core

// DashboardOptions sizes the series handed to the rendering layer.
type DashboardOptions struct {
	TopN             int     // length of the top-N rankings
	FAQTopN          int     // length of the quick-answer rankings
	ScatterQuantile  float64 // axis clip for the price/discount scatter
	ScatterMaxPoints int     // 0 keeps every point
}

// DefaultDashboardOptions returns top 10 rankings, top 3 quick answers, and a p99 scatter clip.
func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		TopN:            10,
		FAQTopN:         3,
		ScatterQuantile: 0.99,
	}
}

// DashboardSeries are the named grouped series of one view.
type DashboardSeries struct {
	OrdersByYear         Series  `json:"ordersByYear"`
	TopCustomers         Series  `json:"topCustomers"`
	StatusCounts         Series  `json:"statusCounts"`
	PaymentMethodCounts  Series  `json:"paymentMethodCounts"`
	MonthlyNetSales      Series  `json:"monthlyNetSales"`
	DailyNetSales        Series  `json:"dailyNetSales"`
	WeekdayNetSales      Series  `json:"weekdayNetSales"`
	HourlyNetSales       Series  `json:"hourlyNetSales"`
	TopCategoriesByCount Series  `json:"topCategoriesByCount"`
	TopCategoriesByNet   Series  `json:"topCategoriesByNet"`
	TopSKUsByNet         Series  `json:"topSkusByNet"`
	PriceDiscount        Scatter `json:"priceDiscount"`
}

// FAQ holds the quick answers shown beside the charts.
type FAQ struct {
	TopCategories     Series `json:"topCategories"`
	TopPaymentMethods Series `json:"topPaymentMethods"`
	PeakWeekday       string `json:"peakWeekday,omitempty"`
}

// Dashboard is everything the rendering layer needs for one interaction.
type Dashboard struct {
	Summary    Summary         `json:"summary"`
	Categories []string        `json:"categories"`
	KPIs       KPIs            `json:"kpis"`
	Series     DashboardSeries `json:"series"`
	FAQ        FAQ             `json:"faq"`
}

// BuildDashboard filters facts and computes every KPI and series for the result.
// Categories lists the options offered for the current date range.
func BuildDashboard(facts []Fact, f Filter, opts DashboardOptions) Dashboard {
	v := ApplyFilter(facts, f)

	d := Dashboard{
		Summary:    v.Summary,
		Categories: CategoryOptions(facts, f.Dates),
		KPIs:       ComputeKPIs(v),
		Series: DashboardSeries{
			OrdersByYear:         OrdersBySinceYear(v),
			TopCustomers:         TopByNetSales(v, ByCustomer, opts.TopN),
			StatusCounts:         TopByCount(v, ByStatus, 0),
			PaymentMethodCounts:  TopByCount(v, ByPaymentMethod, 0),
			MonthlyNetSales:      SalesByMonth(v),
			DailyNetSales:        SalesByDay(v),
			WeekdayNetSales:      SalesByWeekday(v),
			HourlyNetSales:       SalesByHour(v),
			TopCategoriesByCount: TopByCount(v, ByCategory, opts.TopN),
			TopCategoriesByNet:   TopByNetSales(v, ByCategory, opts.TopN),
			TopSKUsByNet:         TopByNetSales(v, BySKU, opts.TopN),
			PriceDiscount:        PriceDiscountPoints(v, opts.ScatterQuantile, opts.ScatterMaxPoints),
		},
		FAQ: FAQ{
			TopCategories:     TopByNetSales(v, ByCategory, opts.FAQTopN),
			TopPaymentMethods: TopByCount(v, ByPaymentMethod, opts.FAQTopN),
		},
	}
	d.FAQ.PeakWeekday, _ = PeakWeekday(v)
	return d
}
