package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the format of filter dates on every external surface.
const DateLayout = "2006-01-02"

// DateRange is an inclusive interval over Fact.OrderDate.
type DateRange struct {
	From NullTime
	To   NullTime
}

// WellFormed reports whether both endpoints are set. A reversed range is
// well formed and contains no dates.
func (r DateRange) WellFormed() bool {
	return r.From.Valid && r.To.Valid
}

// Contains reports whether d falls within the range. Null dates never match.
func (r DateRange) Contains(d NullTime) bool {
	if !d.Valid {
		return false
	}
	return !d.Time.Before(truncateToDay(r.From.Time)) && !d.Time.After(truncateToDay(r.To.Time))
}

// ParseDateRange builds a DateRange from two YYYY-MM-DD strings.
// An empty string leaves that endpoint unset; anything else that does not parse is an error.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error
	if r.From, err = parseFilterDate("from", from); err != nil {
		return DateRange{}, err
	}
	if r.To, err = parseFilterDate("to", to); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func parseFilterDate(field, s string) (NullTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullTime{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return NullTime{}, &FilterError{Field: field, Value: s, Err: errors.New("expected YYYY-MM-DD")}
	}
	return NullTime{Time: t, Valid: true}, nil
}

// CategorySelection is the set of category labels to keep.
// All selects every category; otherwise only Values are kept, and an empty
// Values selects nothing.
type CategorySelection struct {
	All    bool
	Values []string
}

// AllCategories selects every category.
func AllCategories() CategorySelection {
	return CategorySelection{All: true}
}

// Categories selects exactly the given labels.
func Categories(values ...string) CategorySelection {
	return CategorySelection{Values: values}
}

// Empty reports whether the selection can match nothing.
func (c CategorySelection) Empty() bool {
	return !c.All && len(c.Values) == 0
}

// Filter is one user selection.
type Filter struct {
	Dates      DateRange
	Categories CategorySelection
}

// Summary is the sidebar headline of a view.
type Summary struct {
	Lines     int `json:"lines"`
	Orders    int `json:"orders"`
	Customers int `json:"customers"`
}

// View is the filtered fact table for one interaction. Facts is a new slice;
// the dataset it was derived from is never modified.
type View struct {
	Facts   []Fact
	Filter  Filter
	Summary Summary
}

// Empty reports whether the view has no rows.
func (v View) Empty() bool {
	return len(v.Facts) == 0
}

// ApplyFilter returns the facts matching f.
//
// A date range missing an endpoint does not restrict dates at all, so facts
// without an order date are kept. A reversed range keeps nothing.
// An empty category selection yields an empty view.
func ApplyFilter(facts []Fact, f Filter) View {
	view := View{Filter: f}
	if f.Categories.Empty() {
		view.Facts = []Fact{}
		return view
	}

	var keep map[string]bool
	if !f.Categories.All {
		keep = make(map[string]bool, len(f.Categories.Values))
		for _, c := range f.Categories.Values {
			keep[c] = true
		}
	}

	dated := f.Dates.WellFormed()
	out := make([]Fact, 0, len(facts))
	for i := range facts {
		if dated && !f.Dates.Contains(facts[i].OrderDate) {
			continue
		}
		if keep != nil && !keep[facts[i].Category] {
			continue
		}
		out = append(out, facts[i])
	}

	view.Facts = out
	view.Summary = summarize(out)
	return view
}

// CategoryOptions returns the distinct categories of the facts inside the
// date range, in first-seen order. These are the choices offered for the
// category filter; the default selection is all of them.
func CategoryOptions(facts []Fact, dates DateRange) []string {
	dated := dates.WellFormed()
	seen := make(map[string]bool)
	out := []string{}
	for i := range facts {
		if dated && !dates.Contains(facts[i].OrderDate) {
			continue
		}
		c := facts[i].Category
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func summarize(facts []Fact) Summary {
	orders := make(map[string]struct{})
	customers := make(map[int64]struct{})
	for i := range facts {
		orders[facts[i].IncrementID] = struct{}{}
		customers[facts[i].CustomerID] = struct{}{}
	}
	return Summary{Lines: len(facts), Orders: len(orders), Customers: len(customers)}
}
