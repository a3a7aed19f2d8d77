// Package report renders a dashboard as tabular exports.
package report

import (
	"bikedash/internal/core"
)

// Table is one named grid of a report. Rows hold string, int64, int or
// float64 cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

const (
	SheetSummary = "Summary"
	SheetSeasons = "Seasons"
	SheetWeather = "Weather"
	SheetHourly  = "Hourly"
	SheetRFM     = "RFM"
)

// Tables lays out every dashboard table in a fixed order. Empty dashboards
// yield tables with headers and no rows, apart from the summary.
func Tables(d core.Dashboard) []Table {
	return []Table{
		summaryTable(d),
		seasonsTable(d),
		weatherTable(d),
		hourlyTable(d),
		rfmTable(d),
	}
}

// Filename names the workbook for d's range.
func Filename(d core.Dashboard) string {
	return "bikedash_" + d.Start + "_" + d.End + ".xlsx"
}

func summaryTable(d core.Dashboard) Table {
	highlight := core.NotAvailable
	if top, ok := d.Weather.Max(); ok {
		highlight = top.Condition
	}
	avgRecency, avgFrequency, avgMonetary := any(core.NotAvailable), any(core.NotAvailable), any(core.NotAvailable)
	if s := d.RFMSummary; s != nil {
		avgRecency, avgFrequency, avgMonetary = s.AvgRecency, s.AvgFrequency, s.AvgMonetary
	}
	return Table{
		Name:   SheetSummary,
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Start", d.Start},
			{"End", d.End},
			{"Records", d.Records},
			{"Casual users", d.Headline.Casual},
			{"Registered users", d.Headline.Registered},
			{"Total users", d.Headline.Total},
			{"Busiest weather", highlight},
			{"Average recency (days)", avgRecency},
			{"Average frequency", avgFrequency},
			{"Average monetary", avgMonetary},
		},
	}
}

func seasonsTable(d core.Dashboard) Table {
	t := Table{Name: SheetSeasons, Header: []string{"Season", "User type", "Count"}}
	for _, r := range d.SeasonalUsage {
		t.Rows = append(t.Rows, []any{string(r.Season), string(r.UserType), r.Count})
	}
	return t
}

func weatherTable(d core.Dashboard) Table {
	t := Table{Name: SheetWeather, Header: []string{"Weather", "Total"}}
	for _, r := range d.Weather.Rows {
		t.Rows = append(t.Rows, []any{r.Condition, r.Count})
	}
	return t
}

func hourlyTable(d core.Dashboard) Table {
	t := Table{Name: SheetHourly, Header: []string{"Season", "Hour", "Day status", "Mean total"}}
	for _, panel := range d.Hourly {
		for _, r := range panel.Rows {
			t.Rows = append(t.Rows, []any{string(panel.Season), r.Hour, string(r.DayStatus), r.Mean})
		}
	}
	return t
}

func rfmTable(d core.Dashboard) Table {
	t := Table{Name: SheetRFM, Header: []string{"Weekday", "Recency (days)", "Frequency", "Monetary"}}
	for _, r := range d.RFM {
		t.Rows = append(t.Rows, []any{r.Weekday, r.Recency, r.Frequency, r.Monetary})
	}
	return t
}
