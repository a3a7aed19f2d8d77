package analytics

import (
	"errors"
	"reflect"
	"testing"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

type recOpt func(*core.Record)

func withHour(h int) recOpt {
	return func(r *core.Record) { r.Hour, r.HasHour = h, true }
}

func withWeather(w string) recOpt {
	return func(r *core.Record) { r.Weather = w }
}

func withStatus(s core.DayStatus) recOpt {
	return func(r *core.Record) { r.DayStatus = s }
}

func rec(id string, date core.Date, season core.Season, casual, registered int64, opts ...recOpt) core.Record {
	r := core.Record{
		ID:         id,
		Date:       date,
		Season:     season,
		Weather:    "Clear",
		DayStatus:  core.Workingday,
		Weekday:    date.Weekday().String(),
		Casual:     casual,
		Registered: registered,
		Total:      casual + registered,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func fixture() dataset.RecordSet {
	return dataset.New([]core.Record{
		rec("1", core.NewDate(2011, 1, 3), core.Winter, 10, 100, withHour(8), withWeather("Mist")),
		rec("2", core.NewDate(2011, 1, 3), core.Winter, 20, 200, withHour(8), withWeather("Mist")),
		rec("3", core.NewDate(2011, 1, 8), core.Winter, 5, 50, withHour(8), withStatus(core.Holiday)),
		rec("4", core.NewDate(2011, 4, 4), core.Spring, 40, 400, withHour(17)),
		rec("5", core.NewDate(2011, 7, 4), core.Summer, 60, 300, withHour(17), withWeather("Light Rain")),
		rec("6", core.NewDate(2011, 10, 5), core.Fall, 30, 350),
	})
}

func fullRange(t *testing.T, rs dataset.RecordSet) core.DateRange {
	t.Helper()
	rng, ok := rs.Bounds()
	if !ok {
		t.Fatal("fixture must not be empty")
	}
	return rng
}

func emptyRange() core.DateRange {
	return core.DateRange{Start: core.NewDate(2030, 1, 1), End: core.NewDate(2030, 12, 31)}
}

func TestSeasonalUsage_SummerExample(t *testing.T) {
	rs := dataset.New([]core.Record{
		rec("1", core.NewDate(2011, 7, 1), core.Summer, 10, 5),
		rec("2", core.NewDate(2011, 7, 2), core.Summer, 20, 5),
	})

	rows := SeasonalUsage(rs)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].UserType != core.UserCasual || rows[0].Count != 30 {
		t.Errorf("casual row = %+v, want 30", rows[0])
	}
	if rows[1].UserType != core.UserRegistered || rows[1].Count != 10 {
		t.Errorf("registered row = %+v, want 10", rows[1])
	}

	h := Totals(rs)
	if h.Casual != 30 || h.Registered != 10 || h.Total != 40 {
		t.Errorf("Totals = %+v", h)
	}
}

func TestSeasonalUsage_OrderedByCombinedTotal(t *testing.T) {
	rows := SeasonalUsage(fixture())

	var order []core.Season
	for i := 0; i < len(rows); i += 2 {
		if rows[i].Season != rows[i+1].Season {
			t.Fatalf("rows %d and %d belong to different seasons", i, i+1)
		}
		if rows[i].UserType != core.UserCasual || rows[i+1].UserType != core.UserRegistered {
			t.Fatalf("casual row must precede registered row for %s", rows[i].Season)
		}
		order = append(order, rows[i].Season)
	}
	// Spring 440, Winter 385, Fall 380, Summer 360
	want := []core.Season{core.Spring, core.Winter, core.Fall, core.Summer}
	if len(order) != len(want) {
		t.Fatalf("seasons = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("seasons = %v, want %v", order, want)
		}
	}
}

func TestSeasonTotalsMatchRecordTotals(t *testing.T) {
	rs := fixture()
	var want int64
	for _, r := range rs.Records() {
		want += r.Total
	}
	h := Totals(rs)
	if h.Casual+h.Registered != want {
		t.Errorf("casual+registered = %d, want %d", h.Casual+h.Registered, want)
	}
	if h.Total != want {
		t.Errorf("Total = %d, want %d", h.Total, want)
	}
}

func TestBySeason_StrictlyDescendingAndStable(t *testing.T) {
	rs := dataset.New([]core.Record{
		rec("1", core.NewDate(2011, 1, 1), core.Winter, 10, 1),
		rec("2", core.NewDate(2011, 4, 1), core.Spring, 10, 2),
		rec("3", core.NewDate(2011, 7, 1), core.Summer, 25, 3),
		rec("4", core.NewDate(2011, 10, 1), core.Fall, 10, 4),
	})

	first := CasualBySeason(rs)
	for i := 1; i < len(first); i++ {
		if first[i-1].Count < first[i].Count {
			t.Fatalf("not descending: %+v", first)
		}
	}
	if first[0].Season != core.Summer {
		t.Fatalf("expected Summer first, got %+v", first)
	}
	for run := 0; run < 20; run++ {
		again := CasualBySeason(rs)
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d reordered ties: %+v vs %+v", run, again, first)
			}
		}
	}

	reg := RegisteredBySeason(rs)
	want := []core.Season{core.Fall, core.Summer, core.Spring, core.Winter}
	for i, s := range want {
		if reg[i].Season != s {
			t.Fatalf("registered order = %+v, want %v", reg, want)
		}
	}
}

func TestWeatherUsage(t *testing.T) {
	table := WeatherUsage(fixture())
	want := []core.WeatherCount{
		{Condition: "Clear", Count: 55 + 440 + 380},
		{Condition: "Light Rain", Count: 360},
		{Condition: "Mist", Count: 330},
	}
	if len(table.Rows) != len(want) {
		t.Fatalf("rows = %+v", table.Rows)
	}
	for i := range want {
		if table.Rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, table.Rows[i], want[i])
		}
	}
	top, ok := table.Max()
	if !ok || top.Condition != "Clear" {
		t.Errorf("Max() = %+v, %v", top, ok)
	}
}

func TestWeekdayRFM_Example(t *testing.T) {
	// 2011-01-03, 2011-01-10 and 2011-01-17 are Mondays.
	rs := dataset.New([]core.Record{
		{ID: "a", Date: core.NewDate(2011, 1, 3), Season: core.Winter, Weekday: "Monday", DayStatus: core.Workingday, Total: 10, Casual: 10},
		{ID: "b", Date: core.NewDate(2011, 1, 10), Season: core.Winter, Weekday: "Monday", DayStatus: core.Workingday, Total: 20, Casual: 20},
		{ID: "c", Date: core.NewDate(2011, 1, 17), Season: core.Winter, Weekday: "Monday", DayStatus: core.Workingday, Total: 30, Casual: 30},
	})

	rows := WeekdayRFM(rs)
	if len(rows) != 1 {
		t.Fatalf("expected one weekday, got %+v", rows)
	}
	got := rows[0]
	if got.Weekday != "Monday" || got.Frequency != 3 || got.Monetary != 60 || got.Recency != 0 {
		t.Errorf("row = %+v", got)
	}
}

func TestWeekdayRFM_Recency(t *testing.T) {
	rows := WeekdayRFM(fixture())

	zero := 0
	byDay := map[string]core.WeekdayRFM{}
	for _, r := range rows {
		if r.Recency < 0 {
			t.Errorf("%s has negative recency %d", r.Weekday, r.Recency)
		}
		if r.Recency == 0 {
			zero++
		}
		byDay[r.Weekday] = r
	}
	if zero != 1 {
		t.Fatalf("expected exactly one weekday with recency 0, got %d: %+v", zero, rows)
	}

	// Latest date is Wednesday 2011-10-05; the latest Monday is 2011-07-04.
	if got := byDay["Wednesday"].Recency; got != 0 {
		t.Errorf("Wednesday recency = %d", got)
	}
	if got := byDay["Monday"].Recency; got != 93 {
		t.Errorf("Monday recency = %d, want 93", got)
	}
	if got := byDay["Monday"].Frequency; got != 4 {
		t.Errorf("Monday frequency = %d, want 4", got)
	}
	if rows[0].Weekday != "Monday" || rows[len(rows)-1].Weekday != "Saturday" {
		t.Errorf("rows not in calendar order: %+v", rows)
	}
}

func TestRFMAverages(t *testing.T) {
	if _, err := RFMAverages(nil); !errors.Is(err, core.ErrDivisionUndefined) {
		t.Fatalf("expected ErrDivisionUndefined, got %v", err)
	}

	got, err := RFMAverages([]core.WeekdayRFM{
		{Weekday: "Monday", Recency: 0, Frequency: 2, Monetary: 100},
		{Weekday: "Tuesday", Recency: 4, Frequency: 4, Monetary: 300},
	})
	if err != nil {
		t.Fatalf("RFMAverages: %v", err)
	}
	want := core.RFMSummary{AvgRecency: 2, AvgFrequency: 3, AvgMonetary: 200}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTopBy(t *testing.T) {
	rows := []core.WeekdayRFM{
		{Weekday: "Sunday", Recency: 6, Frequency: 1, Monetary: 50},
		{Weekday: "Monday", Recency: 5, Frequency: 9, Monetary: 10},
		{Weekday: "Tuesday", Recency: 0, Frequency: 9, Monetary: 70},
		{Weekday: "Friday", Recency: 1, Frequency: 3, Monetary: 70},
	}

	tests := []struct {
		name string
		fn   func([]core.WeekdayRFM, int) []core.WeekdayRFM
		n    int
		want []string
	}{
		{"recency", TopByRecency, 2, []string{"Tuesday", "Friday"}},
		{"frequency ties by weekday", TopByFrequency, 3, []string{"Monday", "Tuesday", "Friday"}},
		{"monetary ties by weekday", TopByMonetary, 10, []string{"Tuesday", "Friday", "Sunday", "Monday"}},
		{"zero", TopByMonetary, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(rows, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].Weekday != tt.want[i] {
					t.Fatalf("got %+v, want %v", got, tt.want)
				}
			}
		})
	}
	if rows[0].Weekday != "Sunday" {
		t.Error("input slice must not be reordered")
	}
}

func TestSeasonHourly(t *testing.T) {
	rs := fixture()

	table, ok := SeasonHourly(rs, core.Winter)
	if !ok {
		t.Fatal("expected winter data")
	}
	want := []core.HourlyMean{
		{Hour: 8, DayStatus: core.Workingday, Mean: 165},
		{Hour: 8, DayStatus: core.Holiday, Mean: 55},
	}
	if len(table.Rows) != len(want) {
		t.Fatalf("rows = %+v", table.Rows)
	}
	for i := range want {
		if table.Rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, table.Rows[i], want[i])
		}
	}

	// The only Fall record has no hour.
	if _, ok := SeasonHourly(rs, core.Fall); ok {
		t.Error("expected no hourly data for Fall")
	}
	if _, ok := SeasonHourly(dataset.New(nil), core.Summer); ok {
		t.Error("expected no data on empty set")
	}
}

func TestBuild(t *testing.T) {
	rs := fixture()
	d := Build(rs, fullRange(t, rs))

	if d.Empty || d.Err() != nil {
		t.Fatalf("full range must not be empty: %v", d.Err())
	}
	if d.Records != rs.Len() {
		t.Errorf("Records = %d, want %d", d.Records, rs.Len())
	}
	if d.Start != "2011-01-03" || d.End != "2011-10-05" {
		t.Errorf("range = %s..%s", d.Start, d.End)
	}
	var seasons []core.Season
	for _, h := range d.Hourly {
		seasons = append(seasons, h.Season)
	}
	want := []core.Season{core.Winter, core.Spring, core.Summer}
	if len(seasons) != len(want) {
		t.Fatalf("hourly seasons = %v, want %v", seasons, want)
	}
	for i := range want {
		if seasons[i] != want[i] {
			t.Fatalf("hourly seasons = %v, want %v", seasons, want)
		}
	}
	if d.RFMSummary == nil {
		t.Error("expected RFM summary")
	}
	if len(d.TopMonetary) > TopN {
		t.Errorf("TopMonetary has %d rows", len(d.TopMonetary))
	}
}

func TestBuild_EmptyRange(t *testing.T) {
	d := Build(fixture(), emptyRange())

	if !d.Empty {
		t.Fatal("expected Empty")
	}
	if !errors.Is(d.Err(), core.ErrEmptyRange) {
		t.Errorf("Err() = %v", d.Err())
	}
	if d.Headline != (core.Headline{}) {
		t.Errorf("Headline = %+v", d.Headline)
	}
	if len(d.SeasonalUsage) != 0 || len(d.CasualBySeason) != 0 || len(d.RegisteredBySeason) != 0 ||
		len(d.Weather.Rows) != 0 || len(d.Hourly) != 0 || len(d.RFM) != 0 || len(d.TopRecency) != 0 {
		t.Errorf("expected empty tables, got %+v", d)
	}
	if d.RFMSummary != nil {
		t.Error("RFM summary must be nil on empty range")
	}
	if _, ok := d.Weather.Max(); ok {
		t.Error("Max() must report no data")
	}
}

func TestBuild_MatchesStandaloneAggregators(t *testing.T) {
	rs := fixture()
	d := Build(rs, fullRange(t, rs))

	checks := []struct {
		name      string
		got, want any
	}{
		{"headline", d.Headline, Totals(rs)},
		{"seasonal usage", d.SeasonalUsage, SeasonalUsage(rs)},
		{"casual", d.CasualBySeason, CasualBySeason(rs)},
		{"registered", d.RegisteredBySeason, RegisteredBySeason(rs)},
		{"weather", d.Weather, WeatherUsage(rs)},
		{"hourly", d.Hourly, HourlyPanels(rs)},
		{"rfm", d.RFM, WeekdayRFM(rs)},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s: Build = %+v, standalone = %+v", c.name, c.got, c.want)
		}
	}

	winter, ok := SeasonHourly(rs, core.Winter)
	if !ok || !reflect.DeepEqual(d.Hourly[0], winter) {
		t.Errorf("winter panel = %+v, SeasonHourly = %+v", d.Hourly[0], winter)
	}
}

func TestBuildParts(t *testing.T) {
	rs := fixture()
	rng := fullRange(t, rs)
	full := Build(rs, rng)

	tests := []struct {
		name  string
		part  Part
		check func(t *testing.T, d core.Dashboard)
	}{
		{"headline", PartHeadline, func(t *testing.T, d core.Dashboard) {
			if d.Headline != full.Headline {
				t.Errorf("Headline = %+v, want %+v", d.Headline, full.Headline)
			}
			if d.SeasonalUsage != nil || d.Weather.Rows != nil || d.RFM != nil || len(d.Hourly) != 0 {
				t.Errorf("unselected tables computed: %+v", d)
			}
		}},
		{"seasons", PartSeasons, func(t *testing.T, d core.Dashboard) {
			if !reflect.DeepEqual(d.SeasonalUsage, full.SeasonalUsage) ||
				!reflect.DeepEqual(d.CasualBySeason, full.CasualBySeason) ||
				!reflect.DeepEqual(d.RegisteredBySeason, full.RegisteredBySeason) {
				t.Errorf("seasonal tables differ from Build")
			}
			if d.Headline != (core.Headline{}) {
				t.Errorf("Headline computed: %+v", d.Headline)
			}
		}},
		{"weather", PartWeather, func(t *testing.T, d core.Dashboard) {
			if !reflect.DeepEqual(d.Weather, full.Weather) {
				t.Errorf("Weather = %+v, want %+v", d.Weather, full.Weather)
			}
		}},
		{"hourly", PartHourly, func(t *testing.T, d core.Dashboard) {
			if !reflect.DeepEqual(d.Hourly, full.Hourly) {
				t.Errorf("Hourly = %+v, want %+v", d.Hourly, full.Hourly)
			}
			if d.RFM != nil {
				t.Errorf("RFM computed: %+v", d.RFM)
			}
		}},
		{"rfm", PartRFM, func(t *testing.T, d core.Dashboard) {
			if !reflect.DeepEqual(d.RFM, full.RFM) || !reflect.DeepEqual(d.TopMonetary, full.TopMonetary) {
				t.Errorf("RFM = %+v, want %+v", d.RFM, full.RFM)
			}
			if d.RFMSummary == nil || *d.RFMSummary != *full.RFMSummary {
				t.Errorf("RFMSummary = %v", d.RFMSummary)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BuildParts(rs, rng, tt.part)
			if d.Records != full.Records || d.Empty != full.Empty {
				t.Errorf("Records/Empty = %d/%v, want %d/%v", d.Records, d.Empty, full.Records, full.Empty)
			}
			tt.check(t, d)
		})
	}
}

func TestHourlyPanels_DisplayOrder(t *testing.T) {
	rs := dataset.New([]core.Record{
		rec("1", core.NewDate(2011, 7, 4), core.Summer, 1, 1, withHour(9)),
		rec("2", core.NewDate(2011, 10, 5), core.Fall, 1, 1, withHour(9)),
		rec("3", core.NewDate(2011, 1, 3), core.Winter, 1, 1, withHour(9)),
	})
	var got []core.Season
	for _, p := range HourlyPanels(rs) {
		got = append(got, p.Season)
	}
	want := []core.Season{core.Winter, core.Fall, core.Summer}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("panel order = %v, want %v", got, want)
	}
	if panels := HourlyPanels(dataset.New(nil)); len(panels) != 0 {
		t.Errorf("empty set produced panels: %+v", panels)
	}
}
