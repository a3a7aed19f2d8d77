package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"bikedash/internal/core"
)

func sampleDashboard() core.Dashboard {
	rng := core.DateRange{Start: core.NewDate(2011, 1, 1), End: core.NewDate(2011, 12, 31)}
	return core.Dashboard{
		Range:    rng,
		Start:    rng.Start.String(),
		End:      rng.End.String(),
		Records:  3,
		Headline: core.Headline{Casual: 30, Registered: 10, Total: 40},
		SeasonalUsage: []core.SeasonUserCount{
			{Season: core.Summer, UserType: core.UserCasual, Count: 30},
			{Season: core.Summer, UserType: core.UserRegistered, Count: 10},
		},
		Weather: core.WeatherTable{Rows: []core.WeatherCount{{Condition: "Clear", Count: 40}}},
		Hourly: []core.HourlyTable{{Season: core.Summer, Rows: []core.HourlyMean{
			{Hour: 8, DayStatus: core.Workingday, Mean: 12.5},
		}}},
		RFM:        []core.WeekdayRFM{{Weekday: "Monday", Recency: 0, Frequency: 3, Monetary: 60}},
		RFMSummary: &core.RFMSummary{AvgRecency: 0, AvgFrequency: 3, AvgMonetary: 60},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sampleDashboard())
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f := open(t, data)

	want := []string{SheetSummary, SheetSeasons, SheetWeather, SheetHourly, SheetRFM}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	cells := map[[2]string]string{
		{SheetSeasons, "A2"}: "Summer",
		{SheetSeasons, "C2"}: "30",
		{SheetSeasons, "B3"}: "registered",
		{SheetWeather, "A2"}: "Clear",
		{SheetHourly, "D2"}:  "12.5",
		{SheetRFM, "C2"}:     "3",
		{SheetRFM, "D2"}:     "60",
		{SheetSummary, "B7"}: "40",
		{SheetSummary, "B8"}: "Clear",
	}
	for key, want := range cells {
		v, err := f.GetCellValue(key[0], key[1])
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", key[0], key[1], err)
		}
		if v != want {
			t.Errorf("%s!%s = %q, want %q", key[0], key[1], v, want)
		}
	}
}

func TestWorkbook_EmptyDashboard(t *testing.T) {
	d := core.Dashboard{Start: "2030-01-01", End: "2030-01-31", Empty: true}
	data, err := Workbook(d)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f := open(t, data)

	rows, err := f.GetRows(SheetWeather)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("empty weather sheet should hold only the header, got %d rows", len(rows))
	}
	for _, c := range []string{"B8", "B9", "B11"} {
		if v, _ := f.GetCellValue(SheetSummary, c); v != core.NotAvailable {
			t.Errorf("Summary!%s = %q, want %q", c, v, core.NotAvailable)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(sampleDashboard()); got != "bikedash_2011-01-01_2011-12-31.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
}
