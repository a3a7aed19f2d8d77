package core

// SeasonUserCount is one row of the long-form seasonal table.
type SeasonUserCount struct {
	Season   Season   `json:"season"`
	UserType UserType `json:"user_type"`
	Count    int64    `json:"count"`
}

// SeasonCount is a single metric summed per season.
type SeasonCount struct {
	Season Season `json:"season"`
	Count  int64  `json:"count"`
}

// WeatherCount is the total usage for one weather condition.
type WeatherCount struct {
	Condition string `json:"condition"`
	Count     int64  `json:"count"`
}

// WeatherTable is sorted by descending Count.
type WeatherTable struct {
	Rows []WeatherCount `json:"rows"`
}

// Max returns the highlighted condition, which is the first row of the
// sorted table.
func (t WeatherTable) Max() (WeatherCount, bool) {
	if len(t.Rows) == 0 {
		return WeatherCount{}, false
	}
	return t.Rows[0], true
}

// Headline holds the summed user counts shown as metrics.
type Headline struct {
	Casual     int64 `json:"casual"`
	Registered int64 `json:"registered"`
	Total      int64 `json:"total"`
}

// HourlyMean is the mean total for one (hour, day status) cell.
type HourlyMean struct {
	Hour      int       `json:"hour"`
	DayStatus DayStatus `json:"day_status"`
	Mean      float64   `json:"mean"`
}

// HourlyTable is the per-season productivity view.
type HourlyTable struct {
	Season Season       `json:"season"`
	Rows   []HourlyMean `json:"rows"`
}

// WeekdayRFM is the recency/frequency/monetary row for one weekday.
type WeekdayRFM struct {
	Weekday   string `json:"weekday"`
	Recency   int    `json:"recency"`
	Frequency int    `json:"frequency"`
	Monetary  int64  `json:"monetary"`
}

// RFMSummary holds the averages shown above the RFM charts.
type RFMSummary struct {
	AvgRecency   float64 `json:"avg_recency"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgMonetary  float64 `json:"avg_monetary"`
}

// Dashboard bundles every table computed for one date range.
type Dashboard struct {
	Range              DateRange         `json:"-"`
	Start              string            `json:"start"`
	End                string            `json:"end"`
	Records            int               `json:"records"`
	Empty              bool              `json:"empty"`
	Headline           Headline          `json:"headline"`
	SeasonalUsage      []SeasonUserCount `json:"seasonal_usage"`
	CasualBySeason     []SeasonCount     `json:"casual_by_season"`
	RegisteredBySeason []SeasonCount     `json:"registered_by_season"`
	Weather            WeatherTable      `json:"weather"`
	Hourly             []HourlyTable     `json:"hourly"`
	RFM                []WeekdayRFM      `json:"rfm"`
	// RFMSummary is nil when the RFM table is empty.
	RFMSummary   *RFMSummary  `json:"rfm_summary"`
	TopRecency   []WeekdayRFM `json:"top_recency"`
	TopFrequency []WeekdayRFM `json:"top_frequency"`
	TopMonetary  []WeekdayRFM `json:"top_monetary"`
}

// Err reports an empty range as an *EmptyRangeError.
func (d Dashboard) Err() error {
	if d.Empty {
		return &EmptyRangeError{Range: d.Range}
	}
	return nil
}
