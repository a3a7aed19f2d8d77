// Package analytics computes the dashboard tables. Every function is a pure
// transformation of a dataset.RecordSet; nothing is cached between calls.
package analytics

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

const (
	colID         = "instant"
	colDate       = "dteday"
	colSeason     = "season"
	colWeather    = "weathersit"
	colHour       = "hr"
	colDayStatus  = "daystatus"
	colWeekday    = "weekday"
	colCasual     = "casual"
	colRegistered = "registered"
	colTotal      = "cnt"
)

// frame converts a record set to a DataFrame. Dates are kept in ISO form so
// that string ordering matches calendar ordering. When hourlyOnly is set,
// records without an hour are dropped.
func frame(rs dataset.RecordSet, hourlyOnly bool) dataframe.DataFrame {
	n := rs.Len()
	var (
		ids        = make([]string, 0, n)
		dates      = make([]string, 0, n)
		seasons    = make([]string, 0, n)
		weather    = make([]string, 0, n)
		statuses   = make([]string, 0, n)
		weekdays   = make([]string, 0, n)
		hours      = make([]int, 0, n)
		casual     = make([]int, 0, n)
		registered = make([]int, 0, n)
		totals     = make([]int, 0, n)
	)
	rs.Each(func(r core.Record) {
		if hourlyOnly && !r.HasHour {
			return
		}
		ids = append(ids, r.ID)
		dates = append(dates, r.Date.String())
		seasons = append(seasons, string(r.Season))
		weather = append(weather, r.Weather)
		statuses = append(statuses, string(r.DayStatus))
		weekdays = append(weekdays, r.Weekday)
		hours = append(hours, r.Hour)
		casual = append(casual, int(r.Casual))
		registered = append(registered, int(r.Registered))
		totals = append(totals, int(r.Total))
	})
	return dataframe.New(
		series.New(ids, series.String, colID),
		series.New(dates, series.String, colDate),
		series.New(seasons, series.String, colSeason),
		series.New(weather, series.String, colWeather),
		series.New(statuses, series.String, colDayStatus),
		series.New(weekdays, series.String, colWeekday),
		series.New(hours, series.Int, colHour),
		series.New(casual, series.Int, colCasual),
		series.New(registered, series.Int, colRegistered),
		series.New(totals, series.Int, colTotal),
	)
}

// groups splits df by the given key columns. An empty frame yields no
// groups.
func groups(df dataframe.DataFrame, keys ...string) []dataframe.DataFrame {
	if df.Nrow() == 0 {
		return nil
	}
	g := df.GroupBy(keys...)
	if g == nil {
		return nil
	}
	out := make([]dataframe.DataFrame, 0)
	for _, sub := range g.GetGroups() {
		if sub.Nrow() > 0 {
			out = append(out, sub)
		}
	}
	return out
}

// key returns the group's value for a string key column.
func key(g dataframe.DataFrame, col string) string {
	return g.Col(col).Records()[0]
}

func sum(g dataframe.DataFrame, col string) int64 {
	vals, err := g.Col(col).Int()
	if err != nil {
		return 0
	}
	var total int64
	for _, v := range vals {
		total += int64(v)
	}
	return total
}

func distinct(g dataframe.DataFrame, col string) int {
	seen := map[string]struct{}{}
	for _, v := range g.Col(col).Records() {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// maxString returns the lexicographically greatest value of col.
func maxString(g dataframe.DataFrame, col string) string {
	var best string
	for _, v := range g.Col(col).Records() {
		if v > best {
			best = v
		}
	}
	return best
}
