package analytics

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

// WeatherUsage sums total usage per weather condition, descending. The
// first row is the condition to highlight.
func WeatherUsage(rs dataset.RecordSet) core.WeatherTable {
	return weatherUsage(frame(rs, false))
}

func weatherUsage(df dataframe.DataFrame) core.WeatherTable {
	rows := make([]core.WeatherCount, 0)
	for _, g := range groups(df, colWeather) {
		rows = append(rows, core.WeatherCount{
			Condition: key(g, colWeather),
			Count:     sum(g, colTotal),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Condition < rows[j].Condition
	})
	return core.WeatherTable{Rows: rows}
}
