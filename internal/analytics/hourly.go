package analytics

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

// SeasonHourly averages total usage per (hour, day status) for one season.
// It returns false when the season has no hourly records, which callers
// render as "no data".
func SeasonHourly(rs dataset.RecordSet, season core.Season) (core.HourlyTable, bool) {
	rows, ok := hourlyBySeason(frame(rs.FilterSeason(season), true))[season]
	if !ok {
		return core.HourlyTable{}, false
	}
	return core.HourlyTable{Season: season, Rows: rows}, true
}

// HourlyPanels returns one hourly table per season present in rs, in
// core.DisplaySeasons order. Seasons without hourly records are skipped.
func HourlyPanels(rs dataset.RecordSet) []core.HourlyTable {
	return hourlyPanels(rs.Seasons(), frame(rs, true))
}

// hourlyPanels groups the hourly frame by (season, hour, day status) once
// and splits the result per season.
func hourlyPanels(present []core.Season, hourly dataframe.DataFrame) []core.HourlyTable {
	bySeason := hourlyBySeason(hourly)
	isPresent := make(map[core.Season]bool, len(present))
	for _, s := range present {
		isPresent[s] = true
	}
	out := []core.HourlyTable{}
	for _, s := range core.DisplaySeasons {
		if rows, ok := bySeason[s]; ok && isPresent[s] {
			out = append(out, core.HourlyTable{Season: s, Rows: rows})
		}
	}
	return out
}

func hourlyBySeason(df dataframe.DataFrame) map[core.Season][]core.HourlyMean {
	out := make(map[core.Season][]core.HourlyMean)
	for _, g := range groups(df, colSeason, colHour, colDayStatus) {
		hours, err := g.Col(colHour).Int()
		if err != nil || len(hours) == 0 {
			continue
		}
		season := core.Season(key(g, colSeason))
		out[season] = append(out[season], core.HourlyMean{
			Hour:      hours[0],
			DayStatus: core.DayStatus(key(g, colDayStatus)),
			Mean:      g.Col(colTotal).Mean(),
		})
	}
	for _, rows := range out {
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Hour != rows[j].Hour {
				return rows[i].Hour < rows[j].Hour
			}
			return statusRank(rows[i].DayStatus) < statusRank(rows[j].DayStatus)
		})
	}
	return out
}

func statusRank(s core.DayStatus) int {
	if s == core.Workingday {
		return 0
	}
	return 1
}
