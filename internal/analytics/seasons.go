package analytics

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

type seasonTotals struct {
	season     core.Season
	casual     int64
	registered int64
}

// seasonGroups groups df by season once; every seasonal table and the
// headline derive from the result.
func seasonGroups(df dataframe.DataFrame) []seasonTotals {
	var out []seasonTotals
	for _, g := range groups(df, colSeason) {
		out = append(out, seasonTotals{
			season:     core.Season(key(g, colSeason)),
			casual:     sum(g, colCasual),
			registered: sum(g, colRegistered),
		})
	}
	return out
}

// SeasonalUsage returns the long-form (season, user type, count) table.
// Seasons are ordered by descending combined count, casual before
// registered within a season. Seasons absent from rs do not appear.
func SeasonalUsage(rs dataset.RecordSet) []core.SeasonUserCount {
	return seasonalUsage(seasonGroups(frame(rs, false)))
}

func seasonalUsage(seasons []seasonTotals) []core.SeasonUserCount {
	totals := make([]seasonTotals, len(seasons))
	copy(totals, seasons)
	sort.Slice(totals, func(i, j int) bool {
		a, b := totals[i].casual+totals[i].registered, totals[j].casual+totals[j].registered
		if a != b {
			return a > b
		}
		return totals[i].season < totals[j].season
	})
	out := make([]core.SeasonUserCount, 0, 2*len(totals))
	for _, t := range totals {
		out = append(out,
			core.SeasonUserCount{Season: t.season, UserType: core.UserCasual, Count: t.casual},
			core.SeasonUserCount{Season: t.season, UserType: core.UserRegistered, Count: t.registered},
		)
	}
	return out
}

// CasualBySeason sums casual users per season, descending.
func CasualBySeason(rs dataset.RecordSet) []core.SeasonCount {
	return seasonMetric(seasonGroups(frame(rs, false)), casualOf)
}

// RegisteredBySeason sums registered users per season, descending.
func RegisteredBySeason(rs dataset.RecordSet) []core.SeasonCount {
	return seasonMetric(seasonGroups(frame(rs, false)), registeredOf)
}

func casualOf(t seasonTotals) int64     { return t.casual }
func registeredOf(t seasonTotals) int64 { return t.registered }

func seasonMetric(seasons []seasonTotals, metric func(seasonTotals) int64) []core.SeasonCount {
	out := make([]core.SeasonCount, 0, len(seasons))
	for _, t := range seasons {
		out = append(out, core.SeasonCount{Season: t.season, Count: metric(t)})
	}
	sortSeasonCounts(out)
	return out
}

// sortSeasonCounts orders by count descending; equal counts fall back to
// the season name so repeated runs agree.
func sortSeasonCounts(rows []core.SeasonCount) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Season < rows[j].Season
	})
}

// Totals sums the per-season casual and registered tables into the
// headline metrics.
func Totals(rs dataset.RecordSet) core.Headline {
	return headline(seasonGroups(frame(rs, false)))
}

func headline(seasons []seasonTotals) core.Headline {
	var h core.Headline
	for _, r := range seasonMetric(seasons, casualOf) {
		h.Casual += r.Count
	}
	for _, r := range seasonMetric(seasons, registeredOf) {
		h.Registered += r.Count
	}
	h.Total = h.Casual + h.Registered
	return h
}
