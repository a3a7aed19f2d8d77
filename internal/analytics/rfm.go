package analytics

import (
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

// WeekdayRFM computes recency, frequency and monetary value per weekday.
// Recency is measured in whole days from the weekday's latest date to the
// latest date in rs, so the weekday holding that date has recency 0.
func WeekdayRFM(rs dataset.RecordSet) []core.WeekdayRFM {
	bounds, ok := rs.Bounds()
	if !ok {
		return []core.WeekdayRFM{}
	}
	return weekdayRFM(frame(rs, false), bounds.End)
}

func weekdayRFM(df dataframe.DataFrame, latest core.Date) []core.WeekdayRFM {
	rows := make([]core.WeekdayRFM, 0, 7)
	for _, g := range groups(df, colWeekday) {
		row := core.WeekdayRFM{
			Weekday:   key(g, colWeekday),
			Frequency: distinct(g, colID),
			Monetary:  sum(g, colTotal),
		}
		if d, err := core.ParseDate(maxString(g, colDate)); err == nil {
			row.Recency = d.DaysUntil(latest)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return weekdayLess(rows[i].Weekday, rows[j].Weekday)
	})
	return rows
}

// RFMAverages averages each RFM metric. An empty table has no defined
// mean and returns core.ErrDivisionUndefined.
func RFMAverages(rows []core.WeekdayRFM) (core.RFMSummary, error) {
	if len(rows) == 0 {
		return core.RFMSummary{}, core.ErrDivisionUndefined
	}
	var recency, frequency, monetary float64
	for _, r := range rows {
		recency += float64(r.Recency)
		frequency += float64(r.Frequency)
		monetary += float64(r.Monetary)
	}
	n := float64(len(rows))
	return core.RFMSummary{
		AvgRecency:   recency / n,
		AvgFrequency: frequency / n,
		AvgMonetary:  monetary / n,
	}, nil
}

// TopByRecency returns the n most recent weekdays.
func TopByRecency(rows []core.WeekdayRFM, n int) []core.WeekdayRFM {
	return top(rows, n, func(a, b core.WeekdayRFM) bool {
		if a.Recency != b.Recency {
			return a.Recency < b.Recency
		}
		return weekdayLess(a.Weekday, b.Weekday)
	})
}

// TopByFrequency returns the n weekdays with the most distinct records.
func TopByFrequency(rows []core.WeekdayRFM, n int) []core.WeekdayRFM {
	return top(rows, n, func(a, b core.WeekdayRFM) bool {
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		return weekdayLess(a.Weekday, b.Weekday)
	})
}

// TopByMonetary returns the n weekdays with the highest total usage.
func TopByMonetary(rows []core.WeekdayRFM, n int) []core.WeekdayRFM {
	return top(rows, n, func(a, b core.WeekdayRFM) bool {
		if a.Monetary != b.Monetary {
			return a.Monetary > b.Monetary
		}
		return weekdayLess(a.Weekday, b.Weekday)
	})
}

func top(rows []core.WeekdayRFM, n int, less func(a, b core.WeekdayRFM) bool) []core.WeekdayRFM {
	out := make([]core.WeekdayRFM, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// weekdayLess orders known weekday names Sunday first and puts anything
// else after them by name.
func weekdayLess(a, b string) bool {
	ia, oka := weekdayIndex(a)
	ib, okb := weekdayIndex(b)
	switch {
	case oka && okb:
		return ia < ib
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

func weekdayIndex(name string) (int, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return int(d), true
		}
	}
	return 0, false
}
