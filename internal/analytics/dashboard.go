package analytics

import (
	"github.com/go-gota/gota/dataframe"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
)

// TopN is the length of the ranked RFM views.
const TopN = 5

// Part selects which dashboard tables BuildParts computes.
type Part uint8

const (
	PartHeadline Part = 1 << iota
	PartSeasons
	PartWeather
	PartHourly
	PartRFM

	PartAll = PartHeadline | PartSeasons | PartWeather | PartHourly | PartRFM
)

// Build filters base to rng and computes every dashboard table. An empty
// range yields empty tables with Empty set and no RFM summary.
func Build(base dataset.RecordSet, rng core.DateRange) core.Dashboard {
	return BuildParts(base, rng, PartAll)
}

// BuildParts is Build restricted to the selected tables; the others keep
// their zero value. The filtered set is converted to a frame once and each
// grouping runs at most once.
func BuildParts(base dataset.RecordSet, rng core.DateRange, parts Part) core.Dashboard {
	rs := base.Filter(rng)
	d := core.Dashboard{
		Range:   rng,
		Start:   rng.Start.String(),
		End:     rng.End.String(),
		Records: rs.Len(),
		Empty:   rs.IsEmpty(),
		Hourly:  []core.HourlyTable{},
	}

	var df dataframe.DataFrame
	if parts&(PartHeadline|PartSeasons|PartWeather|PartRFM) != 0 {
		df = frame(rs, false)
	}

	if parts&(PartHeadline|PartSeasons) != 0 {
		seasons := seasonGroups(df)
		if parts&PartHeadline != 0 {
			d.Headline = headline(seasons)
		}
		if parts&PartSeasons != 0 {
			d.SeasonalUsage = seasonalUsage(seasons)
			d.CasualBySeason = seasonMetric(seasons, casualOf)
			d.RegisteredBySeason = seasonMetric(seasons, registeredOf)
		}
	}

	if parts&PartWeather != 0 {
		d.Weather = weatherUsage(df)
	}

	if parts&PartHourly != 0 {
		d.Hourly = hourlyPanels(rs.Seasons(), frame(rs, true))
	}

	if parts&PartRFM != 0 {
		d.RFM = []core.WeekdayRFM{}
		if bounds, ok := rs.Bounds(); ok {
			d.RFM = weekdayRFM(df, bounds.End)
		}
		if summary, err := RFMAverages(d.RFM); err == nil {
			d.RFMSummary = &summary
		}
		d.TopRecency = TopByRecency(d.RFM, TopN)
		d.TopFrequency = TopByFrequency(d.RFM, TopN)
		d.TopMonetary = TopByMonetary(d.RFM, TopN)
	}
	return d
}
