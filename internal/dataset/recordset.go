// Package dataset holds the immutable in-memory record set and the loaders
// that build it.
package dataset

import (
	"sort"

	"bikedash/internal/core"
)

// RecordSet is an ordered, read-only sequence of records sorted ascending
// by date. Filtering returns a new set and never touches the receiver, so a
// single base set can be shared by concurrent requests.
type RecordSet struct {
	records []core.Record
}

// New copies records and stable-sorts the copy by date.
func New(records []core.Record) RecordSet {
	out := make([]core.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return RecordSet{records: out}
}

func (rs RecordSet) Len() int {
	return len(rs.records)
}

func (rs RecordSet) IsEmpty() bool {
	return len(rs.records) == 0
}

// Records returns a copy of the underlying rows.
func (rs RecordSet) Records() []core.Record {
	out := make([]core.Record, len(rs.records))
	copy(out, rs.records)
	return out
}

// Each calls fn for every record in order without copying the set.
func (rs RecordSet) Each(fn func(core.Record)) {
	for _, r := range rs.records {
		fn(r)
	}
}

// Bounds returns the min and max dates present. ok is false on an empty set.
func (rs RecordSet) Bounds() (core.DateRange, bool) {
	if len(rs.records) == 0 {
		return core.DateRange{}, false
	}
	return core.DateRange{
		Start: rs.records[0].Date,
		End:   rs.records[len(rs.records)-1].Date,
	}, true
}

// Filter keeps records whose date lies in the inclusive range, preserving
// their relative order.
func (rs RecordSet) Filter(r core.DateRange) RecordSet {
	return rs.where(func(rec core.Record) bool { return r.Contains(rec.Date) })
}

// FilterSeason keeps records of the given season.
func (rs RecordSet) FilterSeason(s core.Season) RecordSet {
	return rs.where(func(rec core.Record) bool { return rec.Season == s })
}

// Seasons lists the distinct seasons present, in order of first appearance.
func (rs RecordSet) Seasons() []core.Season {
	seen := map[core.Season]struct{}{}
	var out []core.Season
	for _, r := range rs.records {
		if _, ok := seen[r.Season]; ok {
			continue
		}
		seen[r.Season] = struct{}{}
		out = append(out, r.Season)
	}
	return out
}

func (rs RecordSet) where(keep func(core.Record) bool) RecordSet {
	var out []core.Record
	for _, r := range rs.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return RecordSet{records: out}
}
