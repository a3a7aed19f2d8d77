package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikedash/internal/core"
)

// Source column names.
const (
	ColDate       = "dteday"
	ColSeason     = "season"
	ColWeather    = "weathersit"
	ColHour       = "hr"
	ColWeekday    = "weekday"
	ColDayStatus  = "daystatus"
	ColWorkingday = "workingday"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColTotal      = "cnt"
	ColID         = "instant"
)

var requiredColumns = []string{
	ColDate, ColSeason, ColWeather, ColWeekday, ColCasual, ColRegistered, ColTotal, ColID,
}

var errMissingColumn = errors.New("required column missing")

// LoadCSV reads the delimited file at path.
func LoadCSV(path string) (RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return RecordSet{}, &core.LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return ReadCSV(path, f)
}

// ReadCSV parses a comma-separated table into a sorted RecordSet. source
// names the input in errors. Every column is read as text and validated
// here so that a bad cell is reported with its line and column.
func ReadCSV(source string, r io.Reader) (RecordSet, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return RecordSet{}, &core.LoadError{Source: source, Err: df.Err}
	}
	return fromFrame(source, df)
}

func fromFrame(source string, df dataframe.DataFrame) (RecordSet, error) {
	names := map[string]bool{}
	for _, n := range df.Names() {
		names[n] = true
	}
	for _, c := range requiredColumns {
		if !names[c] {
			return RecordSet{}, &core.LoadError{Source: source, Column: c, Err: errMissingColumn}
		}
	}
	if !names[ColDayStatus] && !names[ColWorkingday] {
		return RecordSet{}, &core.LoadError{
			Source: source,
			Column: ColDayStatus + "|" + ColWorkingday,
			Err:    errMissingColumn,
		}
	}

	col := func(name string) []string {
		if !names[name] {
			return nil
		}
		return df.Col(name).Records()
	}
	var (
		dates      = col(ColDate)
		seasons    = col(ColSeason)
		weather    = col(ColWeather)
		hours      = col(ColHour)
		weekdays   = col(ColWeekday)
		statuses   = col(ColDayStatus)
		working    = col(ColWorkingday)
		casual     = col(ColCasual)
		registered = col(ColRegistered)
		totals     = col(ColTotal)
		ids        = col(ColID)
	)

	records := make([]core.Record, 0, df.Nrow())
	seen := make(map[string]int, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		line := i + 2
		fail := func(column string, err error) (RecordSet, error) {
			return RecordSet{}, &core.LoadError{Source: source, Line: line, Column: column, Err: err}
		}

		rec := core.Record{ID: strings.TrimSpace(ids[i]), Weather: strings.TrimSpace(weather[i])}
		if missing(rec.ID) {
			return fail(ColID, core.ErrEmptyID)
		}
		if prev, dup := seen[rec.ID]; dup {
			return fail(ColID, fmt.Errorf("duplicate id %q (first seen on line %d)", rec.ID, prev))
		}
		seen[rec.ID] = line

		d, err := core.ParseDate(dates[i])
		if err != nil {
			return fail(ColDate, err)
		}
		rec.Date = d

		if rec.Season, err = core.ParseSeason(seasons[i]); err != nil {
			return fail(ColSeason, err)
		}
		if missing(rec.Weather) {
			return fail(ColWeather, errors.New("empty weather condition"))
		}

		if hours != nil && !missing(hours[i]) {
			h, err := strconv.Atoi(strings.TrimSpace(hours[i]))
			if err != nil || h < 0 || h > 23 {
				return fail(ColHour, fmt.Errorf("%w: %q", core.ErrInvalidHour, hours[i]))
			}
			rec.Hour, rec.HasHour = h, true
		}

		if statuses != nil {
			if rec.DayStatus, err = core.ParseDayStatus(statuses[i]); err != nil {
				return fail(ColDayStatus, err)
			}
		} else if rec.DayStatus, err = dayStatusFromFlag(working[i]); err != nil {
			return fail(ColWorkingday, err)
		}

		if rec.Weekday = weekdayName(weekdays[i]); rec.Weekday == "" {
			return fail(ColWeekday, errors.New("empty weekday"))
		}

		for _, f := range []struct {
			column string
			raw    string
			dst    *int64
		}{
			{ColCasual, casual[i], &rec.Casual},
			{ColRegistered, registered[i], &rec.Registered},
			{ColTotal, totals[i], &rec.Total},
		} {
			n, err := parseCount(f.raw)
			if err != nil {
				return fail(f.column, err)
			}
			*f.dst = n
		}
		if rec.Total != rec.Casual+rec.Registered {
			return fail(ColTotal, core.ErrTotalMismatch)
		}

		records = append(records, rec)
	}
	return New(records), nil
}

func missing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "NaN" || s == "NA"
}

func parseCount(s string) (int64, error) {
	v := strings.TrimSpace(s)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Some exports write integral counts as floats.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("invalid count %q", s)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", core.ErrNegativeCount, n)
	}
	return n, nil
}

func dayStatusFromFlag(s string) (core.DayStatus, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return core.Workingday, nil
	case "0":
		return core.Holiday, nil
	}
	return core.ParseDayStatus(s)
}

// weekdayName maps numeric weekdays (0 = Sunday) to names and leaves names
// untouched.
func weekdayName(s string) string {
	v := strings.TrimSpace(s)
	if missing(v) {
		return ""
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n).String()
	}
	return v
}
