package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical textual form of a Date.
const DateLayout = "2006-01-02"

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

const (
	Workingday DayStatus = "Workingday"
	Holiday    DayStatus = "Holiday"
)

const (
	UserCasual     UserType = "casual"
	UserRegistered UserType = "registered"
)

type (
	Season    string
	DayStatus string
	UserType  string

	Date struct {
		time.Time
	}

	// Record is one row of the usage table.
	Record struct {
		ID         string
		Date       Date
		Season     Season
		Weather    string
		Hour       int
		HasHour    bool
		DayStatus  DayStatus
		Weekday    string
		Casual     int64
		Registered int64
		Total      int64
	}

	// DateRange is an inclusive [Start, End] interval of calendar dates.
	DateRange struct {
		Start Date
		End   Date
	}
)

// DisplaySeasons is the order seasonal panels are rendered in.
var DisplaySeasons = []Season{Winter, Fall, Spring, Summer}

var (
	ErrInvalidSeason    = errors.New("invalid season")
	ErrInvalidDayStatus = errors.New("invalid day status")
	ErrInvalidHour      = errors.New("invalid hour")
	ErrNegativeCount    = errors.New("negative count")
	ErrTotalMismatch    = errors.New("cnt does not equal casual + registered")
	ErrEmptyID          = errors.New("empty record id")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrReversedRange    = errors.New("range end before start")
)

// ParseSeason accepts the four season names, case-insensitively.
// Numeric encodings are rejected rather than mapped.
func ParseSeason(s string) (Season, error) {
	v := strings.TrimSpace(s)
	for _, season := range DisplaySeasons {
		if strings.EqualFold(v, string(season)) {
			return season, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeason, s)
}

func ParseDayStatus(s string) (DayStatus, error) {
	v := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(v, string(Workingday)):
		return Workingday, nil
	case strings.EqualFold(v, string(Holiday)):
		return Holiday, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDayStatus, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate parses a calendar date, dropping any time-of-day component.
func ParseDate(s string) (Date, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// DaysUntil returns the whole number of days from d to later.
func (d Date) DaysUntil(later Date) int {
	return int(later.Sub(d.Time).Hours() / 24)
}

// Contains reports whether d falls inside the inclusive range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := r.End.Validate(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if r.End.Before(r.Start.Time) {
		return ErrReversedRange
	}
	return nil
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if _, err := ParseSeason(string(r.Season)); err != nil {
		return err
	}
	if _, err := ParseDayStatus(string(r.DayStatus)); err != nil {
		return err
	}
	if r.HasHour && (r.Hour < 0 || r.Hour > 23) {
		return fmt.Errorf("%w: %d", ErrInvalidHour, r.Hour)
	}
	if r.Casual < 0 || r.Registered < 0 || r.Total < 0 {
		return ErrNegativeCount
	}
	if r.Total != r.Casual+r.Registered {
		return ErrTotalMismatch
	}
	return nil
}
