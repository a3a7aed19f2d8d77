package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRange marks a date range that selects no records.
	ErrEmptyRange = errors.New("no records in selected range")

	// ErrDivisionUndefined is returned when averaging an empty table.
	ErrDivisionUndefined = errors.New("mean of empty table is undefined")
)

// NotAvailable is rendered in place of undefined metrics.
const NotAvailable = "N/A"

// LoadError reports a missing or malformed data source. Line is 1-based
// and counts the header; zero means the error is not tied to a row.
type LoadError struct {
	Source string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("load %s: line %d, column %s: %v", e.Source, e.Line, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load %s: column %s: %v", e.Source, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("load %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// EmptyRangeError carries the range that produced no records.
type EmptyRangeError struct {
	Range DateRange
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("%v: %s", ErrEmptyRange, e.Range)
}

func (e *EmptyRangeError) Is(target error) bool {
	return target == ErrEmptyRange
}
