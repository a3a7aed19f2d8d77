package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bikedash/internal/core"
)

// valueGetter is satisfied by url.Values and RequestBodyParser.
type valueGetter interface {
	Get(key string) string
}

// ParseRange reads the start and end parameters against the dataset
// bounds. Missing or malformed values fall back to the matching bound,
// reversed values are swapped, and a range overlapping the data is clamped
// to it. A range lying entirely outside the data is returned unchanged so
// the dashboard renders its empty state.
func ParseRange(values valueGetter, bounds core.DateRange) core.DateRange {
	rng := bounds
	if d, ok := parseDateParam(values.Get("start")); ok {
		rng.Start = d
	}
	if d, ok := parseDateParam(values.Get("end")); ok {
		rng.End = d
	}
	if rng.End.Before(rng.Start.Time) {
		rng.Start, rng.End = rng.End, rng.Start
	}
	if bounds.Start.IsZero() || bounds.End.IsZero() {
		return rng
	}

	overlaps := !rng.End.Before(bounds.Start.Time) && !rng.Start.After(bounds.End.Time)
	if !overlaps {
		return rng
	}
	if rng.Start.Before(bounds.Start.Time) {
		rng.Start = bounds.Start
	}
	if rng.End.After(bounds.End.Time) {
		rng.End = bounds.End
	}
	return rng
}

func parseDateParam(v string) (core.Date, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.Date{}, false
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, false
	}
	return d, true
}

// RequestBodyParser reads a JSON or form-encoded body once. HTMX posts
// forms; API clients may post JSON.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, 1<<16))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(body), &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a sanitized string value from the parsed body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if s, ok := p.jsonData[key].(string); ok {
			return sanitizeInput(s)
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}
