package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bikedash/internal/core"
)

// ReportRequestMessage asks the worker to build and publish the report for
// an inclusive date range. Dates use the YYYY-MM-DD layout.
type ReportRequestMessage struct {
	ID          string    `json:"id"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	RequestedAt time.Time `json:"requested_at"`
	Origin      string    `json:"origin,omitempty"`
}

// NewReportRequestMessage creates a request with a fresh id.
func NewReportRequestMessage(rng core.DateRange, origin string) *ReportRequestMessage {
	return &ReportRequestMessage{
		ID:          uuid.NewString(),
		Start:       rng.Start.String(),
		End:         rng.End.String(),
		RequestedAt: time.Now().UTC(),
		Origin:      origin,
	}
}

// Range parses and validates the requested range.
func (m *ReportRequestMessage) Range() (core.DateRange, error) {
	start, err := core.ParseDate(m.Start)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("start: %w", err)
	}
	end, err := core.ParseDate(m.End)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("end: %w", err)
	}
	rng := core.DateRange{Start: start, End: end}
	if err := rng.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return rng, nil
}

// Validate checks the id and the range.
func (m *ReportRequestMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("missing report request id")
	}
	_, err := m.Range()
	return err
}

func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
