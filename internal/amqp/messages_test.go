package amqp

import (
	"errors"
	"testing"
	"time"

	"bikedash/internal/core"
)

func TestNewReportRequestMessage(t *testing.T) {
	rng := core.DateRange{Start: core.NewDate(2011, 1, 1), End: core.NewDate(2011, 12, 31)}
	msg := NewReportRequestMessage(rng, "schedule")

	if msg.ID == "" {
		t.Error("ID should be generated")
	}
	if msg.Start != "2011-01-01" || msg.End != "2011-12-31" || msg.Origin != "schedule" {
		t.Errorf("message = %+v", msg)
	}
	if time.Since(msg.RequestedAt) > time.Second {
		t.Error("RequestedAt should be recent")
	}
	if other := NewReportRequestMessage(rng, "schedule"); other.ID == msg.ID {
		t.Error("IDs should be unique")
	}
}

func TestReportRequestMessage_JSON(t *testing.T) {
	msg := &ReportRequestMessage{
		ID:          "r1",
		Start:       "2011-01-01",
		End:         "2011-01-31",
		RequestedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	want := `{"id":"r1","start":"2011-01-01","end":"2011-01-31","requested_at":"2024-01-01T12:00:00Z"}`
	if string(data) != want {
		t.Errorf("ToJSON() = %s, want %s", data, want)
	}

	if _, err := ReportRequestMessageFromJSON([]byte(`{"id": 5}`)); err == nil {
		t.Error("ReportRequestMessageFromJSON() should fail on a numeric id")
	}
}

func TestReportRequestMessage_Range(t *testing.T) {
	tests := []struct {
		name    string
		msg     ReportRequestMessage
		wantErr error
	}{
		{"valid", ReportRequestMessage{ID: "r", Start: "2011-01-01", End: "2011-01-31"}, nil},
		{"single day", ReportRequestMessage{ID: "r", Start: "2011-01-01", End: "2011-01-01"}, nil},
		{"reversed", ReportRequestMessage{ID: "r", Start: "2011-02-01", End: "2011-01-01"}, core.ErrReversedRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	bad := ReportRequestMessage{ID: "r", Start: "yesterday", End: "2011-01-01"}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() should reject an unparseable start")
	}
	if err := (&ReportRequestMessage{Start: "2011-01-01", End: "2011-01-01"}).Validate(); err == nil {
		t.Error("Validate() should reject a missing id")
	}
}
