package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.SetDatasetRecords(731)
	r.RateLimited()
	r.RateLimited()
	r.ReportEnqueued("http")
	r.ReportSink("xlsx", nil)
	r.ReportSink("sheets", errors.New("quota"))

	if got := testutil.ToFloat64(r.datasetRecords); got != 731 {
		t.Errorf("dataset records = %v", got)
	}
	if got := testutil.ToFloat64(r.rateLimited); got != 2 {
		t.Errorf("rate limited = %v", got)
	}
	if got := testutil.ToFloat64(r.reportsEnqueued.WithLabelValues("http")); got != 1 {
		t.Errorf("enqueued = %v", got)
	}
	if got := testutil.ToFloat64(r.reportSinks.WithLabelValues("sheets", "error")); got != 1 {
		t.Errorf("sheets errors = %v", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveHTTP(http.MethodGet, "/", http.StatusOK, 15*time.Millisecond)
	r.ObserveBuild("dashboard", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`bikedash_http_requests_total{method="GET",route="/",status="200"} 1`,
		"bikedash_dashboard_build_seconds_count",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.SetDatasetRecords(1)
	r.ObserveHTTP("GET", "/", 200, time.Second)
	r.ReportSink("xlsx", nil)
	if r.Registry() != nil {
		t.Error("nil recorder must have no registry")
	}
}
