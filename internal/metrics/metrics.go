// Package metrics exposes the process metrics served on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry. All methods are safe on a nil
// receiver so components can run without metrics.
type Recorder struct {
	registry *prometheus.Registry

	datasetRecords  prometheus.Gauge
	buildSeconds    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpSeconds     *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	suspicious      prometheus.Counter
	reportsEnqueued *prometheus.CounterVec
	reportSinks     *prometheus.CounterVec
	reportSeconds   prometheus.Histogram
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikedash_dataset_records",
			Help: "Number of records in the loaded dataset.",
		}),
		buildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikedash_dashboard_build_seconds",
			Help:    "Time spent filtering and aggregating the tables of one dashboard view.",
			Buckets: prometheus.DefBuckets,
		}, []string{"view"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikedash_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikedash_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikedash_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikedash_suspicious_requests_total",
			Help: "Requests matching a suspicious pattern.",
		}),
		reportsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikedash_report_requests_total",
			Help: "Report requests enqueued by origin.",
		}, []string{"origin"}),
		reportSinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikedash_report_sink_writes_total",
			Help: "Report sink writes by sink and outcome.",
		}, []string{"sink", "status"}),
		reportSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikedash_report_duration_seconds",
			Help:    "Time spent handling one report request.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		r.datasetRecords, r.buildSeconds, r.httpRequests, r.httpSeconds,
		r.rateLimited, r.suspicious, r.reportsEnqueued, r.reportSinks, r.reportSeconds,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) SetDatasetRecords(n int) {
	if r == nil {
		return
	}
	r.datasetRecords.Set(float64(n))
}

// ObserveBuild records how long one dashboard view took to compute.
func (r *Recorder) ObserveBuild(view string, d time.Duration) {
	if r == nil {
		return
	}
	r.buildSeconds.WithLabelValues(view).Observe(d.Seconds())
}

func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpSeconds.WithLabelValues(route).Observe(d.Seconds())
}

func (r *Recorder) RateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

func (r *Recorder) Suspicious() {
	if r == nil {
		return
	}
	r.suspicious.Inc()
}

// ReportEnqueued counts a report request; origin is "http" or "schedule".
func (r *Recorder) ReportEnqueued(origin string) {
	if r == nil {
		return
	}
	r.reportsEnqueued.WithLabelValues(origin).Inc()
}

// ReportSink counts one sink write.
func (r *Recorder) ReportSink(sink string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.reportSinks.WithLabelValues(sink, status).Inc()
}

func (r *Recorder) ObserveReport(d time.Duration) {
	if r == nil {
		return
	}
	r.reportSeconds.Observe(d.Seconds())
}
