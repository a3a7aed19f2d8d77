package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bikedash/internal/analytics"
	"bikedash/internal/core"
	"bikedash/internal/dataset"
	applog "bikedash/internal/log"
	"bikedash/internal/metrics"
	"bikedash/internal/middleware/ratelimit"
	"bikedash/internal/middleware/security"
	"bikedash/internal/middleware/trace"
	appweb "bikedash/web"
)

// ReportEnqueuer queues a report for a date range and returns the request id.
type ReportEnqueuer interface {
	PublishReportRequest(ctx context.Context, rng core.DateRange) (string, error)
}

// Options holds the optional collaborators of a Server. Nil values disable
// the matching feature.
type Options struct {
	Reports ReportEnqueuer
	Metrics *metrics.Recorder
	Logger  *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template

	data    dataset.RecordSet
	bounds  core.DateRange
	hasData bool

	reports  ReportEnqueuer
	metrics  *metrics.Recorder
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates over the loaded record set,
// returning a ready-to-run http.Server.
func NewServer(addr string, data dataset.RecordSet, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Default(applog.ComponentHTTP)
	}

	s := &Server{
		data:    data,
		reports: opts.Reports,
		metrics: opts.Metrics,
		logger:  logger,
	}
	s.bounds, s.hasData = data.Bounds()
	s.metrics.SetDatasetRecords(data.Len())

	s.detector = security.NewDetector(s.metrics.Suspicious)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{OnLimit: s.metrics.RateLimited})

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err, applog.FieldComponent, applog.ComponentTemplate)
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/headline", s.handleHeadline)
	mux.HandleFunc("GET /ui/seasons", s.handleSeasons)
	mux.HandleFunc("GET /ui/weather", s.handleWeather)
	mux.HandleFunc("GET /ui/hourly", s.handleHourly)
	mux.HandleFunc("GET /ui/rfm", s.handleRFM)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboardJSON)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("POST /reports", s.handleCreateReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	tracer := trace.NewMiddleware(logger, s.detector.ExtractClientIP, s.metrics.ObserveHTTP)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)(handler)
	handler = tracer.Handler(handler)
	handler = s.detector.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// dashboard builds the selected tables for the range named by the request
// query and records how long it took under view.
func (s *Server) dashboard(r *http.Request, view string, parts analytics.Part) core.Dashboard {
	rng := ParseRange(r.URL.Query(), s.bounds)
	start := time.Now()
	d := analytics.BuildParts(s.data, rng, parts)
	s.metrics.ObserveBuild(view, time.Since(start))

	applog.FromContext(r.Context()).LogFields(r.Context(), slog.LevelDebug, "Dashboard built",
		applog.NewFields().
			WithOperation(applog.OpBuild).
			WithRange(d.Start, d.End).
			With(applog.FieldRecords, d.Records).
			With("view", view))
	return d
}
