package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bikedash/internal/analytics"
	"bikedash/internal/core"
	applog "bikedash/internal/log"
	"bikedash/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type indexView struct {
	Min, Max       string
	Start, End     string
	HasData        bool
	ReportsEnabled bool
}

type barRow struct {
	Label     string
	Value     string
	Width     int
	Highlight bool
}

type headlineView struct {
	Start, End string
	Empty      bool
	Records    string
	Casual     string
	Registered string
	Total      string
}

type seasonRow struct {
	Season          string
	Casual          string
	Registered      string
	CasualWidth     int
	RegisteredWidth int
}

type seasonsView struct {
	Empty      bool
	Rows       []seasonRow
	Casual     []barRow
	Registered []barRow
}

type weatherView struct {
	Empty     bool
	Highlight string
	Rows      []barRow
}

type hourlyRow struct {
	Hour       string
	Workingday string
	Holiday    string
}

type hourlyPanel struct {
	Season string
	Rows   []hourlyRow
}

type hourlyView struct {
	Empty  bool
	Panels []hourlyPanel
}

type rfmRow struct {
	Weekday   string
	Recency   string
	Frequency string
	Monetary  string
}

type rfmView struct {
	Empty        bool
	AvgRecency   string
	AvgFrequency string
	AvgMonetary  string
	Rows         []rfmRow
	TopRecency   []barRow
	TopFrequency []barRow
	TopMonetary  []barRow
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.LogError(r.Context(), "Template execution failed", err, applog.OpRender,
			applog.NewFields().With("template", name))
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rng := ParseRange(r.URL.Query(), s.bounds)
	view := indexView{
		HasData:        s.hasData,
		ReportsEnabled: s.reports != nil,
	}
	if s.hasData {
		view.Min, view.Max = s.bounds.Start.String(), s.bounds.End.String()
		view.Start, view.End = rng.Start.String(), rng.End.String()
	}
	s.render(w, r, "index.html", view)
}

func (s *Server) handleHeadline(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "headline", analytics.PartHeadline)
	s.render(w, r, "headline.html", headlineView{
		Start:      d.Start,
		End:        d.End,
		Empty:      d.Empty,
		Records:    formatCount(int64(d.Records)),
		Casual:     formatCount(d.Headline.Casual),
		Registered: formatCount(d.Headline.Registered),
		Total:      formatCount(d.Headline.Total),
	})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "seasons", analytics.PartSeasons)
	s.render(w, r, "seasons.html", buildSeasonsView(d))
}

func buildSeasonsView(d core.Dashboard) seasonsView {
	view := seasonsView{Empty: d.Empty}

	var max int64
	for _, c := range d.SeasonalUsage {
		if c.Count > max {
			max = c.Count
		}
	}
	// SeasonalUsage holds the casual row then the registered row per season.
	for i := 0; i+1 < len(d.SeasonalUsage); i += 2 {
		casual, registered := d.SeasonalUsage[i], d.SeasonalUsage[i+1]
		view.Rows = append(view.Rows, seasonRow{
			Season:          string(casual.Season),
			Casual:          formatCount(casual.Count),
			Registered:      formatCount(registered.Count),
			CasualWidth:     barWidth(float64(casual.Count), float64(max)),
			RegisteredWidth: barWidth(float64(registered.Count), float64(max)),
		})
	}
	view.Casual = seasonBars(d.CasualBySeason)
	view.Registered = seasonBars(d.RegisteredBySeason)
	return view
}

// seasonBars highlights every row tied with the first, which holds the
// maximum.
func seasonBars(counts []core.SeasonCount) []barRow {
	if len(counts) == 0 {
		return nil
	}
	max := counts[0].Count
	rows := make([]barRow, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, barRow{
			Label:     string(c.Season),
			Value:     formatCount(c.Count),
			Width:     barWidth(float64(c.Count), float64(max)),
			Highlight: c.Count == max,
		})
	}
	return rows
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "weather", analytics.PartWeather)
	s.render(w, r, "weather.html", buildWeatherView(d))
}

func buildWeatherView(d core.Dashboard) weatherView {
	view := weatherView{Empty: d.Empty, Highlight: core.NotAvailable}
	top, ok := d.Weather.Max()
	if !ok {
		return view
	}
	view.Highlight = top.Condition
	for _, c := range d.Weather.Rows {
		view.Rows = append(view.Rows, barRow{
			Label:     c.Condition,
			Value:     formatCount(c.Count),
			Width:     barWidth(float64(c.Count), float64(top.Count)),
			Highlight: c.Count == top.Count,
		})
	}
	return view
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "hourly", analytics.PartHourly)
	s.render(w, r, "hourly.html", buildHourlyView(d))
}

// buildHourlyView pivots each panel to one row per hour with a column per
// day status. Missing combinations render as a dash.
func buildHourlyView(d core.Dashboard) hourlyView {
	view := hourlyView{Empty: d.Empty || len(d.Hourly) == 0}
	for _, table := range d.Hourly {
		panel := hourlyPanel{Season: string(table.Season)}
		index := make(map[int]int)
		for _, m := range table.Rows {
			i, ok := index[m.Hour]
			if !ok {
				i = len(panel.Rows)
				index[m.Hour] = i
				panel.Rows = append(panel.Rows, hourlyRow{Hour: fmt.Sprintf("%02d:00", m.Hour), Workingday: "-", Holiday: "-"})
			}
			switch m.DayStatus {
			case core.Workingday:
				panel.Rows[i].Workingday = formatDecimal(m.Mean)
			case core.Holiday:
				panel.Rows[i].Holiday = formatDecimal(m.Mean)
			}
		}
		view.Panels = append(view.Panels, panel)
	}
	return view
}

func (s *Server) handleRFM(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "rfm", analytics.PartRFM)
	s.render(w, r, "rfm.html", buildRFMView(d))
}

func buildRFMView(d core.Dashboard) rfmView {
	view := rfmView{Empty: d.Empty}
	view.AvgRecency, view.AvgFrequency, view.AvgMonetary = summaryFields(d.RFMSummary)
	for _, row := range d.RFM {
		view.Rows = append(view.Rows, rfmRow{
			Weekday:   row.Weekday,
			Recency:   strconv.Itoa(row.Recency),
			Frequency: formatCount(int64(row.Frequency)),
			Monetary:  formatCount(row.Monetary),
		})
	}
	view.TopRecency = rfmBars(d.TopRecency, func(r core.WeekdayRFM) int64 { return int64(r.Recency) })
	view.TopFrequency = rfmBars(d.TopFrequency, func(r core.WeekdayRFM) int64 { return int64(r.Frequency) })
	view.TopMonetary = rfmBars(d.TopMonetary, func(r core.WeekdayRFM) int64 { return r.Monetary })
	return view
}

// rfmBars scales each bar against the largest value in rows.
func rfmBars(rows []core.WeekdayRFM, metric func(core.WeekdayRFM) int64) []barRow {
	var max int64
	for _, r := range rows {
		if v := metric(r); v > max {
			max = v
		}
	}
	bars := make([]barRow, 0, len(rows))
	for _, r := range rows {
		v := metric(r)
		bars = append(bars, barRow{
			Label:     r.Weekday,
			Value:     formatCount(v),
			Width:     barWidth(float64(v), float64(max)),
			Highlight: v == metric(rows[0]),
		})
	}
	return bars
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "api", analytics.PartAll)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d); err != nil {
		applog.LogError(r.Context(), "Failed to encode dashboard", err, applog.OpRender, nil)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r, "export", analytics.PartAll)
	data, err := report.Workbook(d)
	if err != nil {
		applog.LogError(r.Context(), "Failed to build workbook", err, applog.OpExport,
			applog.NewFields().WithRange(d.Start, d.End))
		InternalServerError("Could not build the workbook").Write(w)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(d)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		ServiceUnavailableError("Report queue is not configured").Write(w)
		return
	}
	if !s.hasData {
		ServiceUnavailableError("No data loaded").Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	rng := ParseRange(parser, s.bounds)
	if err := rng.Validate(); err != nil {
		BadRequestError("Invalid date range: " + err.Error()).Write(w)
		return
	}

	id, err := s.reports.PublishReportRequest(r.Context(), rng)
	if err != nil {
		applog.LogError(r.Context(), "Failed to enqueue report", err, applog.OpEnqueue,
			applog.NewFields().WithRange(rng.Start.String(), rng.End.String()))
		NewHTMXResponse().
			Status(http.StatusBadGateway).
			TriggerErrorNotification("Could not queue the report").
			BodyHTML(`<div class="error">Could not queue the report</div>`).
			Write(w)
		return
	}
	s.metrics.ReportEnqueued("http")

	applog.FromContext(r.Context()).LogFields(r.Context(), slog.LevelInfo, "Report request enqueued",
		applog.NewFields().
			WithOperation(applog.OpEnqueue).
			WithRange(rng.Start.String(), rng.End.String()).
			With(applog.FieldReportID, id))

	if !parser.IsJSON() {
		NewHTMXResponse().
			Status(http.StatusAccepted).
			TriggerReportQueued(id, rng.Start.String(), rng.End.String()).
			TriggerSuccessNotification("Report queued").
			BodyHTML(fmt.Sprintf(`<div class="success">Report %s queued for %s to %s</div>`,
				template.HTMLEscapeString(id), rng.Start, rng.End)).
			Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":    id,
		"start": rng.Start.String(),
		"end":   rng.End.String(),
	})
}

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports not ready until templates and data are loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK
	checks := map[string]string{
		"templates": "ok",
		"dataset":   "ok",
		"reports":   "ok",
	}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if !s.hasData {
		checks["dataset"] = "failed: no records loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if s.reports == nil {
		checks["reports"] = "not_configured"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"records":   s.data.Len(),
		"checks":    checks,
	})
}
