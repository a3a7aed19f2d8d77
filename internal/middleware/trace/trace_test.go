package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applog "bikedash/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP, Output: &buf})

	var gotRoute string
	var gotStatus int
	m := NewMiddleware(logger, func(*http.Request) string { return "192.0.2.1" },
		func(method, route string, status int, d time.Duration) {
			gotRoute, gotStatus = route, status
		})

	var seenID string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ui/weather", func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	m.Handler(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/weather", nil))

	if seenID == "" || !strings.HasPrefix(seenID, "req_") {
		t.Errorf("request id = %q", seenID)
	}
	if rec.Header().Get("X-Request-ID") != seenID {
		t.Errorf("response header id = %q, want %q", rec.Header().Get("X-Request-ID"), seenID)
	}
	if gotRoute != "GET /ui/weather" || gotStatus != http.StatusTeapot {
		t.Errorf("observer got route=%q status=%d", gotRoute, gotStatus)
	}
	out := buf.String()
	for _, want := range []string{"HTTP request completed", "status_code=418", "request_id=" + seenID, "client_ip=192.0.2.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	m := NewMiddleware(nil, nil, nil)
	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "upstream-1" {
		t.Errorf("request id = %q", seen)
	}
}
