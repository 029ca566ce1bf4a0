package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

func TestServerRoutesWithoutMetrics(t *testing.T) {
	s := NewServer(pingHandler{}, WithMetricsPath(""))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metrics should be disabled, got %d", rec.Code)
	}
}

func TestServerStartAndStop(t *testing.T) {
	s := NewServer(pingHandler{}, WithHost("127.0.0.1"), WithPort(0), WithMetricsPath(""))
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("unexpected body %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-s.Errors():
		t.Fatalf("unexpected serve error %v", err)
	default:
	}
}

func TestServerStartReportsBindFailure(t *testing.T) {
	first := NewServer(nil, WithHost("127.0.0.1"), WithPort(0), WithMetricsPath(""))
	if err := first.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer first.Stop(context.Background())

	_, p, err := net.SplitHostPort(first.Addr())
	if err != nil {
		t.Fatalf("split %q: %v", first.Addr(), err)
	}
	port, _ := strconv.Atoi(p)
	second := NewServer(nil, WithHost("127.0.0.1"), WithPort(port), WithMetricsPath(""))
	if err := second.Start(); err == nil {
		t.Fatalf("expected bind failure on a taken port")
	}
}

func TestServerCORSOrigins(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		want    string
	}{
		{"configured", []string{"http://localhost:3000"}, "http://localhost:3000"},
		{"unset", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(pingHandler{}, WithMetricsPath(""), WithCORSOrigins(tt.origins...))
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != tt.want {
				t.Fatalf("allow origin %q, want %q", got, tt.want)
			}
		})
	}
}
