package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"IntelliMarket/pkg/http/middleware"
	applogger "IntelliMarket/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerOption func(*Server)

func WithHost(host string) ServerOption {
	return func(s *Server) { s.host = host }
}

func WithPort(port int) ServerOption {
	return func(s *Server) { s.port = port }
}

// WithTimeouts bounds reading a request and writing its response. Analyses
// are answered synchronously, so write must outlast the slowest one.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.echo.Server.ReadTimeout = read
		s.echo.Server.WriteTimeout = write
	}
}

// WithMetricsPath serves Prometheus metrics at path; "" disables them along
// with the request metrics middleware.
func WithMetricsPath(path string) ServerOption {
	return func(s *Server) { s.metricsPath = path }
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithCORSOrigins allows browser calls from origins. None means no CORS.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(s *Server) { s.corsOrigins = origins }
}

// Server is the Echo instance behind the display surface.
type Server struct {
	echo        *echo.Echo
	host        string
	port        int
	metricsPath string
	corsOrigins []string
	log         *applogger.Logger
	errCh       chan error
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 6 * time.Minute

	s := &Server{
		echo:        e,
		host:        "0.0.0.0",
		port:        8050,
		metricsPath: "/metrics",
		log:         applogger.Nop(),
		errCh:       make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.Recover(s.log))
	e.Use(middleware.RequestLogging(s.log))
	if s.metricsPath != "" {
		e.Use(middleware.Metrics(s.log, 30*time.Second))
		e.GET(s.metricsPath, echo.WrapHandler(promhttp.Handler()))
	}
	if len(s.corsOrigins) > 0 {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: s.corsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
			MaxAge:       600,
		}))
	}
	if handler != nil {
		handler.RegisterRoutes(e)
	}
	return s
}

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if a := s.echo.ListenerAddr(); a != nil {
		return a.String()
	}
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Start binds the port and serves in the background. A bind failure is
// returned; later serve failures arrive on Errors.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.echo.Listener = ln

	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped unexpectedly", applogger.Error(err))
			s.errCh <- err
		}
	}()
	return nil
}

func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Stop drains in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
