package api

import (
	"net/http"
	"net/url"
	"time"

	"IntelliMarket/internal/service/progress"
	"IntelliMarket/internal/usecase"
	xlogger "IntelliMarket/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamWriteWait = 5 * time.Second
	streamPongWait  = 60 * time.Second
	streamPing      = streamPongWait * 9 / 10
)

// ProgressStream pushes tracker snapshots over a websocket, next to the
// polled GET /api/progress.
type ProgressStream struct {
	logger   *xlogger.Logger
	tracker  *progress.Tracker
	origins  map[string]bool
	upgrader websocket.Upgrader
}

func NewProgressStream(logger *xlogger.Logger, ctrl *usecase.Controller, origins []string) *ProgressStream {
	h := &ProgressStream{logger: logger, tracker: ctrl.Progress(), origins: make(map[string]bool)}
	for _, o := range origins {
		h.origins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  256,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *ProgressStream) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/progress/ws", h.Stream)
}

// checkOrigin admits same-host pages and the configured CORS origins.
func (h *ProgressStream) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] || h.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (h *ProgressStream) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered
		h.logger.Debug("progress stream upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	// A slow reader misses intermediate ticks; the next snapshot supersedes them.
	updates := make(chan progress.Snapshot, 16)
	unsubscribe := h.tracker.Subscribe(func(s progress.Snapshot) {
		select {
		case updates <- s:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(s progress.Snapshot) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(s)
	}
	if err := send(h.tracker.Snapshot()); err != nil {
		return nil
	}

	ping := time.NewTicker(streamPing)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case s := <-updates:
			if err := send(s); err != nil {
				h.logger.Debug("progress stream closed", xlogger.Error(err))
				return nil
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
