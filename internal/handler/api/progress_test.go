package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"IntelliMarket/internal/service/progress"

	"github.com/gorilla/websocket"
)

func dialProgress(t *testing.T, v *env, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ts := httptest.NewServer(v.e)
	t.Cleanup(ts.Close)

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/progress/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readSnapshot(t *testing.T, conn *websocket.Conn) progress.Snapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var s progress.Snapshot
	if err := conn.ReadJSON(&s); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return s
}

func TestProgressStreamPushesSnapshots(t *testing.T) {
	v := newEnv(t, 10)
	conn, _, err := dialProgress(t, v, "http://localhost:3000")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if s := readSnapshot(t, conn); s.Visible || s.Running {
		t.Fatalf("expected idle snapshot first, got %+v", s)
	}

	tr := v.ctrl.Progress()
	tr.Start()
	defer tr.Stop()
	if s := readSnapshot(t, conn); !s.Visible || !s.Running {
		t.Fatalf("expected running snapshot, got %+v", s)
	}
	tr.Set(60)
	if s := readSnapshot(t, conn); s.Percent != 60 {
		t.Fatalf("expected 60%%, got %+v", s)
	}
}

func TestProgressStreamRejectsForeignOrigin(t *testing.T) {
	v := newEnv(t, 10)
	_, resp, err := dialProgress(t, v, "http://evil.example")
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}
