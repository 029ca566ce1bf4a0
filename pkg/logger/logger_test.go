package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu    sync.Mutex
	calls int
	logs  []Digest
}

func (p *recordingPublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if entries, ok := payload.([]Digest); ok {
		p.logs = append(p.logs, entries...)
	}
	return nil
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug")
	l.Info("analysis done", String("symbol", "AAPL"), Int("sections", 3), Error(errors.New("boom")))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["symbol"] != "AAPL" || got["message"] != "analysis done" || got["error"] != "boom" {
		t.Fatalf("unexpected log line: %v", got)
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestCollectorAggregatesDuplicates(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("backend down", String("endpoint", "/health"))
	}
	if n := l.collector.Pending(); n != 1 {
		t.Fatalf("expected 1 unique entry, got %d", n)
	}

	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.calls != 1 || len(pub.logs) != 1 || pub.logs[0].Count != 3 {
		t.Fatalf("unexpected publish: calls=%d logs=%+v", pub.calls, pub.logs)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})

	c.AddLog("warn", "history write failed", nil, "repository/history.go:1")
	c.AddLog("error", "backend down", nil, "backend/client.go:2")
	if n := c.Pending(); n != 0 {
		t.Fatalf("expected early flush, %d pending", n)
	}
	c.Close()
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.calls != 1 || len(pub.logs) != 2 {
		t.Fatalf("unexpected publish: calls=%d logs=%+v", pub.calls, pub.logs)
	}
}

func TestCollectorRecordsCaller(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})
	l.Warn("slow request", Duration("duration_ms", 2*time.Second))
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.logs) != 1 {
		t.Fatalf("expected one digest, got %+v", pub.logs)
	}
	d := pub.logs[0]
	if d.Caller == "unknown" || !strings.HasPrefix(d.Caller, "logger/logger_test.go:") {
		t.Fatalf("unexpected caller %q", d.Caller)
	}
	if d.Fields["duration_ms"] != 2000 {
		t.Fatalf("unexpected fields %+v", d.Fields)
	}
}
