package usecase

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/repository"
	"IntelliMarket/internal/service/progress"
	"IntelliMarket/internal/services/backend"
	"IntelliMarket/internal/services/backend/backendtest"
	"IntelliMarket/pkg/cache"
	"IntelliMarket/pkg/config"
	xhttp "IntelliMarket/pkg/http"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []*models.AnalysisEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, e *models.AnalysisEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) all() []*models.AnalysisEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AnalysisEvent(nil), r.events...)
}

type fixture struct {
	ctrl   *Controller
	srv    *backendtest.Server
	events *recordingEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.NewServer()
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.BaseURL()
	cfg.Backend.Timeout = 2 * time.Second
	cfg.Backend.PollInterval = 5 * time.Millisecond

	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })

	events := &recordingEvents{}
	ctrl := NewController(cfg,
		backend.NewClient(cfg, nil, nil),
		repository.NewRecentHistory(store, "", nil, nil),
		events,
		nil,
		progress.New(progress.WithInterval(time.Hour), progress.WithHideDelay(time.Hour)),
		nil,
	)
	return &fixture{ctrl: ctrl, srv: srv, events: events}
}

func TestAnalyzeStockRendersAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.ctrl.AnalyzeStock(ctx, "msft", models.DepthComprehensive)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(view.HTML, `data-section="final_report"`) || !strings.Contains(view.HTML, "<table>") {
		t.Fatalf("unexpected html %s", view.HTML)
	}

	snap := f.ctrl.State().Snapshot()
	if snap.ActiveTab != models.KindStock || snap.Results[models.KindStock] != view {
		t.Fatalf("state not updated: %+v", snap)
	}
	if len(snap.Recent) != 1 || snap.Recent[0].Query != "MSFT" || snap.Recent[0].Kind != models.KindStock {
		t.Fatalf("unexpected recent %+v", snap.Recent)
	}

	tr := f.ctrl.Progress()
	if tr.Percent() != 100 || tr.Running() {
		t.Fatalf("tracker should be completed, got %+v", tr.Snapshot())
	}

	events := f.events.all()
	if len(events) != 1 || events[0].Outcome != "ok" || events[0].Subject != "MSFT" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestValidationFailureStopsTrackerAndSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.CompareStocks(ctx, []string{"AAPL"})
	if xhttp.FormatMessage(err) != "At least 2 symbols required for comparison" {
		t.Fatalf("unexpected error %v", err)
	}
	if f.srv.Calls("POST /api/analyze/comparison") != 0 {
		t.Fatalf("validation failure reached the backend")
	}
	if f.ctrl.Progress().Visible() || f.ctrl.Progress().Running() {
		t.Fatalf("tracker left running after failure")
	}

	snap := f.ctrl.State().Snapshot()
	if snap.LastError == "" || len(snap.Recent) != 0 {
		t.Fatalf("unexpected state after failure %+v", snap)
	}
	events := f.events.all()
	if len(events) != 1 || events[0].Outcome != "error" || events[0].ErrorKind != "validation" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestElevenAnalysesKeepTen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		if _, err := f.ctrl.CustomQuery(ctx, "question "+string(rune('a'+i))); err != nil {
			t.Fatalf("query %d: %v", i, err)
		}
	}
	recent := f.ctrl.Recent(ctx)
	if len(recent) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(recent))
	}
	if recent[0].Query != "question k" || recent[9].Query != "question b" {
		t.Fatalf("unexpected order: %s ... %s", recent[0].Query, recent[9].Query)
	}

	if err := f.ctrl.ClearRecent(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(f.ctrl.Recent(ctx)) != 0 {
		t.Fatalf("expected empty history")
	}
}

func TestAnalyzeDispatchesByKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.ctrl.Analyze(ctx, models.AnalysisRequest{Kind: models.KindComparison, Subject: "aapl, msft"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if view.Result.Subject != "AAPL, MSFT" {
		t.Fatalf("unexpected subject %q", view.Result.Subject)
	}

	view, err = f.ctrl.Analyze(ctx, models.AnalysisRequest{Kind: models.KindResearch, Subject: "AI chips"})
	if err != nil {
		t.Fatalf("research: %v", err)
	}
	if view.Result.Kind != models.KindResearch {
		t.Fatalf("unexpected kind %s", view.Result.Kind)
	}

	if _, err := f.ctrl.Analyze(ctx, models.AnalysisRequest{Kind: "weather"}); xhttp.KindOf(err) != xhttp.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEventFailureDoesNotFailAnalysis(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	if _, err := f.ctrl.AnalyzeStock(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("analysis should succeed despite broker failure: %v", err)
	}
}

func TestValidateSymbolIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := f.ctrl.ValidateSymbol(ctx, "nvda")
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if !v.Valid || v.Name != "NVIDIA Corporation" {
			t.Fatalf("unexpected validation %+v", v)
		}
	}
	if n := f.srv.Calls("GET /api/validate/symbol/"); n != 1 {
		t.Fatalf("expected one backend lookup, got %d", n)
	}
}

func TestWaitForTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	handle, err := f.ctrl.AnalyzeStockAsync(ctx, "aapl", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.srv.QueueTask(handle.TaskID,
		map[string]interface{}{"status": "started", "progress": 0},
		map[string]interface{}{"status": "processing", "progress": 60},
		map[string]interface{}{
			"status":        "completed",
			"progress":      100,
			"symbol":        "AAPL",
			"analysis_type": "comprehensive",
			"completed_at":  "2025-01-02T15:04:05.123456",
			"result":        map[string]interface{}{"final_report": "# Done", "news_analysis": "Calm"},
		},
	)

	view, err := f.ctrl.WaitForTask(ctx, handle.TaskID, "aapl", models.DepthComprehensive)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if view.Result.Subject != "AAPL" || len(view.Result.Sections) != 2 {
		t.Fatalf("unexpected result %+v", view.Result)
	}
	if n := f.srv.Calls("GET /api/status/"); n != 3 {
		t.Fatalf("expected 3 polls, got %d", n)
	}
	if recent := f.ctrl.State().Recent(); len(recent) != 1 || recent[0].Query != "AAPL" {
		t.Fatalf("unexpected recent %+v", recent)
	}
}

func TestWaitForFailedTask(t *testing.T) {
	f := newFixture(t)
	f.srv.QueueTask("t-9", map[string]interface{}{"status": "failed", "error": "Rate limit exceeded"})

	_, err := f.ctrl.WaitForTask(context.Background(), "t-9", "AAPL", "")
	if xhttp.KindOf(err) != xhttp.KindAPI || xhttp.FormatMessage(err) != "Rate limit exceeded" {
		t.Fatalf("unexpected error %v", err)
	}
	if f.ctrl.Progress().Running() {
		t.Fatalf("tracker left running")
	}
}

func TestTaskStatus(t *testing.T) {
	f := newFixture(t)
	f.srv.QueueTask("t-2", map[string]interface{}{"status": "processing", "progress": 40})

	status, err := f.ctrl.TaskStatus(context.Background(), "t-2")
	if err != nil {
		t.Fatalf("TaskStatus: %v", err)
	}
	if status.Status != "processing" || status.Progress != 40 || status.Done() {
		t.Fatalf("unexpected status %+v", status)
	}

	if _, err := f.ctrl.TaskStatus(context.Background(), "missing"); xhttp.KindOf(err) != xhttp.KindAPI {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestWaitForTaskStopsOnDeadline(t *testing.T) {
	f := newFixture(t)
	f.srv.QueueTask("slow", map[string]interface{}{"status": "processing", "progress": 10})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := f.ctrl.WaitForTask(ctx, "slow", "AAPL", "")
	if xhttp.KindOf(err) != xhttp.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestWaitForTaskBoundedByBackendTimeout(t *testing.T) {
	f := newFixture(t)
	f.ctrl.taskTimeout = 40 * time.Millisecond
	f.srv.QueueTask("stuck", map[string]interface{}{"status": "running", "progress": 10})

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.WaitForTask(context.Background(), "stuck", "AAPL", "")
		done <- err
	}()
	select {
	case err := <-done:
		if xhttp.KindOf(err) != xhttp.KindTimeout {
			t.Fatalf("expected timeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("polling did not stop at the backend timeout")
	}
	if f.ctrl.Progress().Visible() {
		t.Fatalf("tracker should be hidden after a timed out task")
	}
}

func TestServerErrorLeavesAppUsable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.Handle("POST /api/analyze/research", func(w http.ResponseWriter, r *http.Request) {
		backendtest.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "LLM unavailable"})
	})

	if _, err := f.ctrl.MarketResearch(ctx, "EV batteries"); xhttp.FormatMessage(err) != "LLM unavailable" {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := f.ctrl.CustomQuery(ctx, "still working?"); err != nil {
		t.Fatalf("follow-up request failed: %v", err)
	}
	if f.ctrl.State().Snapshot().LastError != "" {
		t.Fatalf("last error should clear after a success")
	}
}

func TestSaveMarkdown(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	result := &models.AnalysisResult{
		Kind:     models.KindStock,
		Subject:  "AAPL",
		Sections: []models.Section{{Key: "final_report", Text: "# AAPL"}},
	}

	path, err := SaveMarkdown(dir, result, ts)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "AAPL_analysis_20250304_050607.md" {
		t.Fatalf("unexpected name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "# AAPL" {
		t.Fatalf("unexpected content %q (%v)", data, err)
	}

	if _, err := SaveMarkdown(dir, &models.AnalysisResult{Kind: models.KindQuery}, ts); err == nil {
		t.Fatalf("expected error for empty report")
	}
}

func TestReportFilename(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	tests := []struct {
		kind    models.AnalysisKind
		subject string
		want    string
	}{
		{models.KindStock, "msft", "MSFT_analysis_20250304_050607.md"},
		{models.KindComparison, "AAPL, MSFT", "comparison_AAPL_MSFT_20250304_050607.md"},
		{models.KindResearch, "AI chips", "research_AI_chips_20250304_050607.md"},
		{models.KindQuery, "anything", "query_response_20250304_050607.md"},
	}
	for _, tt := range tests {
		if got := ReportFilename(tt.kind, tt.subject, ts); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.kind, tt.want, got)
		}
	}
}
