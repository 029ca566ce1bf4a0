package usecase

import (
	"context"
	"strings"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/domain/repository"
	"IntelliMarket/internal/domain/service"
	"IntelliMarket/internal/service/cache"
	"IntelliMarket/internal/service/progress"
	"IntelliMarket/pkg/config"
	xhttp "IntelliMarket/pkg/http"
	"IntelliMarket/pkg/logger"
	"IntelliMarket/pkg/render"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"

	eventTimeout = 5 * time.Second
)

// Controller runs user operations: validate, call the backend, render,
// record history, publish events. It owns the AppState.
type Controller struct {
	analyzer     service.Analyzer
	history      repository.HistoryStore
	events       repository.EventPublisher
	metrics      repository.Metrics
	tracker      *progress.Tracker
	validations  *cache.ValidationCache
	log          *logger.Logger
	pollInterval time.Duration
	taskTimeout  time.Duration
	state        *AppState
	now          func() time.Time
}

// NewController wires a controller. events, metrics and log may be nil.
func NewController(
	cfg *config.Config,
	analyzer service.Analyzer,
	history repository.HistoryStore,
	events repository.EventPublisher,
	metrics repository.Metrics,
	tracker *progress.Tracker,
	log *logger.Logger,
) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	if tracker == nil {
		tracker = progress.New()
	}
	return &Controller{
		analyzer:     analyzer,
		history:      history,
		events:       events,
		metrics:      metrics,
		tracker:      tracker,
		validations:  cache.NewValidationCache(cfg.Validation.CacheTTL),
		log:          log,
		pollInterval: cfg.Backend.PollInterval,
		taskTimeout:  cfg.Backend.Timeout,
		state:        NewAppState(),
		now:          time.Now,
	}
}

// State returns the controller's application state.
func (c *Controller) State() *AppState { return c.state }

// Progress returns the tracker animated during backend calls.
func (c *Controller) Progress() *progress.Tracker { return c.tracker }

// LoadRecent reads the persisted recent list into the state.
func (c *Controller) LoadRecent(ctx context.Context) []models.RecentEntry {
	recent, err := c.history.List(ctx)
	if err != nil {
		c.log.Warn("failed to load recent history", logger.Error(err))
		recent = nil
	}
	c.state.setRecent(recent)
	c.metrics.SetRecentEntries(len(recent))
	return c.state.Recent()
}

// Recent returns the recent list, newest first.
func (c *Controller) Recent(ctx context.Context) []models.RecentEntry {
	return c.LoadRecent(ctx)
}

// ClearRecent empties the recent list.
func (c *Controller) ClearRecent(ctx context.Context) error {
	if err := c.history.Clear(ctx); err != nil {
		return err
	}
	c.state.setRecent(nil)
	return nil
}

// AnalyzeStock analyzes one symbol.
func (c *Controller) AnalyzeStock(ctx context.Context, symbol string, depth models.Depth) (*ResultView, error) {
	req := models.AnalysisRequest{Kind: models.KindStock, Subject: xhttp.NormalizeSymbol(symbol), Depth: depth}
	return c.run(ctx, req, func(ctx context.Context) (*models.AnalysisResult, error) {
		return c.analyzer.AnalyzeStock(ctx, req.Subject, depth)
	})
}

// CompareStocks compares 2 to 5 symbols.
func (c *Controller) CompareStocks(ctx context.Context, symbols []string) (*ResultView, error) {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = xhttp.NormalizeSymbol(s); s != "" {
			normalized = append(normalized, s)
		}
	}
	req := models.AnalysisRequest{Kind: models.KindComparison, Subject: strings.Join(normalized, ", "), Symbols: normalized}
	return c.run(ctx, req, func(ctx context.Context) (*models.AnalysisResult, error) {
		return c.analyzer.CompareStocks(ctx, normalized)
	})
}

// MarketResearch researches a topic.
func (c *Controller) MarketResearch(ctx context.Context, topic string) (*ResultView, error) {
	req := models.AnalysisRequest{Kind: models.KindResearch, Subject: strings.TrimSpace(topic)}
	return c.run(ctx, req, func(ctx context.Context) (*models.AnalysisResult, error) {
		return c.analyzer.MarketResearch(ctx, req.Subject)
	})
}

// CustomQuery answers a free-form question.
func (c *Controller) CustomQuery(ctx context.Context, query string) (*ResultView, error) {
	req := models.AnalysisRequest{Kind: models.KindQuery, Subject: strings.TrimSpace(query)}
	return c.run(ctx, req, func(ctx context.Context) (*models.AnalysisResult, error) {
		return c.analyzer.CustomQuery(ctx, req.Subject)
	})
}

// Analyze dispatches req to the matching operation.
func (c *Controller) Analyze(ctx context.Context, req models.AnalysisRequest) (*ResultView, error) {
	switch req.Kind {
	case models.KindStock:
		return c.AnalyzeStock(ctx, req.Subject, req.Depth)
	case models.KindComparison:
		symbols := req.Symbols
		if len(symbols) == 0 {
			symbols = strings.Split(req.Subject, ",")
		}
		return c.CompareStocks(ctx, symbols)
	case models.KindResearch:
		return c.MarketResearch(ctx, req.Subject)
	case models.KindQuery:
		return c.CustomQuery(ctx, req.Subject)
	}
	return nil, xhttp.NewValidationError("kind", "Unknown analysis type: "+string(req.Kind))
}

// ValidateSymbol looks a symbol up, answering from cache when possible.
func (c *Controller) ValidateSymbol(ctx context.Context, symbol string) (*models.SymbolValidation, error) {
	symbol = xhttp.NormalizeSymbol(symbol)
	if v, ok := c.validations.Get(symbol); ok {
		return v, nil
	}
	v, err := c.analyzer.ValidateSymbol(ctx, symbol)
	if err != nil {
		c.metrics.RecordError(string(xhttp.KindOf(err)))
		return nil, err
	}
	c.validations.Put(symbol, v)
	return v, nil
}

// DownloadPDF converts report text to a PDF on the backend.
func (c *Controller) DownloadPDF(ctx context.Context, content, title string) (*models.PDFDocument, error) {
	doc, err := c.analyzer.DownloadPDF(ctx, content, title)
	if err != nil {
		c.metrics.RecordError(string(xhttp.KindOf(err)))
		return nil, err
	}
	return doc, nil
}

// SystemInfo describes the backend.
func (c *Controller) SystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	return c.analyzer.SystemInfo(ctx)
}

// Health checks backend liveness.
func (c *Controller) Health(ctx context.Context) (*models.HealthStatus, error) {
	return c.analyzer.Health(ctx)
}

// run drives one analysis: the tracker animates while call is pending and
// is always stopped or completed before run returns.
func (c *Controller) run(ctx context.Context, req models.AnalysisRequest, call func(context.Context) (*models.AnalysisResult, error)) (*ResultView, error) {
	start := c.now()
	c.tracker.Start()

	result, err := call(ctx)
	if err != nil {
		c.tracker.Stop()
		c.fail(ctx, req, start, err)
		return nil, err
	}
	c.tracker.Complete()
	return c.finish(ctx, req, start, result), nil
}

func (c *Controller) fail(ctx context.Context, req models.AnalysisRequest, start time.Time, err error) {
	kind := xhttp.KindOf(err)
	c.metrics.RecordError(string(kind))
	c.state.setError(xhttp.FormatMessage(err))

	log := c.log.Warn
	if kind == xhttp.KindValidation {
		log = c.log.Debug
	}
	log("analysis failed",
		logger.String("kind", string(req.Kind)),
		logger.String("subject", req.Subject),
		logger.String("error_kind", string(kind)),
		logger.Error(err),
	)
	c.publish(ctx, req, start, outcomeError, string(kind))
}

func (c *Controller) finish(ctx context.Context, req models.AnalysisRequest, start time.Time, result *models.AnalysisResult) *ResultView {
	view := &ResultView{Result: result, HTML: RenderResult(result)}
	c.metrics.RecordRender(string(req.Kind))
	c.state.setResult(req.Kind, view)

	subject := result.Subject
	if subject == "" {
		subject = req.Subject
	}
	recent, err := c.history.Add(ctx, models.RecentEntry{Query: subject, Kind: req.Kind, Timestamp: c.now()})
	if err != nil {
		c.log.Warn("failed to record recent entry", logger.Error(err))
	} else {
		c.state.setRecent(recent)
	}

	c.log.Info("analysis completed",
		logger.String("kind", string(req.Kind)),
		logger.String("subject", subject),
		logger.Int("sections", len(result.Sections)),
		logger.Duration("duration_ms", c.now().Sub(start)),
	)
	c.publish(ctx, req, start, outcomeOK, "")
	return view
}

// publish is best effort; a broker outage must not fail the analysis.
func (c *Controller) publish(ctx context.Context, req models.AnalysisRequest, start time.Time, outcome, errKind string) {
	if c.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()

	now := c.now()
	e := &models.AnalysisEvent{
		Kind:       req.Kind,
		Subject:    req.Subject,
		Depth:      req.Depth,
		Outcome:    outcome,
		ErrorKind:  errKind,
		DurationMs: now.Sub(start).Milliseconds(),
		Timestamp:  now.Unix(),
	}
	if err := c.events.Publish(ctx, e); err != nil {
		c.log.Warn("failed to publish analysis event", logger.Error(err))
	}
}

// RenderResult renders every section of result as HTML.
func RenderResult(result *models.AnalysisResult) string {
	if result == nil {
		return render.NoContent
	}
	return render.RenderSections(Sections(result))
}

// Sections converts result sections for the renderer.
func Sections(result *models.AnalysisResult) []render.Section {
	if result == nil {
		return nil
	}
	sections := make([]render.Section, len(result.Sections))
	for i, s := range result.Sections {
		sections[i] = render.Section{Key: s.Key, Title: s.Title, Text: s.Text}
	}
	return sections
}
