package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/domain/repository"
	"IntelliMarket/pkg/config"
	xhttp "IntelliMarket/pkg/http"
	"IntelliMarket/pkg/logger"
)

// DefaultPDFName is used when the server suggests no file name.
const DefaultPDFName = "analysis_report.pdf"

// Client implements service.Analyzer over the analysis backend REST API.
// Inputs are normalised and format-checked here, so malformed symbols never
// cause a round-trip.
type Client struct {
	http    *xhttp.Client
	log     *logger.Logger
	metrics repository.Metrics
}

// NewClient builds a backend client from configuration.
func NewClient(cfg *config.Config, log *logger.Logger, metrics repository.Metrics) *Client {
	return New(xhttp.NewClient(
		xhttp.WithBaseURL(cfg.Backend.BaseURL),
		xhttp.WithTimeout(cfg.Backend.Timeout),
	), log, metrics)
}

// New wraps an existing transport.
func New(hc *xhttp.Client, log *logger.Logger, metrics repository.Metrics) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &Client{http: hc, log: log, metrics: metrics}
}

// BaseURL returns the configured backend prefix.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// send wraps Client.Send with metrics and logging. route is the endpoint
// template used as metric label. A request body is checked against its
// validate tags first; a rejected body never leaves the process.
func (c *Client) send(ctx context.Context, route, method, endpoint string, body, dest interface{}) error {
	if body != nil {
		if err := xhttp.ValidateStruct(body); err != nil {
			return xhttp.ValidationAppError(err)
		}
	}
	start := time.Now()
	err := c.http.Send(ctx, method, endpoint, body, dest)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(xhttp.KindOf(err))
		c.log.Warn("backend request failed",
			logger.String("endpoint", route),
			logger.String("kind", outcome),
			logger.Duration("duration_ms", elapsed),
			logger.Error(err),
		)
	} else {
		c.log.Debug("backend request",
			logger.String("endpoint", route),
			logger.Duration("duration_ms", elapsed),
		)
	}
	c.metrics.RecordRequest(route, outcome, elapsed)
	return err
}

func (c *Client) analyze(ctx context.Context, route string, kind models.AnalysisKind, subject string, depth models.Depth, body interface{}) (*models.AnalysisResult, error) {
	var resp models.AnalysisResponse
	if err := c.send(ctx, route, xhttp.MethodPost, route, body, &resp); err != nil {
		return nil, err
	}
	result, err := BuildResult(kind, subject, depth, &resp)
	if err != nil {
		return nil, xhttp.NewAPIError(http.StatusOK, "Invalid analysis result from server").WithError(err)
	}
	return result, nil
}

func normalizeDepth(d models.Depth, def models.Depth) (models.Depth, error) {
	d = models.Depth(strings.ToLower(strings.TrimSpace(string(d))))
	switch d {
	case "":
		return def, nil
	case models.DepthQuick, models.DepthComprehensive:
		return d, nil
	}
	return "", xhttp.NewValidationError("type", "Analysis type must be 'quick' or 'comprehensive'")
}

// AnalyzeStock runs a single-stock analysis.
func (c *Client) AnalyzeStock(ctx context.Context, symbol string, depth models.Depth) (*models.AnalysisResult, error) {
	symbol = xhttp.NormalizeSymbol(symbol)
	if err := xhttp.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	depth, err := normalizeDepth(depth, models.DepthQuick)
	if err != nil {
		return nil, err
	}
	return c.analyze(ctx, "/analyze/stock", models.KindStock, symbol, depth,
		&models.StockRequest{Symbol: symbol, Type: depth})
}

// CompareStocks compares 2 to 5 symbols.
func (c *Client) CompareStocks(ctx context.Context, symbols []string) (*models.AnalysisResult, error) {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = xhttp.NormalizeSymbol(s); s != "" {
			normalized = append(normalized, s)
		}
	}
	if err := xhttp.ValidateSymbolList(normalized); err != nil {
		return nil, err
	}
	return c.analyze(ctx, "/analyze/comparison", models.KindComparison, strings.Join(normalized, ", "), "",
		&models.ComparisonRequest{Symbols: normalized})
}

// MarketResearch researches a free-text topic.
func (c *Client) MarketResearch(ctx context.Context, topic string) (*models.AnalysisResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, xhttp.NewValidationError("topic", "Research topic is required")
	}
	return c.analyze(ctx, "/analyze/research", models.KindResearch, topic, "",
		&models.ResearchRequest{Topic: topic})
}

// CustomQuery asks a free-form question.
func (c *Client) CustomQuery(ctx context.Context, query string) (*models.AnalysisResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, xhttp.NewValidationError("query", "Query is required")
	}
	return c.analyze(ctx, "/analyze/query", models.KindQuery, query, "",
		&models.QueryRequest{Query: query})
}

// AnalyzeStockAsync starts a background analysis and returns its task handle.
func (c *Client) AnalyzeStockAsync(ctx context.Context, symbol string, depth models.Depth) (*models.TaskHandle, error) {
	symbol = xhttp.NormalizeSymbol(symbol)
	if err := xhttp.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	depth, err := normalizeDepth(depth, models.DepthComprehensive)
	if err != nil {
		return nil, err
	}
	var handle models.TaskHandle
	if err := c.send(ctx, "/analyze/async/stock", xhttp.MethodPost, "/analyze/async/stock",
		&models.StockRequest{Symbol: symbol, Type: depth}, &handle); err != nil {
		return nil, err
	}
	if handle.TaskID == "" {
		return nil, xhttp.NewAPIError(http.StatusOK, "Server did not return a task id")
	}
	return &handle, nil
}

// GetAnalysisStatus fetches the state of an async task.
func (c *Client) GetAnalysisStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, xhttp.NewValidationError("task_id", "Task id is required")
	}
	var status models.TaskStatus
	if err := c.send(ctx, "/status", xhttp.MethodGet, "/status/"+url.PathEscape(taskID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ValidateSymbol asks the backend whether symbol exists. Malformed symbols
// are answered locally with the same "Invalid format" reason the server uses.
func (c *Client) ValidateSymbol(ctx context.Context, symbol string) (*models.SymbolValidation, error) {
	symbol = xhttp.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, xhttp.NewValidationError("symbol", "Symbol is required")
	}
	if !xhttp.IsValidSymbol(symbol) {
		return &models.SymbolValidation{Valid: false, Symbol: symbol, Reason: "Invalid format"}, nil
	}
	var v models.SymbolValidation
	if err := c.send(ctx, "/validate/symbol", xhttp.MethodGet, "/validate/symbol/"+symbol, nil, &v); err != nil {
		return nil, err
	}
	if v.Symbol == "" {
		v.Symbol = symbol
	}
	return &v, nil
}

// DownloadPDF converts report content to a PDF on the backend.
func (c *Client) DownloadPDF(ctx context.Context, content, title string) (*models.PDFDocument, error) {
	req := &models.PDFRequest{Content: content, Title: strings.TrimSpace(title)}
	if err := xhttp.ValidateStruct(req); err != nil {
		return nil, xhttp.NewValidationError("content", "No content to download")
	}

	start := time.Now()
	d, err := c.http.Download(ctx, "/download/pdf", req)
	outcome := "ok"
	if err != nil {
		outcome = string(xhttp.KindOf(err))
	}
	c.metrics.RecordRequest("/download/pdf", outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	name := d.Filename
	if name == "" {
		name = DefaultPDFName
	}
	return &models.PDFDocument{Filename: name, Data: d.Data}, nil
}

// SystemInfo describes the backend service.
func (c *Client) SystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	var info models.SystemInfo
	if err := c.send(ctx, "/system/info", xhttp.MethodGet, "/system/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Health checks backend liveness. The path is resolved against the base URL
// like every other endpoint.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var h models.HealthStatus
	if err := c.send(ctx, "/health", xhttp.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	if h.Status == "" {
		return nil, xhttp.NewAPIError(http.StatusOK, "Backend health check returned no status")
	}
	return &h, nil
}
