package service

import (
	"context"

	"IntelliMarket/internal/domain/models"
)

// Analyzer is the typed surface of the analysis backend. Implementations
// normalise and validate inputs before any network call.
type Analyzer interface {
	AnalyzeStock(ctx context.Context, symbol string, depth models.Depth) (*models.AnalysisResult, error)
	CompareStocks(ctx context.Context, symbols []string) (*models.AnalysisResult, error)
	MarketResearch(ctx context.Context, topic string) (*models.AnalysisResult, error)
	CustomQuery(ctx context.Context, query string) (*models.AnalysisResult, error)
	AnalyzeStockAsync(ctx context.Context, symbol string, depth models.Depth) (*models.TaskHandle, error)
	GetAnalysisStatus(ctx context.Context, taskID string) (*models.TaskStatus, error)
	ValidateSymbol(ctx context.Context, symbol string) (*models.SymbolValidation, error)
	DownloadPDF(ctx context.Context, content, title string) (*models.PDFDocument, error)
	SystemInfo(ctx context.Context) (*models.SystemInfo, error)
	Health(ctx context.Context) (*models.HealthStatus, error)
}
