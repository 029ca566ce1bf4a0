package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/services/backend"
	xhttp "IntelliMarket/pkg/http"
	"IntelliMarket/pkg/logger"
)

const defaultPollInterval = 2 * time.Second

// AnalyzeStockAsync starts a background analysis on the backend.
func (c *Controller) AnalyzeStockAsync(ctx context.Context, symbol string, depth models.Depth) (*models.TaskHandle, error) {
	handle, err := c.analyzer.AnalyzeStockAsync(ctx, symbol, depth)
	if err != nil {
		c.metrics.RecordError(string(xhttp.KindOf(err)))
		return nil, err
	}
	c.log.Info("async analysis started",
		logger.String("task_id", handle.TaskID),
		logger.String("symbol", xhttp.NormalizeSymbol(symbol)),
	)
	return handle, nil
}

// TaskStatus fetches the current state of an async analysis once.
func (c *Controller) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	status, err := c.analyzer.GetAnalysisStatus(ctx, taskID)
	if err != nil {
		c.metrics.RecordError(string(xhttp.KindOf(err)))
		return nil, err
	}
	return status, nil
}

// WaitForTask polls taskID until it completes or fails, feeding the
// server-reported progress into the tracker. Polling gives up after
// backend.timeout, as a synchronous analysis would. The finished result is
// rendered and recorded like a synchronous analysis.
func (c *Controller) WaitForTask(ctx context.Context, taskID, symbol string, depth models.Depth) (*ResultView, error) {
	req := models.AnalysisRequest{Kind: models.KindStock, Subject: xhttp.NormalizeSymbol(symbol), Depth: depth}
	return c.run(ctx, req, func(ctx context.Context) (*models.AnalysisResult, error) {
		if c.taskTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.taskTimeout)
			defer cancel()
		}
		status, err := c.poll(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if status.Status == models.TaskFailed {
			msg := status.Error
			if msg == "" {
				msg = "Analysis failed"
			}
			return nil, xhttp.NewAPIError(http.StatusOK, msg)
		}
		subject := req.Subject
		if status.Symbol != "" {
			subject = status.Symbol
		}
		result, err := backend.BuildResult(models.KindStock, subject, depth, &models.AnalysisResponse{
			Symbol:       subject,
			AnalysisType: status.AnalysisType,
			Result:       status.Result,
			Timestamp:    status.CompletedAt,
			Status:       status.Status,
		})
		if err != nil {
			return nil, xhttp.NewAPIError(http.StatusOK, "Invalid analysis result from server").WithError(err)
		}
		return result, nil
	})
}

func (c *Controller) poll(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	interval := c.pollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := c.now()
	for {
		status, err := c.analyzer.GetAnalysisStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		c.tracker.Set(status.Progress)
		if status.Done() {
			return status, nil
		}
		c.log.Debug("task pending",
			logger.String("task_id", taskID),
			logger.String("status", status.Status),
			logger.Int("progress", status.Progress),
		)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, xhttp.NewTimeoutError(c.now().Sub(start).Round(time.Second)).WithError(ctx.Err())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
