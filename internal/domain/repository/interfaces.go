package repository

import (
	"context"
	"time"

	"IntelliMarket/internal/domain/models"
)

// HistoryStore persists the bounded recent-history list.
type HistoryStore interface {
	List(ctx context.Context) ([]models.RecentEntry, error)
	Add(ctx context.Context, entry models.RecentEntry) ([]models.RecentEntry, error)
	Clear(ctx context.Context) error
}

// EventPublisher ships analysis events to the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.AnalysisEvent) error
	Close() error
}

type Metrics interface {
	RecordRequest(endpoint, outcome string, d time.Duration)
	RecordError(kind string)
	RecordRender(kind string)
	SetRecentEntries(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string, string, time.Duration) {}
func (NopMetrics) RecordError(string)                          {}
func (NopMetrics) RecordRender(string)                         {}
func (NopMetrics) SetRecentEntries(int)                        {}
