package repository

import (
	"context"
	"errors"
	"sync"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/domain/repository"
	"IntelliMarket/pkg/cache"
	"IntelliMarket/pkg/logger"
)

const (
	// DefaultHistoryKey is the blob key holding the recent list.
	DefaultHistoryKey = "recent_analyses"
	// MaxRecentEntries bounds the recent list.
	MaxRecentEntries = 10
)

// RecentHistory keeps the bounded recent-analysis list in a single keyed
// blob. Read or write failures are logged and treated as an empty or
// unchanged list.
type RecentHistory struct {
	store   cache.Service
	key     string
	log     *logger.Logger
	metrics repository.Metrics

	mu sync.Mutex
}

// NewRecentHistory creates a history repository over store.
func NewRecentHistory(store cache.Service, key string, log *logger.Logger, metrics repository.Metrics) repository.HistoryStore {
	if key == "" {
		key = DefaultHistoryKey
	}
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &RecentHistory{store: store, key: key, log: log, metrics: metrics}
}

// List returns the entries newest first.
func (h *RecentHistory) List(ctx context.Context) ([]models.RecentEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx, h.store.Get), nil
}

// Add inserts entry at the front, drops whatever falls past the bound and
// returns the resulting list. The list is returned even if it could not be
// persisted.
func (h *RecentHistory) Add(ctx context.Context, entry models.RecentEntry) ([]models.RecentEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// The front copy of a layered store may predate another instance's write.
	current := h.load(ctx, func(ctx context.Context, key string, dest interface{}) error {
		return cache.GetFresh(ctx, h.store, key, dest)
	})
	next := make([]models.RecentEntry, 0, MaxRecentEntries)
	next = append(next, entry)
	for _, e := range current {
		if len(next) == MaxRecentEntries {
			break
		}
		next = append(next, e)
	}

	if err := h.store.Set(ctx, h.key, next, 0); err != nil {
		h.log.Warn("failed to save recent history",
			logger.String("key", h.key),
			logger.Error(err),
		)
	}
	h.metrics.SetRecentEntries(len(next))
	return next, nil
}

// Clear removes the persisted list.
func (h *RecentHistory) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Delete(ctx, h.key); err != nil {
		h.log.Warn("failed to clear recent history", logger.String("key", h.key), logger.Error(err))
		return err
	}
	h.metrics.SetRecentEntries(0)
	return nil
}

type getFunc func(ctx context.Context, key string, dest interface{}) error

func (h *RecentHistory) load(ctx context.Context, get getFunc) []models.RecentEntry {
	var entries []models.RecentEntry
	err := get(ctx, h.key, &entries)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return []models.RecentEntry{}
	case err != nil:
		h.log.Warn("recent history unreadable, starting empty",
			logger.String("key", h.key),
			logger.Error(err),
		)
		return []models.RecentEntry{}
	}
	if len(entries) > MaxRecentEntries {
		entries = entries[:MaxRecentEntries]
	}
	if entries == nil {
		entries = []models.RecentEntry{}
	}
	return entries
}
