package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/pkg/cache"
	"IntelliMarket/pkg/logger"
)

func entry(i int) models.RecentEntry {
	return models.RecentEntry{
		Query:     fmt.Sprintf("Q%d", i),
		Kind:      models.KindStock,
		Timestamp: time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC),
	}
}

func TestAddKeepsTenNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := NewRecentHistory(cache.NewMemoryCache(), "", nil, nil)

	for i := 1; i <= 11; i++ {
		if _, err := h.Add(ctx, entry(i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	list, err := h.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != MaxRecentEntries {
		t.Fatalf("expected %d entries, got %d", MaxRecentEntries, len(list))
	}
	if list[0].Query != "Q11" || list[9].Query != "Q2" {
		t.Fatalf("unexpected order: first=%s last=%s", list[0].Query, list[9].Query)
	}
}

func TestHistoryPersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := cache.NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	h := NewRecentHistory(store, DefaultHistoryKey, nil, nil)
	if _, err := h.Add(ctx, entry(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := h.Add(ctx, entry(2)); err != nil {
		t.Fatalf("add: %v", err)
	}
	_ = store.Close()

	store, err = cache.NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	list, _ := NewRecentHistory(store, DefaultHistoryKey, nil, nil).List(ctx)
	if len(list) != 2 || list[0].Query != "Q2" || !list[1].Timestamp.Equal(entry(1).Timestamp) {
		t.Fatalf("unexpected persisted list %+v", list)
	}
}

func TestCorruptHistoryIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache()
	if err := store.Set(ctx, DefaultHistoryKey, "{not json", 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var buf bytes.Buffer
	h := NewRecentHistory(store, DefaultHistoryKey, logger.NewWithWriter(&buf, "warn"), nil)

	list, err := h.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", list, err)
	}
	if !strings.Contains(buf.String(), "recent history unreadable") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}

	list, err = h.Add(ctx, entry(1))
	if err != nil || len(list) != 1 {
		t.Fatalf("add over corrupt state: %v %v", list, err)
	}
}

type failingStore struct {
	cache.Service
}

func (failingStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("disk full")
}

func (failingStore) Get(context.Context, string, interface{}) error {
	return cache.ErrCacheMiss
}

func TestAddSurvivesWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	h := NewRecentHistory(failingStore{}, "", logger.NewWithWriter(&buf, "warn"), nil)

	list, err := h.Add(context.Background(), entry(1))
	if err != nil {
		t.Fatalf("write failures must not propagate: %v", err)
	}
	if len(list) != 1 || list[0].Query != "Q1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("expected the failure to be logged, got %q", buf.String())
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	h := NewRecentHistory(cache.NewMemoryCache(), "", nil, nil)
	_, _ = h.Add(ctx, entry(1))

	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	list, _ := h.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty list after clear, got %+v", list)
	}
}

func TestAddOverSharedLayeredStore(t *testing.T) {
	ctx := context.Background()
	shared := cache.NewMemoryCache()
	a := NewRecentHistory(cache.NewLayeredCache(shared), "", nil, nil)
	b := NewRecentHistory(cache.NewLayeredCache(shared), "", nil, nil)

	add := func(h interface {
		Add(context.Context, models.RecentEntry) ([]models.RecentEntry, error)
	}, query string) {
		if _, err := h.Add(ctx, models.RecentEntry{Query: query, Kind: models.KindStock}); err != nil {
			t.Fatalf("add %s: %v", query, err)
		}
	}
	add(a, "A1")
	add(b, "B1")
	add(a, "A2")

	var stored []models.RecentEntry
	if err := shared.Get(ctx, DefaultHistoryKey, &stored); err != nil {
		t.Fatalf("read shared store: %v", err)
	}
	got := make([]string, len(stored))
	for i, e := range stored {
		got[i] = e.Query
	}
	if strings.Join(got, ",") != "A2,B1,A1" {
		t.Fatalf("shared history = %v, want [A2 B1 A1]", got)
	}
}
