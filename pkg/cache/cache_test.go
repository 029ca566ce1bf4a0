package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type entry struct {
	Query string `json:"query"`
	Kind  string `json:"kind"`
}

func newStores(t *testing.T) map[string]Service {
	t.Helper()
	sqlite, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	backing, err := NewSQLiteCache(filepath.Join(t.TempDir(), "backing.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	stores := map[string]Service{
		"memory":  NewMemoryCache(),
		"sqlite":  sqlite,
		"layered": NewLayeredCache(backing),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			in := []entry{{Query: "AAPL", Kind: "stock"}, {Query: "AI chips", Kind: "research"}}
			if err := s.Set(ctx, "recent", in, 0); err != nil {
				t.Fatalf("set: %v", err)
			}

			var out []entry
			if err := s.Get(ctx, "recent", &out); err != nil {
				t.Fatalf("get: %v", err)
			}
			if len(out) != 2 || out[1].Query != "AI chips" {
				t.Fatalf("unexpected value %+v", out)
			}

			ok, err := s.Exists(ctx, "recent")
			if err != nil || !ok {
				t.Fatalf("exists = %v, %v", ok, err)
			}

			if err := s.Delete(ctx, "recent"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := s.Get(ctx, "recent", &out); !errors.Is(err, ErrCacheMiss) {
				t.Fatalf("expected miss after delete, got %v", err)
			}
		})
	}
}

func TestServiceRawStrings(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "blob", "{not json", 0); err != nil {
				t.Fatalf("set: %v", err)
			}
			var raw string
			if err := s.Get(ctx, "blob", &raw); err != nil || raw != "{not json" {
				t.Fatalf("raw get = %q, %v", raw, err)
			}
			var out []entry
			if err := s.Get(ctx, "blob", &out); err == nil || errors.Is(err, ErrCacheMiss) {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	}
}

func TestServiceExpiration(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "short", "v", 20*time.Millisecond); err != nil {
				t.Fatalf("set: %v", err)
			}
			time.Sleep(60 * time.Millisecond)
			var v string
			if err := s.Get(ctx, "short", &v); !errors.Is(err, ErrCacheMiss) {
				t.Fatalf("expected miss after expiry, got %q, %v", v, err)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "recent_analyses", []entry{{Query: "MSFT", Kind: "stock"}}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = first.Close()

	second, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	var out []entry
	err = second.Get(ctx, "recent_analyses", &out)
	if err != nil || len(out) != 1 || out[0].Query != "MSFT" {
		t.Fatalf("unexpected reopen result %+v, %v", out, err)
	}
}

func TestSQLiteRejectsBadTable(t *testing.T) {
	if _, err := NewSQLiteCache(filepath.Join(t.TempDir(), "x.db"), WithSQLiteTable("kv; DROP")); err == nil {
		t.Fatalf("expected invalid table name error")
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", "1", 0)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", "2", 0)
	time.Sleep(time.Millisecond)
	var v string
	_ = mc.Get(ctx, "a", &v)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if mc.Len() != 2 {
		t.Fatalf("unexpected size %d", mc.Len())
	}
}

func TestMemoryOverwriteKeepsSize(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	_ = mc.Set(ctx, "a", "1", 0)
	_ = mc.Set(ctx, "b", "2", 0)
	_ = mc.Set(ctx, "a", "3", 0)
	_ = mc.Set(ctx, "c", "4", 0)

	var v string
	if err := mc.Get(ctx, "a", &v); err != nil || v != "3" {
		t.Fatalf("a = %q, %v", v, err)
	}
	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted after a was rewritten")
	}
}

func TestLayeredDropsFrontOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Service: NewMemoryCache()}
	lc := NewLayeredCache(store, WithLayeredMemorySize(4))
	defer lc.Close()

	if err := lc.Set(ctx, "k", "v1", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	store.fail = true
	if err := lc.Set(ctx, "k", "v2", 0); err == nil {
		t.Fatalf("expected store error")
	}
	store.fail = false

	var v string
	if err := lc.Get(ctx, "k", &v); err != nil || v != "v1" {
		t.Fatalf("layers disagree: %q, %v", v, err)
	}
}

type failingStore struct {
	Service
	fail bool
}

func (s *failingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.fail {
		return errors.New("store down")
	}
	return s.Service.Set(ctx, key, value, ttl)
}
