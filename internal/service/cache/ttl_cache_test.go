package cache

import (
	"testing"
	"time"

	"IntelliMarket/internal/domain/models"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache[string]()
	c.now = func() time.Time { return now }

	c.Set("a", "1", time.Minute)
	c.Set("b", "2", 0)

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if v, ok := c.Get("b"); !ok || v != "2" {
		t.Fatalf("zero ttl must not expire")
	}
	if c.Len() != 1 {
		t.Fatalf("expired entry should be evicted on read, len=%d", c.Len())
	}

	c.Delete("b")
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestValidationCacheReturnsCopies(t *testing.T) {
	c := NewValidationCache(time.Minute)
	c.Put("AAPL", &models.SymbolValidation{Valid: true, Symbol: "AAPL", Name: "Apple Inc."})
	c.Put("NIL", nil)

	v, ok := c.Get("AAPL")
	if !ok || v.Name != "Apple Inc." {
		t.Fatalf("unexpected cached value %+v", v)
	}
	v.Name = "changed"
	again, _ := c.Get("AAPL")
	if again.Name != "Apple Inc." {
		t.Fatalf("cached value was mutated through a returned pointer")
	}
	if _, ok := c.Get("NIL"); ok {
		t.Fatalf("nil answers must not be cached")
	}
}
