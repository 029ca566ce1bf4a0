package cache

import (
	"time"

	"IntelliMarket/internal/domain/models"
)

// ValidationCache remembers symbol lookups so repeated typing of the same
// ticker does not hit the backend.
type ValidationCache struct {
	ttl   time.Duration
	cache *TTLCache[models.SymbolValidation]
}

func NewValidationCache(ttl time.Duration) *ValidationCache {
	return &ValidationCache{ttl: ttl, cache: NewTTLCache[models.SymbolValidation]()}
}

// Get returns a copy of the cached answer for symbol.
func (c *ValidationCache) Get(symbol string) (*models.SymbolValidation, bool) {
	v, ok := c.cache.Get(symbol)
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *ValidationCache) Put(symbol string, v *models.SymbolValidation) {
	if v == nil {
		return
	}
	c.cache.Set(symbol, *v, c.ttl)
}
