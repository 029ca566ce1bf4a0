package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service is a keyed blob store. Values are JSON encoded unless they are
// already a string or []byte, which are stored raw.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// FreshReader is implemented by stores that may answer Get from a local copy
// and can bypass it.
type FreshReader interface {
	GetFresh(ctx context.Context, key string, dest interface{}) error
}

// GetFresh reads key past any local copy when c supports it.
func GetFresh(ctx context.Context, c Service, key string, dest interface{}) error {
	if fr, ok := c.(FreshReader); ok {
		return fr.GetFresh(ctx, key, dest)
	}
	return c.Get(ctx, key, dest)
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: encode: %w", err)
		}
		return data, nil
	}
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	default:
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("cache: decode: %w", err)
		}
		return nil
	}
}
