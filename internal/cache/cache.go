package cache

import (
	"context"
	"fmt"
	"time"
)

// Store guarda valores JSON agrupados por namespace. Cada namespace tiene una
// generación: Invalidate la incrementa y SetJSON descarta escrituras hechas
// con una generación anterior, así una consulta lenta no repone datos viejos.
type Store interface {
	Version(ctx context.Context, namespace string) (int64, error)
	GetJSON(ctx context.Context, namespace string, version int64, key string, target interface{}) (bool, error)
	SetJSON(ctx context.Context, namespace string, version int64, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, namespace string) error
	Close() error
}

// Noop no guarda nada. Se usa con CACHE_BACKEND=none.
type Noop struct{}

func (Noop) Version(context.Context, string) (int64, error) { return 0, nil }

func (Noop) GetJSON(context.Context, string, int64, string, interface{}) (bool, error) {
	return false, nil
}

func (Noop) SetJSON(context.Context, string, int64, string, interface{}, time.Duration) error {
	return nil
}

func (Noop) Invalidate(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }

func dataKey(namespace string, version int64, key string) string {
	return fmt.Sprintf("%s:v%d:%s", namespace, version, key)
}
