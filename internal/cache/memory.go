package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type item struct {
	value      []byte
	expiration int64
}

// Memory es un caché TTL en proceso. Una goroutine elimina las entradas
// vencidas hasta que se llama a Close.
type Memory struct {
	items       map[string]item
	generations map[string]int64
	mu          sync.RWMutex
	ttl         time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemory(defaultTTL time.Duration) *Memory {
	return newMemory(defaultTTL, 5*time.Minute)
}

func newMemory(defaultTTL, cleanupEvery time.Duration) *Memory {
	m := &Memory{
		items:       make(map[string]item),
		generations: make(map[string]int64),
		ttl:         defaultTTL,
		stop:        make(chan struct{}),
	}
	go m.cleanupExpired(cleanupEvery)
	return m
}

func (m *Memory) Version(_ context.Context, namespace string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generations[namespace], nil
}

func (m *Memory) GetJSON(_ context.Context, namespace string, version int64, key string, target interface{}) (bool, error) {
	data, found := m.get(dataKey(namespace, version, key))
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON no escribe nada si el namespace fue invalidado después de leer version.
func (m *Memory) SetJSON(_ context.Context, namespace string, version int64, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[namespace] != version {
		return nil
	}
	m.items[dataKey(namespace, version, key)] = item{
		value:      data,
		expiration: time.Now().Add(ttl).UnixNano(),
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generations[namespace]++
	prefix := namespace + ":"
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

// Len devuelve la cantidad de entradas guardadas, vencidas o no.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, found := m.items[key]
	if !found || time.Now().UnixNano() > it.expiration {
		return nil, false
	}
	return it.value, true
}

func (m *Memory) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *Memory) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UnixNano()
	for key, it := range m.items {
		if now > it.expiration {
			delete(m.items, key)
		}
	}
}
