package cache

import (
	"context"
	"sync"
	"time"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

type ttlEntry[V any] struct {
	value     V
	createdAt time.Time
}

// TTL is an in-memory map whose entries expire a fixed time after they are
// stored. Staleness is checked on read. Safe for concurrent use.
type TTL[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]ttlEntry[V]

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewTTL returns an empty TTL map.
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{ttl: ttl, entries: make(map[string]ttlEntry[V]), Now: time.Now}
}

// Get returns the value for key if it is still fresh.
func (t *TTL[V]) Get(key string) (V, time.Time, bool) {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok || t.Now().Sub(e.createdAt) >= t.ttl {
		var zero V
		return zero, time.Time{}, false
	}
	return e.value, e.createdAt, true
}

// Put stores v under key, replacing any previous value.
func (t *TTL[V]) Put(key string, v V) {
	t.PutAt(key, v, t.Now())
}

// PutAt stores v as if it had been stored at createdAt.
func (t *TTL[V]) PutAt(key string, v V, createdAt time.Time) {
	t.mu.Lock()
	t.entries[key] = ttlEntry[V]{value: v, createdAt: createdAt}
	t.mu.Unlock()
}

func (t *TTL[V]) Delete(key string) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

func (t *TTL[V]) Clear() {
	t.mu.Lock()
	t.entries = make(map[string]ttlEntry[V])
	t.mu.Unlock()
}

// Prune drops expired entries and returns how many were removed.
func (t *TTL[V]) Prune() int {
	now := t.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, e := range t.entries {
		if now.Sub(e.createdAt) >= t.ttl {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

func (t *TTL[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Memory is a process-local Store.
type Memory struct {
	m *TTL[*dining.ResultSet]
}

// NewMemory returns a Memory store whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{m: NewTTL[*dining.ResultSet](ttl)}
}

// SetClock replaces the clock used for staleness checks.
func (m *Memory) SetClock(now func() time.Time) {
	m.m.Now = now
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	rs, created, ok := m.m.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Result: rs, CreatedAt: created}, true, nil
}

func (m *Memory) Put(_ context.Context, key string, rs *dining.ResultSet) error {
	m.m.Put(key, rs)
	return nil
}

func (m *Memory) put(key string, e Entry) {
	m.m.PutAt(key, e.Result, e.CreatedAt)
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.m.Delete(key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.m.Clear()
	return nil
}

// Len counts entries, fresh or not.
func (m *Memory) Len() int {
	return m.m.Len()
}
