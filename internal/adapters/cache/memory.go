// Package cache holds in-process caches for generated answers.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	defaultTTL        = 10 * time.Minute
	defaultMaxEntries = 1000
)

type entry struct {
	key     string
	value   string
	expires time.Time
}

// Memory is a size-bounded cache whose entries expire after a fixed TTL.
// The least recently used entry is evicted when the bound is reached.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	items      map[string]*list.Element
	lru        *list.List
	now        func() time.Time
}

// Option applies a configuration option to Memory.
type Option func(*Memory)

// WithTTL sets how long an entry stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithMaxEntries bounds the number of entries.
func WithMaxEntries(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		ttl:        defaultTTL,
		maxEntries: defaultMaxEntries,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value for key if present and not expired.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return "", false, nil
	}
	e := el.Value.(*entry)
	if !m.now().Before(e.expires) {
		m.remove(el)
		return "", false, nil
	}
	m.lru.MoveToFront(el)
	return e.value, true, nil
}

// Set stores value under key, replacing any previous value.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expires := m.now().Add(m.ttl)
	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry)
		e.value, e.expires = value, expires
		m.lru.MoveToFront(el)
		return nil
	}
	for m.lru.Len() >= m.maxEntries {
		m.remove(m.lru.Back())
	}
	m.items[key] = m.lru.PushFront(&entry{key: key, value: value, expires: expires})
	return nil
}

// Len returns the number of entries, expired ones included until touched.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.lru.Init()
}

func (m *Memory) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*entry).key)
}
