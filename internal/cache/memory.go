package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Message struct {
	Channel string
	Payload []byte
}

// MemoryStore is a process-local Store and Publisher. Published messages are
// kept in order so callers can inspect them.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	published []Message
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryStore) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.published = append(m.published, Message{Channel: channel, Payload: append([]byte(nil), payload...)})
	return nil
}

func (m *MemoryStore) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.published...)
}

type noop struct{}

// Noop never stores anything and drops every published message.
var Noop noop

func (noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noop) Del(context.Context, ...string) error                     { return nil }
func (noop) Publish(context.Context, string, []byte) error            { return nil }
