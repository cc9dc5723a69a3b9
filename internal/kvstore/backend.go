package kvstore

import (
	"context"
	"sync"
	"time"
)

// Keys shared by every backend holding the token pair. The same names
// are used in the persistent store and in the cookie jar so a write
// can be verified against either copy.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Backend is a single physical key/value store. A zero ttl on Write
// means the entry does not expire.
type Backend interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryBackend is a mutex-guarded in-memory backend used for tests
// and ephemeral CLI runs where nothing should outlive the process.
type MemoryBackend struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{store: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryBackend) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.store[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.store, key)
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryBackend) Write(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.store[key] = e
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}
