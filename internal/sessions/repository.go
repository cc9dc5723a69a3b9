package sessions

import (
	"context"
	"sync"
	"time"
)

// Repository provides refresh-session persistence operations
type Repository interface {
	Create(ctx context.Context, s *RefreshSession) error
	GetByToken(ctx context.Context, token string) (*RefreshSession, error)
	DeleteByToken(ctx context.Context, token string) error
}

// MemoryRepository keeps sessions in a mutex-guarded map. Default for
// the mock backend so the dev environment needs no external services.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*RefreshSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*RefreshSession)}
}

func (m *MemoryRepository) Create(_ context.Context, s *RefreshSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.Token] = &cp
	return nil
}

func (m *MemoryRepository) GetByToken(_ context.Context, token string) (*RefreshSession, error) {
	m.mu.RLock()
	s, ok := m.store[token]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.store, token)
		m.mu.Unlock()
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryRepository) DeleteByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, token)
	return nil
}
