// Package authtest provides an in-memory auth.Storage for tests.
package authtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/coursetutor/backend/internal/auth"
)

// MemoryStorage implements auth.Storage in memory.
type MemoryStorage struct {
	mu     sync.Mutex
	tokens map[string]auth.TokenInfo
	seq    int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tokens: make(map[string]auth.TokenInfo)}
}

func (m *MemoryStorage) Create(ctx context.Context, info auth.TokenInfo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	token := fmt.Sprintf("test-token-%d-%s", m.seq, info.UserID)
	m.tokens[token] = info
	return token, nil
}

func (m *MemoryStorage) Get(ctx context.Context, token string) (auth.TokenInfo, error) {
	return m.Peek(ctx, token)
}

func (m *MemoryStorage) Peek(ctx context.Context, token string) (auth.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.tokens[token]
	if !ok {
		return auth.TokenInfo{}, auth.ErrNotFound
	}
	return info, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[token]; !ok {
		return auth.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *MemoryStorage) DeleteByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, info := range m.tokens {
		if info.UserID == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

// Len returns the number of live tokens.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tokens)
}

var _ auth.Storage = (*MemoryStorage)(nil)
