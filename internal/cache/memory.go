package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"authgate/internal/configuration"
	"authgate/internal/models"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

type verifierEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a process-local ISessionStore for single instance deployments.
type MemoryCache struct {
	mu        sync.Mutex
	sessions  map[string]models.Session
	verifiers map[string]verifierEntry
	limits    map[string]*rateWindow
	now       func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions:  make(map[string]models.Session),
		verifiers: make(map[string]verifierEntry),
		limits:    make(map[string]*rateWindow),
		now:       time.Now,
	}
}

func (m *MemoryCache) GetSession(_ context.Context, browserID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[browserID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (m *MemoryCache) SetSession(_ context.Context, browserID string, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[browserID] = *session
	return nil
}

func (m *MemoryCache) DeleteSession(_ context.Context, browserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, browserID)
	return nil
}

func (m *MemoryCache) SetVerifier(_ context.Context, browserID string, verifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verifiers[browserID] = verifierEntry{
		value:     verifier,
		expiresAt: m.now().Add(configuration.CacheVerifierTTL * time.Second),
	}
	return nil
}

func (m *MemoryCache) PopVerifier(_ context.Context, browserID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.verifiers[browserID]
	if !ok {
		return "", nil
	}
	delete(m.verifiers, browserID)
	if m.now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.value, nil
}

func (m *MemoryCache) GetRateLimit(_ context.Context, identifier string, requestsPerMinute int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	window, ok := m.limits[identifier]
	if !ok || !now.Before(window.resetAt) {
		window = &rateWindow{resetAt: now.Add(time.Minute)}
		m.limits[identifier] = window
	}
	window.count++

	if window.count > requestsPerMinute {
		return int(math.Ceil(window.resetAt.Sub(now).Seconds())), nil
	}
	return 0, nil
}

func (m *MemoryCache) Close() error {
	return nil
}
