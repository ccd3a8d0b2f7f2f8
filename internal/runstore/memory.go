package runstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acme/bulk-caller/internal/domain"
)

type memoryEntry struct {
	run       *domain.Run
	expiresAt time.Time
}

// Memory is a process-local Store.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.RWMutex
	runs map[uuid.UUID]memoryEntry
}

// NewMemory creates an in-memory store whose entries live for ttl after their
// last save.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Memory{ttl: ttl, now: time.Now, runs: make(map[uuid.UUID]memoryEntry)}
}

// Save stores a copy of run.
func (m *Memory) Save(_ context.Context, run *domain.Run) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, entry := range m.runs {
		if now.After(entry.expiresAt) {
			delete(m.runs, id)
		}
	}
	m.runs[run.ID] = memoryEntry{run: run.Clone(), expiresAt: now.Add(m.ttl)}
	return nil
}

// Get returns a copy of the stored run.
func (m *Memory) Get(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	m.mu.RLock()
	entry, ok := m.runs[id]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.run.Clone(), nil
}

// Len reports how many runs are held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}
