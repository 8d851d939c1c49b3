package store

import (
	"context"
	"sync"

	"github.com/flowbreak/focusagent/internal/focus"
)

// Memory is a map guarded by a read/write mutex. Values are
// cloned on the way in and out.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]focus.SessionContext
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]focus.SessionContext)}
}

func (m *Memory) Put(_ context.Context, sc focus.SessionContext) error {
	c := sc.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sc.SessionID] = c
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (focus.SessionContext, error) {
	m.mu.RLock()
	sc, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return focus.SessionContext{}, ErrNotFound
	}
	return sc.Clone(), nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

func (m *Memory) Close() error { return nil }
