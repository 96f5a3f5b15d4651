package session

import "sync"

// Manager owns the current session identity for the lifetime of the process.
type Manager struct {
	mu      sync.Mutex
	current ID
}

// NewManager creates a manager starting at seed, or at DefaultID when seed
// is empty.
func NewManager(seed ID) *Manager {
	if seed == "" {
		seed = DefaultID
	}
	return &Manager{current: seed}
}

func (m *Manager) Current() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves to the next candidate identity and returns it.
func (m *Manager) Advance() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Next()
	return m.current
}
