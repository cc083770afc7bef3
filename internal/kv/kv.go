// Package kv defines the key-value capability the task store persists through.
package kv

import "sync"

// Keys in the persisted namespace.
const (
	KeyTodos        = "todos"
	KeyTodosCorrupt = "todos.corrupt"
	KeyDarkMode     = "darkMode"
)

// Store loads and saves string values by key. Load reports found=false for a
// key that was never saved.
type Store interface {
	Load(key string) (value string, found bool, err error)
	Save(key, value string) error
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Load(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}
