package settings

import (
	"context"
	"errors"
	"sync"
)

// Memory is an in-process Backend, used where no database is configured and
// by tests.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	// FailWrites makes every Put fail, simulating a full or read-only store.
	FailWrites bool
}

func NewMemory(seed map[string]string) *Memory {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Memory{values: values}
}

func (m *Memory) All(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Put(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("quota exceeded")
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Rename(ctx context.Context, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	legacy, ok := m.values[from]
	if !ok {
		return false, nil
	}
	delete(m.values, from)
	if _, exists := m.values[to]; exists {
		return false, nil
	}
	m.values[to] = legacy
	return true, nil
}

// Value returns the raw stored value for key.
func (m *Memory) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}
