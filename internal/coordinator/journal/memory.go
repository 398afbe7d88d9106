package journal

import (
	"context"
	"sync"
)

// Memory keeps entries in process. It backs tests and hosts started without
// a journal path.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]*Entry
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]*Entry)}
}

func (m *Memory) Save(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *entry
	cp.Errors = append([]string(nil), entry.Errors...)
	m.entries[entry.CheckoutID] = append(m.entries[entry.CheckoutID], &cp)
	return nil
}

func (m *Memory) GetLatest(ctx context.Context, checkoutID string) (*Entry, error) {
	entries, err := m.List(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	return entries[len(entries)-1], nil
}

func (m *Memory) List(_ context.Context, checkoutID string) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.entries[checkoutID]
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	out := make([]*Entry, len(entries))
	copy(out, entries)
	return out, nil
}
