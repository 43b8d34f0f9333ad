package notifications

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps notifications in process, for tests and dev mode.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]Notification{}}
}

func (m *MemoryStore) Insert(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[n.ID] = n
	return nil
}

func (m *MemoryStore) List(_ context.Context, organizationID string, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Notification{}
	for _, n := range m.rows {
		if n.OrganizationID == organizationID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UnreadCount(_ context.Context, organizationID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := 0
	for _, n := range m.rows {
		if n.OrganizationID == organizationID && !n.Read {
			c++
		}
	}
	return c, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	m.rows[id] = n
	return nil
}

func (m *MemoryStore) MarkAllRead(_ context.Context, organizationID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := 0
	for id, n := range m.rows {
		if n.OrganizationID == organizationID && !n.Read {
			n.Read = true
			m.rows[id] = n
			c++
		}
	}
	return c, nil
}
