package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with the same compare-and-set
// semantics as Repo. It backs tests and the API's dev mode.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]Order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: map[string]Order{}, now: time.Now}
}

// Put inserts or replaces an order as-is.
func (m *MemoryStore) Put(o Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, from, to Status) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Status != from {
		return Order{}, ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = m.now().UTC()
	m.orders[id] = o
	return o, nil
}

func (m *MemoryStore) ListByOrganization(_ context.Context, orgID string, limit int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.OrganizationID == orgID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
