// Package seed loads a JSON fixture into the in-memory backends so the API
// is usable with STORE_BACKEND=memory.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ariefcatur/go-realtime-storefront/internal/authz"
	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
)

type Fixture struct {
	// Members maps an organization id to its staff user ids.
	Members map[string][]string `json:"members"`
	Orders  []orders.Order      `json:"orders"`
}

func Load(path string) (Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(b, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return f, nil
}

// Apply validates every order before writing anything. Missing status
// defaults to pending and missing timestamps to now.
func Apply(f Fixture, store *orders.MemoryStore, members *authz.StaticMembership, now time.Time) error {
	prepared := make([]orders.Order, 0, len(f.Orders))
	for i, o := range f.Orders {
		if o.ID == "" || o.OrganizationID == "" || o.UserID == "" {
			return fmt.Errorf("seed order #%d: id, organization_id and user_id are required", i)
		}
		if o.Status == "" {
			o.Status = orders.StatusPending
		}
		if !o.Status.Valid() {
			return fmt.Errorf("seed order %s: unknown status %q", o.ID, o.Status)
		}
		if o.OrderNumber == 0 {
			o.OrderNumber = int64(i + 1)
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now.UTC()
		}
		if o.UpdatedAt.IsZero() {
			o.UpdatedAt = o.CreatedAt
		}
		prepared = append(prepared, o)
	}

	for org, users := range f.Members {
		members.Add(org, users...)
	}
	for _, o := range prepared {
		store.Put(o)
	}
	return nil
}
