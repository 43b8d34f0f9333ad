// Package cart holds shopping-cart state behind an injected key-value port,
// so the same container works over Redis in the API and a map in tests.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-realtime-storefront/internal/redisx"
)

// KV is the persistence port. Get returns nil, nil when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Item struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Cart) Total() int64 {
	var t int64
	for _, it := range c.Items {
		t += it.PriceCents * int64(it.Qty)
	}
	return t
}

func (c Cart) find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

var (
	ErrInvalidItem  = errors.New("cart: invalid item")
	ErrItemNotFound = errors.New("cart: item not in cart")
)

// Container serializes mutations per process; carts are single-owner so
// cross-node races only occur when one customer edits from two devices.
type Container struct {
	kv  KV
	mu  sync.Mutex
	now func() time.Time
}

func NewContainer(kv KV) *Container {
	return &Container{kv: kv, now: time.Now}
}

func (c *Container) Get(ctx context.Context, id string) (Cart, error) {
	b, err := c.kv.Get(ctx, key(id))
	if err != nil {
		return Cart{}, fmt.Errorf("load cart %s: %w", id, err)
	}
	if b == nil {
		return Cart{ID: id, Items: []Item{}}, nil
	}
	var ct Cart
	if err := json.Unmarshal(b, &ct); err != nil {
		return Cart{}, fmt.Errorf("decode cart %s: %w", id, err)
	}
	return ct, nil
}

// Add puts an item in the cart, summing quantities for a product already present.
func (c *Container) Add(ctx context.Context, id string, it Item) (Cart, error) {
	if it.ProductID == "" || it.Qty <= 0 || it.PriceCents < 0 {
		return Cart{}, ErrInvalidItem
	}
	return c.mutate(ctx, id, func(ct *Cart) error {
		if i := ct.find(it.ProductID); i >= 0 {
			ct.Items[i].Qty += it.Qty
			ct.Items[i].PriceCents = it.PriceCents
			if it.Name != "" {
				ct.Items[i].Name = it.Name
			}
			return nil
		}
		ct.Items = append(ct.Items, it)
		return nil
	})
}

// Update sets the quantity of a product; zero or less removes it.
func (c *Container) Update(ctx context.Context, id, productID string, qty int) (Cart, error) {
	return c.mutate(ctx, id, func(ct *Cart) error {
		i := ct.find(productID)
		if i < 0 {
			return ErrItemNotFound
		}
		if qty <= 0 {
			ct.Items = append(ct.Items[:i], ct.Items[i+1:]...)
			return nil
		}
		ct.Items[i].Qty = qty
		return nil
	})
}

func (c *Container) Remove(ctx context.Context, id, productID string) (Cart, error) {
	return c.Update(ctx, id, productID, 0)
}

func (c *Container) Clear(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Delete(ctx, key(id))
}

func (c *Container) Total(ctx context.Context, id string) (int64, error) {
	ct, err := c.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return ct.Total(), nil
}

func (c *Container) mutate(ctx context.Context, id string, fn func(*Cart) error) (Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ct, err := c.Get(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	if err := fn(&ct); err != nil {
		return Cart{}, err
	}
	ct.UpdatedAt = c.now().UTC()
	b, err := json.Marshal(ct)
	if err != nil {
		return Cart{}, err
	}
	if err := c.kv.Set(ctx, key(id), b); err != nil {
		return Cart{}, fmt.Errorf("save cart %s: %w", id, err)
	}
	return ct, nil
}

func key(id string) string { return fmt.Sprintf(redisx.KeyCart, id) }
