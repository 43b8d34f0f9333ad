package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-realtime-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// CachedStore puts a short-lived Redis copy of each order in front of a
// Store. FindByID may return a copy that predates a change made outside this
// service, such as the payment flag, so it only serves display reads. The
// lifecycle service must be given Fresh().
type CachedStore struct {
	Store
	Redis *redis.Client
}

func (c *CachedStore) FindByID(ctx context.Context, id string) (Order, error) {
	if b, err := c.Redis.Get(ctx, c.key(id)).Bytes(); err == nil {
		var o Order
		if json.Unmarshal(b, &o) == nil {
			return o, nil
		}
	}
	return c.load(ctx, id)
}

func (c *CachedStore) UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error) {
	o, err := c.Store.UpdateStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
			_ = c.Redis.Del(ctx, c.key(id)).Err()
		}
		return Order{}, err
	}
	c.put(ctx, o)
	return o, nil
}

// Fresh returns a Store that always reads the inner store and refreshes the
// cached copy on every read and write.
func (c *CachedStore) Fresh() Store { return freshStore{c: c} }

type freshStore struct{ c *CachedStore }

func (f freshStore) FindByID(ctx context.Context, id string) (Order, error) {
	return f.c.load(ctx, id)
}

func (f freshStore) UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error) {
	return f.c.UpdateStatus(ctx, id, from, to)
}

func (c *CachedStore) load(ctx context.Context, id string) (Order, error) {
	o, err := c.Store.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	c.put(ctx, o)
	return o, nil
}

func (c *CachedStore) put(ctx context.Context, o Order) {
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	_ = c.Redis.Set(ctx, c.key(o.ID), b, redisx.TTLOrderCache).Err()
}

func (c *CachedStore) key(id string) string { return fmt.Sprintf(redisx.KeyOrder, id) }
