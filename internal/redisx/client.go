package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Dedup remembers processed ids for TTL.
type Dedup struct {
	Client  *redis.Client
	Service string
	TTL     time.Duration
}

// Claim marks id as taken and reports whether this caller won it.
func (d *Dedup) Claim(ctx context.Context, id string) (bool, error) {
	return d.Client.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", d.TTL).Result()
}

// Release gives a claim back so a redelivery can process id again.
func (d *Dedup) Release(ctx context.Context, id string) error {
	return d.Client.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}

// KV adapts a Redis client to a plain key-value port with a fixed TTL.
type KV struct {
	Client *redis.Client
	TTL    time.Duration
}

// Get returns nil, nil for a missing key.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := k.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	return k.Client.Set(ctx, key, value, k.TTL).Err()
}

func (k *KV) Delete(ctx context.Context, key string) error {
	return k.Client.Del(ctx, key).Err()
}
