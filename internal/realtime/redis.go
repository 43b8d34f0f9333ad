package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisBus maps channels one-to-one onto Redis pub/sub channels.
type RedisBus struct {
	Redis *redis.Client
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	return b.Redis.Publish(ctx, e.Channel, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	ps := b.Redis.Subscribe(ctx, channel)
	// wait for the subscription confirmation so no publish is missed after return
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Message, 64)
	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Message{Channel: m.Channel, Data: []byte(m.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
