package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Bus publishes events to a channel. Publish validates first and returns
// ErrMalformedEvent without sending anything when the payload is off-schema.
// Delivery is fire-and-forget once the transport accepts the message.
type Bus interface {
	Publish(ctx context.Context, e Event) error
}

// Message is one encoded event as received by a subscriber.
type Message struct {
	Channel string
	Data    []byte
}

// Subscriber streams messages for one channel until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan Message, error)
}

func encode(e Event) ([]byte, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// LocalBus is an in-process Bus and Subscriber for single-node and dev runs.
// Slow subscribers lose messages instead of blocking publishers; every drop
// is logged and counted.
type LocalBus struct {
	mu      sync.RWMutex
	subs    map[string]map[chan Message]struct{}
	buf     int
	dropped atomic.Uint64
	logger  *zap.Logger
}

func NewLocalBus(buf int, logger *zap.Logger) *LocalBus {
	if buf <= 0 {
		buf = 64
	}
	return &LocalBus{subs: map[string]map[chan Message]struct{}{}, buf: buf, logger: logger}
}

// Dropped is the number of deliveries skipped because a subscriber was full.
func (b *LocalBus) Dropped() uint64 { return b.dropped.Load() }

func (b *LocalBus) Publish(_ context.Context, e Event) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[e.Channel] {
		select {
		case ch <- Message{Channel: e.Channel, Data: data}:
		default:
			n := b.dropped.Add(1)
			b.logger.Warn("realtime event dropped for slow subscriber",
				zap.String("channel", e.Channel),
				zap.String("event", e.Name),
				zap.Uint64("dropped_total", n))
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	ch := make(chan Message, b.buf)
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = map[chan Message]struct{}{}
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[channel], ch)
		if len(b.subs[channel]) == 0 {
			delete(b.subs, channel)
		}
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
