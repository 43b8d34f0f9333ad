package realtime

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is the subset of kafka.Producer the bus needs.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

// KafkaBus writes every event to one topic keyed by channel, so the hash
// balancer keeps each organization's events on one partition, in order.
// Push gateways consume the topic and forward to connected clients.
type KafkaBus struct {
	Producer Publisher
}

func (b *KafkaBus) Publish(ctx context.Context, e Event) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	return b.Producer.Publish(ctx, []byte(e.Channel), data,
		kafkago.Header{Key: "x-event-type", Value: []byte(e.Name)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
