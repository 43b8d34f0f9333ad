package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer queues messages on an inbox drained by one writer goroutine.
// Publish never waits on the broker; delivery errors are logged.
type Producer struct {
	w         *kafka.Writer
	inbox     chan kafka.Message
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func NewProducer(brokers []string, topic string, buf int, logger *zap.Logger) *Producer {
	p := &Producer{
		inbox:  make(chan kafka.Message, buf),
		done:   make(chan struct{}),
		logger: logger.With(zap.String("topic", topic)),
	}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				p.logger.Warn("kafka write failed", zap.Int("messages", len(msgs)), zap.Error(err))
			}
		},
	}
	return p
}

func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				p.logger.Warn("kafka enqueue failed", zap.ByteString("key", m.Key), zap.Error(err))
			}
		}
		if err := p.w.Close(); err != nil {
			p.logger.Warn("kafka writer close", zap.Error(err))
		}
	}()
}

// Publish queues a message, waiting for inbox room until ctx is done. It must
// not be called after Close.
func (p *Producer) Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	m := kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka inbox full: %w", ctx.Err())
	}
}

// Close flushes queued messages and waits for the writer to shut down.
func (p *Producer) Close() {
	p.closeOnce.Do(func() { close(p.inbox) })
	<-p.done
}
