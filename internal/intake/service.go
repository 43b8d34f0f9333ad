// Package intake reacts to checkout's order-created events with the
// new-order fan-out.
package intake

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-realtime-storefront/internal/kafka"
	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
)

type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type Notifier interface {
	OrderCreated(ctx context.Context, o orders.Order) error
}

type Service struct {
	Orders   orders.Store
	Notifier Notifier
	Dedup    Deduper
	Logger   *zap.Logger
}

// HandleOrderCreated is installed as the consumer handler. Returning an
// error makes the consumer retry the message.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, retrying will not help
		s.Logger.Error("drop undecodable envelope", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	won, err := s.Dedup.Claim(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup claim %s: %w", env.EventID, err)
	}
	if !won {
		return nil
	}

	if err := s.process(ctx, env); err != nil {
		if rerr := s.Dedup.Release(ctx, env.EventID); rerr != nil {
			s.Logger.Warn("dedup release failed", zap.String("event_id", env.EventID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

func (s *Service) process(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		s.Logger.Error("drop malformed order-created payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	o, err := s.Orders.FindByID(ctx, p.OrderID)
	if err != nil {
		// the row may not be visible yet on a replica; the consumer retries
		// this message before it moves on in the partition
		return fmt.Errorf("load order %s: %w", p.OrderID, err)
	}

	// Fan-out failures are advisory: the durable row or the push may be
	// missing, and a retry would duplicate whichever half succeeded.
	if err := s.Notifier.OrderCreated(ctx, o); err != nil {
		s.Logger.Warn("new-order fan-out incomplete",
			zap.String("order_id", o.ID),
			zap.String("organization_id", o.OrganizationID),
			zap.Error(err))
	}
	return nil
}
