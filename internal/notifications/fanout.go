package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
	"github.com/ariefcatur/go-realtime-storefront/internal/realtime"
)

// Fanout turns one order event into a durable notification row plus a
// realtime push on the organization channel. The row is the source of truth;
// the push is a low-latency hint. Both are always attempted.
type Fanout struct {
	store  Store
	bus    realtime.Bus
	logger *zap.Logger
	now    func() time.Time
}

func NewFanout(store Store, bus realtime.Bus, logger *zap.Logger) *Fanout {
	return &Fanout{store: store, bus: bus, logger: logger, now: time.Now}
}

// OrderCreated is called once per new order.
func (f *Fanout) OrderCreated(ctx context.Context, o orders.Order) error {
	n := Notification{
		ID:             uuid.NewString(),
		OrganizationID: o.OrganizationID,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Type:           TypeNew,
		Status:         string(o.Status),
		CreatedAt:      f.now().UTC(),
		CustomerName:   o.CustomerName,
		TotalCents:     o.TotalCents,
		ItemCount:      o.ItemCount,
	}
	ev := realtime.Event{
		Channel: realtime.Channel(o.OrganizationID),
		Name:    realtime.EventOrderCreated,
		Payload: realtime.OrderCreatedPayload{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			Total:         o.TotalCents,
			ItemCount:     o.ItemCount,
			CreatedAt:     o.CreatedAt,
		},
	}
	return f.emit(ctx, n, ev)
}

// StatusChanged is called after every committed transition.
func (f *Fanout) StatusChanged(ctx context.Context, o orders.Order, previous orders.Status, actor orders.Actor) error {
	n := Notification{
		ID:             uuid.NewString(),
		OrganizationID: o.OrganizationID,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Type:           TypeStatusUpdate,
		Status:         string(o.Status),
		CreatedAt:      f.now().UTC(),
		CustomerName:   o.CustomerName,
		TotalCents:     o.TotalCents,
		ItemCount:      o.ItemCount,
	}
	name := realtime.EventOrderStatus
	if o.Status == orders.StatusDelivered {
		name = realtime.EventOrderDelivered
	}
	ev := realtime.Event{
		Channel: realtime.Channel(o.OrganizationID),
		Name:    name,
		Payload: realtime.OrderStatusPayload{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			Status:         string(o.Status),
			PreviousStatus: string(previous),
			OrganizationID: o.OrganizationID,
			UserID:         o.UserID,
			ActorID:        actor.ID,
		},
	}
	return f.emit(ctx, n, ev)
}

func (f *Fanout) emit(ctx context.Context, n Notification, ev realtime.Event) error {
	var recordErr, publishErr error
	if err := f.store.Insert(ctx, n); err != nil {
		recordErr = fmt.Errorf("record %s notification: %w", n.Type, err)
	}
	if err := f.bus.Publish(ctx, ev); err != nil {
		publishErr = fmt.Errorf("publish %s on %s: %w", ev.Name, ev.Channel, err)
	}
	if recordErr == nil && publishErr == nil {
		f.logger.Debug("order fan-out",
			zap.String("order_id", n.OrderID),
			zap.String("event", ev.Name),
			zap.String("channel", ev.Channel))
	}
	return errors.Join(recordErr, publishErr)
}
