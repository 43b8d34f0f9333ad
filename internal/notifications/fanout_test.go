package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
	"github.com/ariefcatur/go-realtime-storefront/internal/realtime"
)

type recordingBus struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (b *recordingBus) Publish(_ context.Context, e realtime.Event) error {
	if err := realtime.Validate(e); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, e)
	return nil
}

type failingStore struct {
	*MemoryStore
	err error
}

func (s failingStore) Insert(context.Context, Notification) error { return s.err }

func sampleOrder(s orders.Status) orders.Order {
	return orders.Order{
		ID:             "ord-9",
		OrderNumber:    9,
		Status:         s,
		OrganizationID: "org-1",
		UserID:         "cust-1",
		CustomerName:   "Raka",
		CustomerEmail:  "raka@example.com",
		TotalCents:     4200,
		ItemCount:      2,
		CreatedAt:      time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestOrderCreatedWritesRowAndPublishes(t *testing.T) {
	store := NewMemoryStore()
	bus := &recordingBus{}
	f := NewFanout(store, bus, zap.NewNop())

	require.NoError(t, f.OrderCreated(context.Background(), sampleOrder(orders.StatusPending)))

	rows, err := store.List(context.Background(), "org-1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeNew, rows[0].Type)
	assert.Equal(t, "Raka", rows[0].CustomerName)
	assert.Equal(t, int64(4200), rows[0].TotalCents)
	assert.NotEmpty(t, rows[0].ID)

	require.Len(t, bus.events, 1)
	ev := bus.events[0]
	assert.Equal(t, "org:org-1", ev.Channel)
	assert.Equal(t, realtime.EventOrderCreated, ev.Name)
	p := ev.Payload.(realtime.OrderCreatedPayload)
	assert.Equal(t, "raka@example.com", p.CustomerEmail)
	assert.Equal(t, 2, p.ItemCount)
}

func TestStatusChangedEventName(t *testing.T) {
	tests := []struct {
		status orders.Status
		want   string
	}{
		{orders.StatusConfirmed, realtime.EventOrderStatus},
		{orders.StatusCancelled, realtime.EventOrderStatus},
		{orders.StatusDelivered, realtime.EventOrderDelivered},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			bus := &recordingBus{}
			f := NewFanout(NewMemoryStore(), bus, zap.NewNop())

			err := f.StatusChanged(context.Background(), sampleOrder(tt.status), orders.StatusReady, orders.Actor{ID: "cust-1"})
			require.NoError(t, err)
			require.Len(t, bus.events, 1)
			assert.Equal(t, tt.want, bus.events[0].Name)
			p := bus.events[0].Payload.(realtime.OrderStatusPayload)
			assert.Equal(t, string(tt.status), p.Status)
			assert.Equal(t, "ready", p.PreviousStatus)
			assert.Equal(t, "cust-1", p.UserID)
		})
	}
}

func TestPublishFailureStillRecordsRow(t *testing.T) {
	store := NewMemoryStore()
	bus := &recordingBus{err: errors.New("redis gone")}
	f := NewFanout(store, bus, zap.NewNop())

	err := f.StatusChanged(context.Background(), sampleOrder(orders.StatusConfirmed), orders.StatusPending, orders.Actor{ID: "staff-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, bus.err)

	n, err := store.UnreadCount(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordFailureStillPublishes(t *testing.T) {
	insertErr := errors.New("insert failed")
	bus := &recordingBus{}
	f := NewFanout(failingStore{MemoryStore: NewMemoryStore(), err: insertErr}, bus, zap.NewNop())

	err := f.StatusChanged(context.Background(), sampleOrder(orders.StatusConfirmed), orders.StatusPending, orders.Actor{ID: "staff-1"})
	assert.ErrorIs(t, err, insertErr)
	assert.Len(t, bus.events, 1)
}

func TestBothHalvesFailing(t *testing.T) {
	insertErr := errors.New("insert failed")
	bus := &recordingBus{err: errors.New("publish failed")}
	f := NewFanout(failingStore{MemoryStore: NewMemoryStore(), err: insertErr}, bus, zap.NewNop())

	err := f.OrderCreated(context.Background(), sampleOrder(orders.StatusPending))
	assert.ErrorIs(t, err, insertErr)
	assert.ErrorIs(t, err, bus.err)
}

func TestMalformedEventFailsFast(t *testing.T) {
	store := NewMemoryStore()
	bus := &recordingBus{}
	f := NewFanout(store, bus, zap.NewNop())

	o := sampleOrder(orders.StatusConfirmed)
	o.UserID = ""
	err := f.StatusChanged(context.Background(), o, orders.StatusPending, orders.Actor{ID: "staff-1"})
	assert.ErrorIs(t, err, realtime.ErrMalformedEvent)
	assert.Empty(t, bus.events)
}
