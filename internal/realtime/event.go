// Package realtime defines the organization-scoped event channels that
// dashboards and mobile clients subscribe to, and the transports behind them.
package realtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	EventOrderCreated   = "orders.new"
	EventOrderStatus    = "orders.status"
	EventOrderDelivered = "orders.delivered"
)

const channelPrefix = "org:"

// Channel returns the channel name for one organization.
func Channel(organizationID string) string { return channelPrefix + organizationID }

// Event is a transient envelope delivered to current subscribers of Channel.
type Event struct {
	Channel string `json:"channel"`
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   int64     `json:"orderNumber"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Total         int64     `json:"total"`
	ItemCount     int       `json:"itemCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderStatusPayload struct {
	OrderID        string `json:"orderId"`
	OrderNumber    int64  `json:"orderNumber"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
	ActorID        string `json:"actorId,omitempty"`
}

var ErrMalformedEvent = errors.New("malformed realtime event")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEvent, fmt.Sprintf(format, args...))
}

// Validate checks an event against the fixed schema of its name.
func Validate(e Event) error {
	if !strings.HasPrefix(e.Channel, channelPrefix) || len(e.Channel) == len(channelPrefix) {
		return malformed("channel %q", e.Channel)
	}

	switch e.Name {
	case EventOrderCreated:
		p, ok := e.Payload.(OrderCreatedPayload)
		if !ok {
			return malformed("%s payload has type %T", e.Name, e.Payload)
		}
		if p.OrderID == "" || p.OrderNumber <= 0 {
			return malformed("%s: missing order reference", e.Name)
		}
		if p.Total < 0 || p.ItemCount < 0 {
			return malformed("%s: negative total or item count", e.Name)
		}
		if p.CreatedAt.IsZero() {
			return malformed("%s: missing createdAt", e.Name)
		}
	case EventOrderStatus, EventOrderDelivered:
		p, ok := e.Payload.(OrderStatusPayload)
		if !ok {
			return malformed("%s payload has type %T", e.Name, e.Payload)
		}
		if p.OrderID == "" || p.OrderNumber <= 0 {
			return malformed("%s: missing order reference", e.Name)
		}
		if p.Status == "" || p.OrganizationID == "" || p.UserID == "" {
			return malformed("%s: status, organizationId and userId are required", e.Name)
		}
		if Channel(p.OrganizationID) != e.Channel {
			return malformed("%s: organization %s published on %s", e.Name, p.OrganizationID, e.Channel)
		}
		if e.Name == EventOrderDelivered && p.Status != "delivered" {
			return malformed("%s with status %s", e.Name, p.Status)
		}
	default:
		return malformed("unknown event %q", e.Name)
	}
	return nil
}
