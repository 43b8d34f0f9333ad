package notifications

import (
	"context"
	"errors"
	"time"
)

type Type string

const (
	TypeNew          Type = "new"
	TypeStatusUpdate Type = "status_update"
)

// Notification is the durable in-app record behind the dashboard badge.
// Read starts false and only ever flips to true.
type Notification struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	OrderID        string    `json:"order_id"`
	OrderNumber    int64     `json:"order_number"`
	Type           Type      `json:"type"`
	Status         string    `json:"status,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
	CustomerName   string    `json:"customer_name,omitempty"`
	TotalCents     int64     `json:"total_cents,omitempty"`
	ItemCount      int       `json:"item_count,omitempty"`
}

var ErrNotFound = errors.New("notification not found")

type Store interface {
	Insert(ctx context.Context, n Notification) error
	List(ctx context.Context, organizationID string, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, organizationID string) (int, error)
	Get(ctx context.Context, id string) (Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, organizationID string) (int, error)
}
