package orders

import (
	"encoding/json"
	"time"
)

// Event types carried on Kafka topics between services.
const (
	EventOrderCreated = "OrderCreated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// OrderCreatedPayload is published by checkout once the order row exists.
type OrderCreatedPayload struct {
	OrderID        string `json:"order_id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
}
