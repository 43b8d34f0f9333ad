package orders

import "time"

type Order struct {
	ID             string    `json:"id"`
	OrderNumber    int64     `json:"order_number"`
	Status         Status    `json:"status"`
	Paid           bool      `json:"paid"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	TotalCents     int64     `json:"total_cents"`
	ItemCount      int       `json:"item_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Actor is the authenticated identity behind a request, customer or staff.
type Actor struct {
	ID string `json:"id"`
}

// Result is what every lifecycle operation returns on success.
type Result struct {
	Order          Order  `json:"order"`
	PreviousStatus Status `json:"previous_status"`
}
