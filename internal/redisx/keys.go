package redisx

import "time"

const (
	// Cached order row: order:{order_id} -> JSON orders.Order
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cart state: cart:{cart_id} -> JSON cart.Cart
	KeyCart = "cart:%s"
)

var (
	TTLOrderCache = 30 * time.Second
	TTLDedup      = 48 * time.Hour
	TTLCart       = 30 * 24 * time.Hour
)
