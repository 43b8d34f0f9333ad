package orders

const (
	// published by checkout, consumed by cmd/notifier
	TopicOrderCreated = "order.created"
	// realtime envelopes when REALTIME_BACKEND=kafka, keyed by channel
	TopicRealtimeEvents = "realtime.events"
)
