package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// AllStatuses is the closed enum in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusDelivered,
	StatusCancelled,
}

var validNext = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// NextStatuses returns the statuses reachable from s in one step, in display order.
func NextStatuses(s Status) []Status {
	next := validNext[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to Status) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Option is a reachable status as shown to dashboards. Blocked options are
// listed but rejected by the service until their precondition holds.
type Option struct {
	Status  Status `json:"status"`
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

const reasonUnpaid = "order has not been paid"

func Options(o Order) []Option {
	next := validNext[o.Status]
	out := make([]Option, 0, len(next))
	for _, s := range next {
		opt := Option{Status: s}
		if requiresPayment(s) && !o.Paid {
			opt.Blocked = true
			opt.Reason = reasonUnpaid
		}
		out = append(out, opt)
	}
	return out
}

// preparing is the only payment-gated target.
func requiresPayment(to Status) bool { return to == StatusPreparing }
