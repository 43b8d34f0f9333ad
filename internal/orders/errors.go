package orders

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindPaymentRequired   Kind = "payment_required"
	KindAlreadyDelivered  Kind = "already_delivered"
	KindAlreadyCancelled  Kind = "already_cancelled"
	KindConflict          Kind = "conflict"
	KindTransient         Kind = "transient"
	KindUnexpected        Kind = "unexpected"
)

// Error is the tagged failure returned by the lifecycle service.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidTransition, KindPaymentRequired, KindAlreadyDelivered, KindAlreadyCancelled:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Store sentinels. Implementations of Store return these (optionally wrapped).
var (
	ErrNotFound       = errors.New("order not found")
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrTransient      = errors.New("order store unavailable")
)

// KindOf reports the failure kind of err, KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func errNotFound(id string) *Error {
	return newError(KindNotFound, fmt.Sprintf("order %s not found", id))
}

func errInvalidTransition(from, to Status) *Error {
	return newError(KindInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to))
}

func errTerminal(s Status) *Error {
	if s == StatusDelivered {
		return newError(KindAlreadyDelivered, "order has already been delivered")
	}
	return newError(KindAlreadyCancelled, "order has already been cancelled")
}

// ClassifyStoreError turns an error coming back from a Store into a tagged failure.
func ClassifyStoreError(id string, err error) *Error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errNotFound(id)
	case errors.Is(err, ErrStatusConflict):
		return &Error{Kind: KindConflict, Message: "order was updated by another request, reload and retry", Err: err}
	case errors.Is(err, ErrTransient):
		return &Error{Kind: KindTransient, Message: "order store unavailable", Err: err}
	default:
		return &Error{Kind: KindUnexpected, Message: "unexpected store failure", Err: err}
	}
}
