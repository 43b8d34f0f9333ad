package orders

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Store is the durable order record. UpdateStatus is a compare-and-set: it
// must only write when the persisted status still equals from, and return
// ErrStatusConflict otherwise.
type Store interface {
	FindByID(ctx context.Context, id string) (Order, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error)
}

type Action string

const (
	ActionUpdateStatus    Action = "order:update_status"
	ActionConfirmDelivery Action = "order:confirm_delivery"
	ActionCancel          Action = "order:cancel"
)

// Authorizer answers capability questions for an actor against one order.
type Authorizer interface {
	Can(ctx context.Context, actor Actor, order Order, action Action) (bool, error)
}

// Notifier fans a committed status change out to dashboards.
type Notifier interface {
	StatusChanged(ctx context.Context, order Order, previous Status, actor Actor) error
}

type Service struct {
	store    Store
	authz    Authorizer
	notifier Notifier
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewService(store Store, authz Authorizer, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		authz:    authz,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer("github.com/ariefcatur/go-realtime-storefront/internal/orders"),
	}
}

// decideFunc picks the target status for a loaded order or rejects the request.
type decideFunc func(o Order) (Status, *Error)

var forbiddenMessages = map[Action]string{
	ActionUpdateStatus:    "you are not a member of this store",
	ActionConfirmDelivery: "only the customer can mark this as delivered",
	ActionCancel:          "you cannot cancel this order",
}

// UpdateStatus moves an order along the transition graph on behalf of store staff.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, requested Status, actor Actor) (Result, error) {
	return s.run(ctx, "UpdateStatus", orderID, actor, ActionUpdateStatus, func(o Order) (Status, *Error) {
		if o.Status.Terminal() {
			return "", errTerminal(o.Status)
		}
		if !requested.Valid() || !CanTransition(o.Status, requested) {
			return "", errInvalidTransition(o.Status, requested)
		}
		if requiresPayment(requested) && !o.Paid {
			return "", newError(KindPaymentRequired, "order must be paid before it can be prepared")
		}
		return requested, nil
	})
}

// MarkDelivered lets the customer who placed the order confirm receipt.
func (s *Service) MarkDelivered(ctx context.Context, orderID string, actor Actor) (Result, error) {
	return s.run(ctx, "MarkDelivered", orderID, actor, ActionConfirmDelivery, func(o Order) (Status, *Error) {
		if o.Status.Terminal() {
			return "", errTerminal(o.Status)
		}
		return StatusDelivered, nil
	})
}

// CancelOrder cancels a non-terminal order for its customer or store staff.
func (s *Service) CancelOrder(ctx context.Context, orderID string, actor Actor) (Result, error) {
	return s.run(ctx, "CancelOrder", orderID, actor, ActionCancel, func(o Order) (Status, *Error) {
		if o.Status.Terminal() {
			return "", errTerminal(o.Status)
		}
		return StatusCancelled, nil
	})
}

func (s *Service) run(ctx context.Context, op, orderID string, actor Actor, action Action, decide decideFunc) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "orders."+op, trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("actor.id", actor.ID),
	))
	defer span.End()

	res, err := s.commit(ctx, orderID, actor, action, decide)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		if k := KindOf(err); k == KindTransient || k == KindUnexpected {
			s.logger.Error("order transition failed",
				zap.String("op", op), zap.String("order_id", orderID), zap.Error(err))
		}
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("order.status.from", string(res.PreviousStatus)),
		attribute.String("order.status.to", string(res.Order.Status)),
	)

	s.publish(ctx, res, actor)
	return res, nil
}

// commit is the read-validate-write step. The write is conditional on the
// status that was read, so a concurrent winner turns this call into a conflict.
func (s *Service) commit(ctx context.Context, orderID string, actor Actor, action Action, decide decideFunc) (Result, error) {
	o, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return Result{}, ClassifyStoreError(orderID, err)
	}

	ok, err := s.authz.Can(ctx, actor, o, action)
	if err != nil {
		return Result{}, &Error{Kind: KindTransient, Message: "authorization check failed", Err: err}
	}
	if !ok {
		return Result{}, newError(KindForbidden, forbiddenMessages[action])
	}

	next, derr := decide(o)
	if derr != nil {
		return Result{}, derr
	}

	updated, err := s.store.UpdateStatus(ctx, orderID, o.Status, next)
	if err != nil {
		return Result{}, ClassifyStoreError(orderID, err)
	}
	return Result{Order: updated, PreviousStatus: o.Status}, nil
}

// publish never fails the operation: the status change is already committed
// and dashboards rebuild unread counts from durable rows.
func (s *Service) publish(ctx context.Context, res Result, actor Actor) {
	// detach from request cancellation so a client hang-up does not drop fan-out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.notifier.StatusChanged(ctx, res.Order, res.PreviousStatus, actor); err != nil {
		s.logger.Warn("order fan-out failed",
			zap.String("order_id", res.Order.ID),
			zap.String("status", string(res.Order.Status)),
			zap.Error(err))
	}
}

// IsTerminalError reports whether err rejected a request because the order is finished.
func IsTerminalError(err error) bool {
	k := KindOf(err)
	return k == KindAlreadyDelivered || k == KindAlreadyCancelled
}

func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
