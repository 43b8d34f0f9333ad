package notifications

import "context"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Service is the dashboard read surface over durable notification rows.
// Unread counts always come from the rows, so a dashboard that missed a
// realtime push is corrected on its next load.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, organizationID string, limit int) ([]Notification, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return s.store.List(ctx, organizationID, limit)
}

func (s *Service) UnreadCount(ctx context.Context, organizationID string) (int, error) {
	return s.store.UnreadCount(ctx, organizationID)
}

func (s *Service) Get(ctx context.Context, id string) (Notification, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.store.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, organizationID string) (int, error) {
	return s.store.MarkAllRead(ctx, organizationID)
}
