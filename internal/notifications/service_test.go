package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store Store, org string, n int) {
	t.Helper()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, store.Insert(context.Background(), Notification{
			ID:             fmt.Sprintf("%s-%03d", org, i),
			OrganizationID: org,
			OrderID:        fmt.Sprintf("ord-%d", i),
			OrderNumber:    int64(i + 1),
			Type:           TypeStatusUpdate,
			Status:         "confirmed",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestListLimits(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, "org-1", 120)
	seed(t, store, "org-2", 3)
	svc := NewService(store)

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{500, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.limit), func(t *testing.T) {
			list, err := svc.List(context.Background(), "org-1", tt.limit)
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
		})
	}

	list, err := svc.List(context.Background(), "org-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "org-1-119", list[0].ID, "newest first")
	assert.Equal(t, "org-1-118", list[1].ID)
}

func TestReadState(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, "org-1", 3)
	seed(t, store, "org-2", 2)
	svc := NewService(store)
	ctx := context.Background()

	n, err := svc.UnreadCount(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, svc.MarkRead(ctx, "org-1-000"))
	n, err = svc.UnreadCount(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := svc.Get(ctx, "org-1-000")
	require.NoError(t, err)
	assert.True(t, got.Read)

	marked, err := svc.MarkAllRead(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	n, err = svc.UnreadCount(ctx, "org-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.UnreadCount(ctx, "org-2")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "other organizations untouched")
}

func TestMarkReadUnknown(t *testing.T) {
	svc := NewService(NewMemoryStore())
	assert.ErrorIs(t, svc.MarkRead(context.Background(), "missing"), ErrNotFound)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
