package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/authz"
	"github.com/ariefcatur/go-realtime-storefront/internal/cart"
	"github.com/ariefcatur/go-realtime-storefront/internal/notifications"
	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
	"github.com/ariefcatur/go-realtime-storefront/internal/realtime"
)

type testAPI struct {
	router http.Handler
	store  *orders.MemoryStore
	notes  *notifications.MemoryStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := orders.NewMemoryStore()
	store.Put(orders.Order{
		ID: "ord-1", OrderNumber: 11, Status: orders.StatusPending,
		OrganizationID: "org-1", UserID: "cust-1", CustomerName: "Dina",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	store.Put(orders.Order{
		ID: "ord-2", OrderNumber: 12, Status: orders.StatusConfirmed,
		OrganizationID: "org-1", UserID: "cust-2",
		CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	members := authz.NewStaticMembership()
	members.Add("org-1", "staff-1")
	checker := authz.NewChecker(members)
	notes := notifications.NewMemoryStore()
	bus := realtime.NewLocalBus(8, logger)

	svc := orders.NewService(store, checker, notifications.NewFanout(notes, bus, logger), logger)
	oh := &OrdersHandler{Service: svc, Orders: store, Lister: store, Authz: checker, Logger: logger}
	nh := &NotificationsHandler{Service: notifications.NewService(notes), Subscriber: bus, Authz: checker, Logger: logger}
	ch := &CartHandler{Carts: cart.NewContainer(cart.NewMemoryKV()), Logger: logger}

	r := NewRouter(logger)
	r.Group(func(r chi.Router) {
		r.Use(RequireActor)
		nh.RegisterStream(r)
		oh.Register(r)
		nh.Register(r)
		ch.Register(r)
	})
	return &testAPI{router: r, store: store, notes: notes}
}

func (a *testAPI) do(t *testing.T, method, path, actor, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != "" {
		req.Header.Set(HeaderActorID, actor)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingActor(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/orders/ord-1/cancel", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["ok"])
}

func TestUpdateStatusEndpoint(t *testing.T) {
	a := newTestAPI(t)

	code, body := a.do(t, http.MethodPost, "/orders/ord-1/status", "staff-1", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "pending", body["previous_status"])
	assert.Equal(t, "confirmed", body["order"].(map[string]any)["status"])

	code, body = a.do(t, http.MethodGet, "/orgs/org-1/notifications/unread-count", "staff-1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["unread"])
}

func TestFailureBodies(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		actor  string
		body   string
		status int
		code   string
	}{
		{"bad body", http.MethodPost, "/orders/ord-1/status", "staff-1", `{}`, 400, "bad_request"},
		{"not found", http.MethodPost, "/orders/nope/status", "staff-1", `{"status":"confirmed"}`, 404, "not_found"},
		{"not staff", http.MethodPost, "/orders/ord-1/status", "cust-1", `{"status":"confirmed"}`, 403, "forbidden"},
		{"skipped step", http.MethodPost, "/orders/ord-1/status", "staff-1", `{"status":"ready"}`, 400, "invalid_transition"},
		{"unpaid", http.MethodPost, "/orders/ord-2/status", "staff-1", `{"status":"preparing"}`, 400, "payment_required"},
		{"staff delivering", http.MethodPost, "/orders/ord-1/deliver", "staff-1", ``, 403, "forbidden"},
		{"foreign order", http.MethodGet, "/orders/ord-1", "cust-2", ``, 403, "forbidden"},
		{"list needs staff", http.MethodGet, "/orgs/org-1/orders", "cust-1", ``, 403, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI(t)
			code, body := a.do(t, tt.method, tt.path, tt.actor, tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, float64(tt.status), body["status"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDeliverThenCancel(t *testing.T) {
	a := newTestAPI(t)

	code, _ := a.do(t, http.MethodPost, "/orders/ord-1/deliver", "cust-1", "")
	require.Equal(t, http.StatusOK, code)

	code, body := a.do(t, http.MethodPost, "/orders/ord-1/cancel", "cust-1", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "already_delivered", body["code"])
}

func TestGetOrderShowsOptions(t *testing.T) {
	a := newTestAPI(t)

	code, body := a.do(t, http.MethodGet, "/orders/ord-2", "cust-2", "")
	require.Equal(t, http.StatusOK, code)
	opts := body["options"].([]any)
	require.Len(t, opts, 2)
	first := opts[0].(map[string]any)
	assert.Equal(t, "preparing", first["status"])
	assert.Equal(t, true, first["blocked"])
}

func TestListOrders(t *testing.T) {
	a := newTestAPI(t)

	code, body := a.do(t, http.MethodGet, "/orgs/org-1/orders?limit=1", "staff-1", "")
	require.Equal(t, http.StatusOK, code)
	list := body["orders"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "ord-2", list[0].(map[string]any)["id"])
}

func TestNotificationReadFlow(t *testing.T) {
	a := newTestAPI(t)
	_, _ = a.do(t, http.MethodPost, "/orders/ord-1/status", "staff-1", `{"status":"confirmed"}`)
	_, _ = a.do(t, http.MethodPost, "/orders/ord-2/cancel", "cust-2", "")

	code, body := a.do(t, http.MethodGet, "/orgs/org-1/notifications", "staff-1", "")
	require.Equal(t, http.StatusOK, code)
	list := body["notifications"].([]any)
	require.Len(t, list, 2)
	id := list[0].(map[string]any)["id"].(string)

	code, _ = a.do(t, http.MethodPost, "/notifications/"+id+"/read", "cust-2", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, http.MethodPost, "/notifications/"+id+"/read", "staff-1", "")
	require.Equal(t, http.StatusOK, code)
	_, body = a.do(t, http.MethodGet, "/orgs/org-1/notifications/unread-count", "staff-1", "")
	assert.Equal(t, float64(1), body["unread"])

	_, body = a.do(t, http.MethodPost, "/orgs/org-1/notifications/read-all", "staff-1", "")
	assert.Equal(t, float64(1), body["marked"])

	code, body = a.do(t, http.MethodPost, "/notifications/missing/read", "staff-1", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["code"])
}

func TestCartEndpoints(t *testing.T) {
	a := newTestAPI(t)

	code, body := a.do(t, http.MethodPost, "/cart/items", "cust-1", `{"product_id":"kopi","qty":2,"price_cents":1800}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3600), body["total_cents"])

	code, body = a.do(t, http.MethodPatch, "/cart/items/kopi", "cust-1", `{"qty":3}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(5400), body["total_cents"])

	code, body = a.do(t, http.MethodGet, "/cart", "cust-2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["total_cents"])

	code, body = a.do(t, http.MethodPost, "/cart/items", "cust-1", `{"product_id":"kopi","qty":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_item", body["code"])

	code, _ = a.do(t, http.MethodDelete, "/cart/items/roti", "cust-1", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodDelete, "/cart", "cust-1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["total_cents"])
}

func TestEventStream(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	denied, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/orgs/org-1/events", nil)
	require.NoError(t, err)
	denied.Header.Set(HeaderActorID, "cust-1")
	resp, err := http.DefaultClient.Do(denied)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/orgs/org-1/events", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderActorID, "staff-1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	code, _ := a.do(t, http.MethodPost, "/orders/ord-1/status", "staff-1", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, code)

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Event   string `json:"event"`
			Channel string `json:"channel"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, realtime.EventOrderStatus, ev.Event)
		assert.Equal(t, "org:org-1", ev.Channel)
		return
	}
	t.Fatalf("stream ended without an event: %v", sc.Err())
}
