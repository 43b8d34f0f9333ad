package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/authz"
	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
)

type OrderFinder interface {
	FindByID(ctx context.Context, id string) (orders.Order, error)
}

type OrderLister interface {
	ListByOrganization(ctx context.Context, orgID string, limit int) ([]orders.Order, error)
}

type OrdersHandler struct {
	Service *orders.Service
	Orders  OrderFinder
	Lister  OrderLister
	Authz   *authz.Checker
	Logger  *zap.Logger
}

type updateStatusReq struct {
	Status orders.Status `json:"status"`
}

type resultResp struct {
	OK bool `json:"ok"`
	orders.Result
}

type orderResp struct {
	OK      bool            `json:"ok"`
	Order   orders.Order    `json:"order"`
	Options []orders.Option `json:"options"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders/{id}/status", h.updateStatus)
	r.Post("/orders/{id}/deliver", h.markDelivered)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orgs/{orgID}/orders", h.listOrders)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeFailure(w, http.StatusBadRequest, "bad_request", "body must be {\"status\": \"...\"}")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.UpdateStatus(ctx, chi.URLParam(r, "id"), req.Status, actorFrom(r.Context()))
	h.writeResult(w, res, err)
}

func (h *OrdersHandler) markDelivered(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.MarkDelivered(ctx, chi.URLParam(r, "id"), actorFrom(r.Context()))
	h.writeResult(w, res, err)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.CancelOrder(ctx, chi.URLParam(r, "id"), actorFrom(r.Context()))
	h.writeResult(w, res, err)
}

func (h *OrdersHandler) writeResult(w http.ResponseWriter, res orders.Result, err error) {
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResp{OK: true, Result: res})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	o, err := h.Orders.FindByID(ctx, id)
	if err != nil {
		writeError(w, h.Logger, orders.ClassifyStoreError(id, err))
		return
	}
	res := authz.Resource{OrganizationID: o.OrganizationID, OwnerID: o.UserID}
	if !allow(ctx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, res, authz.ActionOrderRead) {
		return
	}
	writeJSON(w, http.StatusOK, orderResp{OK: true, Order: o, Options: orders.Options(o)})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orgID := chi.URLParam(r, "orgID")
	if !allow(ctx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, authz.Resource{OrganizationID: orgID}, authz.ActionOrdersList) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	list, err := h.Lister.ListByOrganization(ctx, orgID, limit)
	if err != nil {
		writeError(w, h.Logger, orders.ClassifyStoreError("", err))
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orders": list})
}

// allow runs the capability check and writes the failure response when denied.
func allow(ctx context.Context, w http.ResponseWriter, az *authz.Checker, logger *zap.Logger, actorID string, res authz.Resource, action authz.Action) bool {
	ok, err := az.Allow(ctx, actorID, res, action)
	if err != nil {
		logger.Warn("membership lookup failed", zap.String("organization_id", res.OrganizationID), zap.Error(err))
		writeFailure(w, http.StatusServiceUnavailable, string(orders.KindTransient), "service temporarily unavailable, try again")
		return false
	}
	if !ok {
		writeFailure(w, http.StatusForbidden, string(orders.KindForbidden), "access denied")
		return false
	}
	return true
}
