package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/cart"
)

// CartHandler serves the signed-in customer's own cart; the cart id is the actor id.
type CartHandler struct {
	Carts  *cart.Container
	Logger *zap.Logger
}

type cartResp struct {
	OK         bool      `json:"ok"`
	Cart       cart.Cart `json:"cart"`
	TotalCents int64     `json:"total_cents"`
}

type updateQtyReq struct {
	Qty int `json:"qty"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart/items", h.add)
	r.Patch("/cart/items/{productID}", h.update)
	r.Delete("/cart/items/{productID}", h.remove)
	r.Delete("/cart", h.clear)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	ct, err := h.Carts.Get(ctx, actorFrom(r.Context()).ID)
	h.write(w, ct, err)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var it cart.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeFailure(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	ct, err := h.Carts.Add(ctx, actorFrom(r.Context()).ID, it)
	h.write(w, ct, err)
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateQtyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	ct, err := h.Carts.Update(ctx, actorFrom(r.Context()).ID, chi.URLParam(r, "productID"), req.Qty)
	h.write(w, ct, err)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	ct, err := h.Carts.Remove(ctx, actorFrom(r.Context()).ID, chi.URLParam(r, "productID"))
	h.write(w, ct, err)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	id := actorFrom(r.Context()).ID
	if err := h.Carts.Clear(ctx, id); err != nil {
		h.write(w, cart.Cart{}, err)
		return
	}
	h.write(w, cart.Cart{ID: id, Items: []cart.Item{}}, nil)
}

func (h *CartHandler) write(w http.ResponseWriter, ct cart.Cart, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, cartResp{OK: true, Cart: ct, TotalCents: ct.Total()})
	case errors.Is(err, cart.ErrInvalidItem):
		writeFailure(w, http.StatusBadRequest, "invalid_item", "product_id, positive qty and price are required")
	case errors.Is(err, cart.ErrItemNotFound):
		writeFailure(w, http.StatusNotFound, "not_found", "item not in cart")
	default:
		h.Logger.Error("cart request failed", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "unexpected", "internal error")
	}
}
