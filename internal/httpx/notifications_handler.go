package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/authz"
	"github.com/ariefcatur/go-realtime-storefront/internal/notifications"
	"github.com/ariefcatur/go-realtime-storefront/internal/realtime"
)

type NotificationsHandler struct {
	Service    *notifications.Service
	Subscriber realtime.Subscriber
	Authz      *authz.Checker
	Logger     *zap.Logger
}

func (h *NotificationsHandler) Register(r chi.Router) {
	r.Get("/orgs/{orgID}/notifications", h.list)
	r.Get("/orgs/{orgID}/notifications/unread-count", h.unreadCount)
	r.Post("/orgs/{orgID}/notifications/read-all", h.markAllRead)
	r.Post("/notifications/{id}/read", h.markRead)
}

// RegisterStream mounts the long-lived event stream; it must sit outside
// any request timeout middleware.
func (h *NotificationsHandler) RegisterStream(r chi.Router) {
	r.Get("/orgs/{orgID}/events", h.stream)
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orgID := chi.URLParam(r, "orgID")
	if !allow(ctx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, authz.Resource{OrganizationID: orgID}, authz.ActionNotificationsRead) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Service.List(ctx, orgID, limit)
	if err != nil {
		h.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notifications": list})
}

func (h *NotificationsHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orgID := chi.URLParam(r, "orgID")
	if !allow(ctx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, authz.Resource{OrganizationID: orgID}, authz.ActionNotificationsRead) {
		return
	}
	n, err := h.Service.UnreadCount(ctx, orgID)
	if err != nil {
		h.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "unread": n})
}

func (h *NotificationsHandler) markRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	n, err := h.Service.Get(ctx, id)
	if errors.Is(err, notifications.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, "not_found", "notification not found")
		return
	}
	if err != nil {
		h.internal(w, err)
		return
	}
	if !allow(ctx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, authz.Resource{OrganizationID: n.OrganizationID}, authz.ActionNotificationsAck) {
		return
	}
	if err := h.Service.MarkRead(ctx, id); err != nil {
		h.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *NotificationsHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orgID := chi.URLParam(r, "orgID")
	if !allow(ctx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, authz.Resource{OrganizationID: orgID}, authz.ActionNotificationsAck) {
		return
	}
	n, err := h.Service.MarkAllRead(ctx, orgID)
	if err != nil {
		h.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "marked": n})
}

// stream relays the organization channel as server-sent events. Clients
// refetch the notification list on (re)connect; events missed while
// disconnected are not replayed.
func (h *NotificationsHandler) stream(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	authCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	ok := allow(authCtx, w, h.Authz, h.Logger, actorFrom(r.Context()).ID, authz.Resource{OrganizationID: orgID}, authz.ActionEventsSubscribe)
	cancel()
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeFailure(w, http.StatusInternalServerError, "unexpected", "streaming unsupported")
		return
	}
	msgs, err := h.Subscriber.Subscribe(r.Context(), realtime.Channel(orgID))
	if err != nil {
		h.internal(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", m.Data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *NotificationsHandler) internal(w http.ResponseWriter, err error) {
	h.Logger.Error("notifications request failed", zap.Error(err))
	writeFailure(w, http.StatusInternalServerError, "unexpected", "internal error")
}
