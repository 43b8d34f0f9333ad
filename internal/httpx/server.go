package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
)

// HeaderActorID is set by the session gateway in front of this service.
const HeaderActorID = "X-Actor-ID"

type ctxKey struct{}

func NewRouter(logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// RequireActor rejects requests without an authenticated actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderActorID)
		if id == "" {
			writeFailure(w, http.StatusUnauthorized, "unauthorized", "missing actor")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, orders.Actor{ID: id})))
	})
}

func actorFrom(ctx context.Context) orders.Actor {
	a, _ := ctx.Value(ctxKey{}).(orders.Actor)
	return a
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type failure struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Code   string `json:"code"`
	Status int    `json:"status"`
}

func writeFailure(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, failure{OK: false, Error: msg, Code: code, Status: status})
}

// writeError maps a lifecycle error to the tagged failure body. Unclassified
// errors are logged and surfaced as a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if e, ok := orders.As(err); ok && e.Kind != orders.KindUnexpected {
		msg := e.Message
		if e.Kind == orders.KindTransient {
			msg = "service temporarily unavailable, try again"
		}
		writeFailure(w, e.HTTPStatus(), string(e.Kind), msg)
		return
	}
	logger.Error("unexpected error", zap.Error(err))
	writeFailure(w, http.StatusInternalServerError, string(orders.KindUnexpected), "internal error")
}
