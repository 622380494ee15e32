package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/directory"
	"appreview/internal/errs"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

const requestIDHeader = "X-Request-ID"

// requestContext tags the request with an id, echoes it back and logs the outcome.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := logging.WithRequest(r.Context(), requestID, 0)
		ctx = logging.WithAttrs(ctx,
			slog.String("component", "httpapi"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.Info(ctx, "request served",
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func observe(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observer.ObserveHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on websocket handshakes, so upgrades may pass access_token instead.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" && websocket.IsWebSocketUpgrade(r) {
		token := strings.TrimSpace(r.URL.Query().Get("access_token"))
		return token, token != ""
	}
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func (h *Handler) authenticate(r *http.Request) (*http.Request, error) {
	token, ok := bearerToken(r)
	if !ok {
		return r, nil
	}
	user, err := h.accounts.Authenticate(r.Context(), token)
	if err != nil {
		return r, err
	}
	ctx := context.WithValue(r.Context(), userKey, user)
	ctx = context.WithValue(ctx, tokenKey, token)
	ctx = logging.WithAttrs(ctx, slog.Uint64("user_id", user.ID))
	return r.WithContext(ctx), nil
}

// optionalAuth resolves a bearer token when one is sent. A bad token is
// still rejected so clients notice expired sessions.
func (h *Handler) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, err := h.authenticate(r)
		if err != nil {
			logging.Warn(r.Context(), "bearer token refused", slog.Any("err", errs.Loggable(err)))
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, authed)
	})
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, err := h.authenticate(r)
		if err != nil {
			logging.Warn(r.Context(), "bearer token refused", slog.Any("err", errs.Loggable(err)))
			writeError(w, r, err)
			return
		}
		if _, ok := currentUser(authed.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required", Code: "not_authenticated"})
			return
		}
		next.ServeHTTP(w, authed)
	})
}

func currentUser(ctx context.Context) (directory.User, bool) {
	user, ok := ctx.Value(userKey).(directory.User)
	return user, ok
}

func currentUserID(ctx context.Context) uint64 {
	if user, ok := currentUser(ctx); ok {
		return user.ID
	}
	return 0
}
