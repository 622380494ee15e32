// Package httpapi exposes the catalog and moderation workflow as a JSON API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/usecase/account"
	catalogusecase "appreview/internal/usecase/catalog"
	"appreview/internal/usecase/moderation"
)

type CatalogService interface {
	Search(ctx context.Context, input catalogusecase.SearchInput) (catalogusecase.SearchPage, error)
	Suggestions(ctx context.Context, fragment string) ([]string, error)
}

type ModerationService interface {
	SubmitReview(ctx context.Context, input moderation.SubmitReviewInput) (moderation.SubmittedReview, error)
	ActOnReview(ctx context.Context, input moderation.ActInput) (review.Record, error)
	Dashboard(ctx context.Context, supervisorID uint64) (moderation.Dashboard, error)
	EntryDetail(ctx context.Context, entryID uint64, viewerID uint64) (moderation.EntryDetail, error)
	EventCursor(ctx context.Context) (uint64, error)
	EventsAfter(ctx context.Context, afterEventID uint64, limit int) ([]review.Event, error)
}

type AccountService interface {
	Register(ctx context.Context, input account.RegisterInput) (directory.User, error)
	Login(ctx context.Context, username string, password string) (account.Session, error)
	Authenticate(ctx context.Context, token string) (directory.User, error)
	Logout(ctx context.Context, token string) error
}

type RequestObserver interface {
	ObserveHTTPRequest(method string, route string, status int, elapsed time.Duration)
}

type Deps struct {
	Catalog    CatalogService
	Moderation ModerationService
	Accounts   AccountService
	// Observer and Metrics are optional.
	Observer RequestObserver
	Metrics  http.Handler
	// StreamInterval is how often the dashboard stream polls for new
	// moderation events. Zero means two seconds.
	StreamInterval time.Duration
}

type Handler struct {
	catalog        CatalogService
	moderation     ModerationService
	accounts       AccountService
	streamInterval time.Duration
}

func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		catalog:        deps.Catalog,
		moderation:     deps.Moderation,
		accounts:       deps.Accounts,
		streamInterval: deps.StreamInterval,
	}
	if h.streamInterval <= 0 {
		h.streamInterval = defaultStreamInterval
	}

	r := chi.NewRouter()
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	if deps.Observer != nil {
		r.Use(observe(deps.Observer))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/accounts/register", h.handleRegister)
		api.Post("/accounts/login", h.handleLogin)

		api.Group(func(public chi.Router) {
			public.Use(h.optionalAuth)
			public.Get("/search", h.handleSearch)
			public.Get("/search/suggestions", h.handleSuggestions)
			public.Get("/entries/{entryID}", h.handleEntryDetail)
		})

		api.Group(func(private chi.Router) {
			private.Use(h.requireAuth)
			private.Get("/accounts/me", h.handleWhoAmI)
			private.Post("/accounts/logout", h.handleLogout)
			private.Post("/entries/{entryID}/reviews", h.handleSubmitReview)
			private.Get("/supervisor/dashboard", h.handleDashboard)
			private.Get("/supervisor/stream", h.handleDashboardStream)
			private.Post("/reviews/{reviewID}/decision", h.handleDecision)
			private.Post("/reviews/{reviewID}/approve", h.handleFixedDecision(review.ActionApprove))
			private.Post("/reviews/{reviewID}/reject", h.handleFixedDecision(review.ActionReject))
		})
	})

	return r
}
