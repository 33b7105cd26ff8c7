package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cotizo-erp/cotizo/internal/analytics"
	"github.com/cotizo-erp/cotizo/internal/auth"
	"github.com/cotizo-erp/cotizo/internal/catalog"
	"github.com/cotizo-erp/cotizo/internal/platform/httpx"
	"github.com/cotizo-erp/cotizo/internal/pricing"
	"github.com/cotizo-erp/cotizo/internal/quotes"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Tokens           *auth.TokenManager
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	PricingHandler   *pricing.Handler
	QuotesHandler    *quotes.Handler
	AnalyticsHandler *analytics.Handler
	Pool             *pgxpool.Pool
}

// NewRouter constructs the chi router. Login and the share-link
// endpoint stay outside the authenticated group; everything else
// requires a bearer token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Logger, params.Config) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		params.QuotesHandler.MountPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(params.Tokens, params.Logger))
			params.AuthHandler.MountProtectedRoutes(r)
			r.Route("/catalog", params.CatalogHandler.MountRoutes)
			r.Route("/pricing", params.PricingHandler.MountRoutes)
			r.Route("/quotations", params.QuotesHandler.MountRoutes)
			r.Route("/dashboard", params.AnalyticsHandler.MountRoutes)
		})
	})

	return r
}
