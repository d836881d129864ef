package handler

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/api"
	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/library"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	Service        *library.Service
	Metadata       api.MetadataExtractor
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)

	// Health checks and scrapes carry no session.
	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.SessionManager.LoadAndSave)

		r.Get("/auth/login", deps.AuthHandlers.Login)
		r.Get("/auth/callback", deps.AuthHandlers.Callback)
		r.Post("/auth/logout", deps.AuthHandlers.Logout)
		r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
			target := "/auth/login"
			if q := r.URL.RawQuery; q != "" {
				target += "?" + q
			}
			http.Redirect(w, r, target, http.StatusFound)
		})

		r.With(deps.AuthMiddleware.OptionalUser).Get("/", whoami)

		r.Mount("/api", api.NewAPIRouter(api.Deps{
			Service:        deps.Service,
			Metadata:       deps.Metadata,
			AuthMiddleware: deps.AuthMiddleware,
			AllowedOrigins: deps.AllowedOrigins,
			Logger:         log,
		}))
	})

	return r
}
