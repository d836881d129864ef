package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/metadata"
)

// MetadataExtractor produces link previews.
type MetadataExtractor interface {
	Extract(ctx context.Context, rawURL string) metadata.Metadata
}

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Service        *library.Service
	Metadata       MetadataExtractor
	AuthMiddleware *auth.Middleware
	// AllowedOrigins lists the browser extension origins allowed to call the
	// extension endpoints with credentials. Empty disables CORS.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewAPIRouter creates a chi sub-router for /api. The caller must load the
// session (scs LoadAndSave) before requests reach it.
func NewAPIRouter(deps Deps) chi.Router {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("api")

	r := chi.NewRouter()
	r.Use(jsonContentType)

	ext := &extensionHandler{svc: deps.Service, log: log}
	meta := &metadataHandler{extractor: deps.Metadata}

	r.Group(func(r chi.Router) {
		if len(deps.AllowedOrigins) > 0 {
			r.Use(extensionCORS(deps.AllowedOrigins))
		}
		r.Use(deps.AuthMiddleware.OptionalUser)
		// Preflight requests only match registered methods.
		r.Options("/extension", noContent)
		r.Options("/metadata", noContent)
		r.Get("/extension", ext.ListLibraries)
		r.Post("/extension", ext.SaveItem)
		r.Get("/metadata", meta.Get)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		registerLibraryRoutes(r, deps.Service, log)
		registerItemRoutes(r, deps.Service, log)
		registerTransferRoutes(r, deps.Service, log)
	})

	return r
}

func extensionCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
