package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/store"
)

// librariesAPIHandler provides REST handlers for library endpoints.
type librariesAPIHandler struct {
	svc *library.Service
	log *zap.Logger
}

func registerLibraryRoutes(r chi.Router, svc *library.Service, log *zap.Logger) {
	h := &librariesAPIHandler{svc: svc, log: log}
	r.Get("/libraries", h.List)
	r.Post("/libraries", h.Create)
	r.Get("/libraries/{id}", h.Get)
}

// List returns the caller's libraries. ?order=newest sorts by creation time,
// anything else by name.
// GET /api/v1/libraries
func (h *librariesAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	order := store.ByName
	if r.URL.Query().Get("order") == "newest" {
		order = store.ByNewest
	}

	libs, err := h.svc.ListLibraries(r.Context(), auth.PrincipalFromContext(r.Context()), order)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	resp := LibraryListResponse{Libraries: make([]LibraryResponse, 0, len(libs))}
	for _, l := range libs {
		resp.Libraries = append(resp.Libraries, toLibraryResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create creates a library owned by the caller.
// POST /api/v1/libraries
func (h *librariesAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	lib, err := h.svc.CreateLibrary(r.Context(), auth.PrincipalFromContext(r.Context()), library.LibraryInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLibraryResponse(lib))
}

// Get returns one of the caller's libraries.
// GET /api/v1/libraries/{id}
func (h *librariesAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	lib, err := h.svc.GetLibrary(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toLibraryResponse(lib))
}
