package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/metrics"
	"github.com/joestump/link-library/internal/store"
)

// itemsAPIHandler provides REST handlers for item endpoints.
type itemsAPIHandler struct {
	svc *library.Service
	log *zap.Logger
}

func registerItemRoutes(r chi.Router, svc *library.Service, log *zap.Logger) {
	h := &itemsAPIHandler{svc: svc, log: log}
	r.Get("/libraries/{id}/items", h.List)
	r.Post("/libraries/{id}/items", h.Create)
	r.Get("/libraries/{id}/tags", h.Tags)
	r.Put("/items/{id}", h.Update)
	r.Delete("/items/{id}", h.Delete)
}

// List returns the library's items newest first, filtered by ?search= and
// ?tag=.
// GET /api/v1/libraries/{id}/items
func (h *itemsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ItemFilter{
		Search: r.URL.Query().Get("search"),
		Tag:    r.URL.Query().Get("tag"),
	}
	items, err := h.svc.ListItems(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), filter)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	resp := ItemListResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds an item to the library.
// POST /api/v1/libraries/{id}/items
func (h *itemsAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	item, err := h.svc.AddItem(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), itemInput(req))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	metrics.ItemsSavedTotal.WithLabelValues("form").Inc()
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// Update replaces an item's title, url, description and tags.
// PUT /api/v1/items/{id}
func (h *itemsAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), itemInput(req))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Delete removes an item.
// DELETE /api/v1/items/{id}
func (h *itemsAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tags returns the distinct tags used in the library.
// GET /api/v1/libraries/{id}/tags
func (h *itemsAPIHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

func itemInput(req ItemRequest) library.ItemInput {
	return library.ItemInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Tags:        req.Tags,
	}
}
