package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/metrics"
	"github.com/joestump/link-library/internal/store"
)

// extensionHandler serves the browser extension popup. Its error bodies are
// the plain {"error": ...} shape the popup displays.
type extensionHandler struct {
	svc *library.Service
	log *zap.Logger
}

// ListLibraries returns the caller's libraries sorted by name.
// GET /api/extension
func (h *extensionHandler) ListLibraries(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if !p.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	libs, err := h.svc.ListLibraries(r.Context(), p, store.ByName)
	if err != nil {
		h.log.Error("list libraries for extension", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	resp := ExtensionLibrariesResponse{Libraries: make([]ExtensionLibrary, 0, len(libs))}
	for _, l := range libs {
		resp.Libraries = append(resp.Libraries, ExtensionLibrary{
			ID:          l.ID,
			Name:        l.Name,
			Description: nullableText(l.Description),
			IsPublic:    l.IsPublic,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveItem stores a link sent by the extension in one of the caller's
// libraries.
// POST /api/extension
func (h *extensionHandler) SaveItem(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if !p.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthorized - No valid session", "")
		return
	}

	var req ExtensionSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.LibraryID) == "" {
		writeError(w, http.StatusBadRequest, "Title, URL, and libraryId are required", "")
		return
	}

	item, err := h.svc.AddItem(r.Context(), p, req.LibraryID, library.ItemInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Tags:        req.Tags,
	})
	var verr *library.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message, "")
		return
	case errors.Is(err, library.ErrNotOwned):
		writeError(w, http.StatusNotFound, "Library not found or access denied", "")
		return
	default:
		h.log.Error("extension save failed", zap.String("library_id", req.LibraryID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	metrics.ItemsSavedTotal.WithLabelValues("extension").Inc()
	writeJSON(w, http.StatusOK, ExtensionSaveResponse{Success: true, Item: toItemResponse(item)})
}
