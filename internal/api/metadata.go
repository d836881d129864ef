package api

import (
	"net/http"
	"strings"
)

type metadataHandler struct {
	extractor MetadataExtractor
}

// Get returns a best-effort preview for the url query parameter. It answers
// 200 whenever the parameter is present, even if the page could not be
// fetched.
// GET /api/metadata?url=
func (h *metadataHandler) Get(w http.ResponseWriter, r *http.Request) {
	u := strings.TrimSpace(r.URL.Query().Get("url"))
	if u == "" {
		writeError(w, http.StatusBadRequest, "URL is required", "")
		return
	}
	writeJSON(w, http.StatusOK, h.extractor.Extract(r.Context(), u))
}
