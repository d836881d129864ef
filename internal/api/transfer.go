package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/exporter"
	"github.com/joestump/link-library/internal/library"
)

const (
	maxImportBytes = 10 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// transferAPIHandler imports and exports whole libraries.
type transferAPIHandler struct {
	svc *library.Service
	log *zap.Logger
}

func registerTransferRoutes(r chi.Router, svc *library.Service, log *zap.Logger) {
	h := &transferAPIHandler{svc: svc, log: log}
	r.Post("/libraries/{id}/import", h.Import)
	r.Get("/libraries/{id}/export", h.Export)
}

// Import stores every link found in the request body in the library. The
// body is pasted text (JSON list or one URL per line) sent as is or wrapped
// in {"text": ...}, or a workbook written by Export.
// POST /api/v1/libraries/{id}/import
func (h *transferAPIHandler) Import(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	libraryID := chi.URLParam(r, "id")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import body too large", "BAD_REQUEST")
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var n int
	switch mediaType {
	case xlsxContentType:
		records, rerr := exporter.ReadRecords(bytes.NewReader(body))
		if rerr != nil {
			writeError(w, http.StatusBadRequest, "unreadable spreadsheet", "BAD_REQUEST")
			return
		}
		n, err = h.svc.ImportRecords(r.Context(), p, libraryID, records)
	case "application/json":
		text, terr := importText(body)
		if terr != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		n, err = h.svc.Import(r.Context(), p, libraryID, text)
	default:
		n, err = h.svc.Import(r.Context(), p, libraryID, string(body))
	}
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: n})
}

// importText unwraps a {"text": ...} body. Any other JSON body is import
// data itself and is returned unchanged.
func importText(body []byte) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return string(body), nil
	}
	if _, ok := obj["text"]; !ok {
		return string(body), nil
	}
	var req ImportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", err
	}
	return req.Text, nil
}

// Export downloads the library as an xlsx workbook.
// GET /api/v1/libraries/{id}/export
func (h *transferAPIHandler) Export(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.Export(r.Context(), auth.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exp.Data); err != nil {
		h.log.Warn("export write failed", zap.Error(err))
	}
}
