package handler

import (
	"encoding/json"
	"net/http"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/build"
)

type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	User    *user  `json:"user,omitempty"`
	Login   string `json:"login,omitempty"`
}

type user struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// whoami reports the signed-in user, or where to sign in.
// GET /
func whoami(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "ok", Version: build.Version}
	if u := auth.UserFromContext(r.Context()); u != nil {
		resp.User = &user{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
	} else {
		resp.Login = "/auth/login"
	}
	writeJSON(w, resp)
}

// healthz answers liveness checks.
// GET /healthz
func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, statusResponse{Status: "ok", Version: build.Version})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
