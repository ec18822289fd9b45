package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/clearline/authd/internal/http/errors"
)

// readJSON decodes a JSON body, tolerant of unknown fields, capped at 1MB.
// Returns false after writing the error response itself.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("Content-Type must be application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
