package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/impala-radio/impala/internal/repository"
)

// failure is the uniform error envelope every non-2xx response carries.
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// the status line has already been sent by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError sends the uniform failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, failure{Success: false, Message: message})
}

// writeStoreError maps repository sentinels onto response statuses.
// Anything unrecognized is a server fault and gets logged.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, msgConflict)
	case errors.Is(err, repository.ErrSyntax):
		writeError(w, http.StatusBadRequest, msgBadSyntax)
	default:
		log.Printf("store error: %v", err)
		writeError(w, http.StatusInternalServerError, msgQueryFailure)
	}
}
