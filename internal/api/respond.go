package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"smart-todo-backend/internal/tasks"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeEngineError maps validation failures to 400 and everything else to a
// plain 500. Provider failures never reach here; the orchestrator absorbs
// them.
func writeEngineError(w http.ResponseWriter, err error) {
	var vErr *tasks.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
