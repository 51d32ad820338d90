package web

import (
	"net/http"

	"barstock/internal"
	"barstock/internal/logging"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// respondError logs err with the request id and sends the user-facing text
// for its kind.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	kind := internal.RunStatusFor(err)
	logging.WithFields(r.Context(), "path", r.URL.Path, "method", r.Method).Error("request error",
		"status", status,
		"kind", kind,
		"error", err.Error(),
	)
	writeJSON(w, status, ErrorResponse{
		Error:  internal.UserMessage(err),
		Kind:   string(kind),
		Detail: err.Error(),
	})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
