package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"git.sr.ht/~jakintosh/todo/internal/domain"
)

const (
	msgInternal      = "internal server error"
	msgRouteNotFound = "not found"
)

var errRouteNotFound = errors.New("route not found")

type errorBody struct {
	Error string `json:"error"`
}

// apiFunc is a handler that reports failure by returning an error.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc. It is the one place where errors
// become HTTP responses.
func (s *Server) handle(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		rc := requestContextFrom(r)
		logger := rc.Logger.With("method", r.Method, "path", r.URL.Path)

		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			logger.Warn("invalid request", "field", ve.Field, "error", ve.Message)
			writeError(w, http.StatusBadRequest, ve.Message)
		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("todo not found", "error", err)
			writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		case errors.Is(err, errRouteNotFound):
			logger.Warn("no route", "error", err)
			writeError(w, http.StatusNotFound, msgRouteNotFound)
		default:
			logger.Error("request failed",
				"storage", domain.IsStorage(err),
				"error", err,
				"elapsed", rc.Elapsed(),
			)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
