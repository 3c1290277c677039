package web

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/cors"
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestScope attaches a RequestContext to every request and echoes the
// request id back to the client.
func (s *Server) requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := parseRequestContext(r, s.logger)
		w.Header().Set(requestIDHeader, rc.ID)
		next.ServeHTTP(w, r.WithContext(withRequestContext(r.Context(), rc)))
	})
}

// logRequests logs every request on entry and its status on exit.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := requestContextFrom(r)
		rc.Logger.Info("request received",
			"method", r.Method,
			"url", r.URL.String(),
			"client", rc.ClientAddr,
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		rc.Logger.Debug("request finished",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", rc.Elapsed(),
		)
	})
}

// recoverPanics turns any panic below it into the generic 500 response.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rc := requestContextFrom(r)
			rc.Logger.Error("unhandled panic",
				"type", fmt.Sprintf("%T", rec),
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}
	if len(origins) == 0 {
		// An empty list would otherwise mean "allow all".
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts)
}
