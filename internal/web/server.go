package web

import (
	"fmt"
	"io"
	"net/http"

	"git.sr.ht/~jakintosh/todo/internal/domain"
	"github.com/charmbracelet/log"
)

var discardLogger = log.New(io.Discard)

type ServerOptions struct {
	Logger      *log.Logger
	CORSOrigins []string
}

type Server struct {
	store   domain.Store
	router  *http.ServeMux
	logger  *log.Logger
	handler http.Handler
}

func NewServer(store domain.Store, opts ServerOptions) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}

	s := &Server{
		store:  store,
		router: http.NewServeMux(),
		logger: logger.WithPrefix("web"),
	}
	s.routes()

	// CORS sits inside the logger: preflights are answered there and
	// never reach the router.
	var h http.Handler = s.router
	h = newCORS(opts.CORSOrigins).Handler(h)
	h = s.logRequests(h)
	h = s.recoverPanics(h)
	h = s.requestScope(h)
	s.handler = h

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	s.router.HandleFunc("GET /api/todos", s.handle(s.handleListTodos))
	s.router.HandleFunc("POST /api/todos", s.handle(s.handleCreateTodo))
	s.router.HandleFunc("PATCH /api/todos/{id}", s.handle(s.handleUpdateTodo))
	s.router.HandleFunc("DELETE /api/todos/{id}", s.handle(s.handleDeleteTodo))

	s.router.HandleFunc("/", s.handle(s.handleNotFound))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rc := requestContextFrom(r)
	rc.Logger.Info("health ok", "elapsed", rc.Elapsed())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) error {
	return fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, errRouteNotFound)
}
