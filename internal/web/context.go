package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

type RequestContext struct {
	ID         string    // X-Request-ID, client supplied or generated
	ClientAddr string    // remote host without port
	Start      time.Time // when the request entered the server
	Logger     *log.Logger
}

type requestContextKey struct{}

func parseRequestContext(r *http.Request, logger *log.Logger) RequestContext {
	id := r.Header.Get(requestIDHeader)
	if id == "" || len(id) > maxRequestIDLength {
		id = uuid.NewString()
	}

	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	return RequestContext{
		ID:         id,
		ClientAddr: addr,
		Start:      time.Now(),
		Logger:     logger.With("request_id", id),
	}
}

func withRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// requestContextFrom returns the RequestContext stored by the server
// middleware. Outside of it, a zero context with a discard logger is
// returned.
func requestContextFrom(r *http.Request) RequestContext {
	if rc, ok := r.Context().Value(requestContextKey{}).(RequestContext); ok {
		return rc
	}
	return RequestContext{Start: time.Now(), Logger: discardLogger}
}

func (rc RequestContext) Elapsed() time.Duration {
	return time.Since(rc.Start)
}
