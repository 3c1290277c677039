package domain

import "context"

// Store owns todo persistence. Request handlers never touch it directly;
// they acquire a Session per request and release it when done.
type Store interface {
	Init(ctx context.Context) error
	Session(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// Session is a request-scoped handle on a Store. It must be closed on every
// exit path. Each mutating call is atomic.
type Session interface {
	ListTodos(ctx context.Context) ([]*Todo, error)
	CreateTodo(ctx context.Context, title string) (*Todo, error)
	// GetTodo returns (nil, nil) when no todo has the given id.
	GetTodo(ctx context.Context, id int64) (*Todo, error)
	UpdateTodo(ctx context.Context, id int64, patch TodoPatch) (*Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
	Close() error
}
