package store

import (
	"context"
	"errors"
	"sync"

	"git.sr.ht/~jakintosh/todo/internal/domain"
)

var errStoreClosed = errors.New("store is closed")

// InMemoryStore keeps todos in process memory. Data is lost on restart.
type InMemoryStore struct {
	mu     sync.RWMutex
	todos  []domain.Todo // ascending by id
	nextID int64
	closed bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		todos:  []domain.Todo{},
		nextID: 1,
	}
}

func (s *InMemoryStore) Init(ctx context.Context) error {
	return s.Ping(ctx)
}

func (s *InMemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &domain.StorageError{Op: "ping", Err: errStoreClosed}
	}
	return nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *InMemoryStore) Session(ctx context.Context) (domain.Session, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, &domain.StorageError{Op: "acquire session", Err: errStoreClosed}
	}
	return &memorySession{store: s}, nil
}

type memorySession struct {
	store *InMemoryStore
}

func (m *memorySession) Close() error {
	return nil
}

// index returns the position of id in s.todos, or -1. Callers hold the lock.
func (s *InMemoryStore) index(id int64) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *memorySession) ListTodos(ctx context.Context) ([]*domain.Todo, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &domain.StorageError{Op: "list todos", Err: errStoreClosed}
	}

	todos := make([]*domain.Todo, 0, len(s.todos))
	for i := len(s.todos) - 1; i >= 0; i-- {
		t := s.todos[i]
		todos = append(todos, &t)
	}
	return todos, nil
}

func (m *memorySession) CreateTodo(ctx context.Context, title string) (*domain.Todo, error) {
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &domain.StorageError{Op: "create todo", Err: errStoreClosed}
	}

	t := domain.Todo{ID: s.nextID, Title: title}
	s.nextID++
	s.todos = append(s.todos, t)
	return &t, nil
}

func (m *memorySession) GetTodo(ctx context.Context, id int64) (*domain.Todo, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &domain.StorageError{Op: "get todo", Err: errStoreClosed}
	}

	i := s.index(id)
	if i < 0 {
		return nil, nil
	}
	t := s.todos[i]
	return &t, nil
}

func (m *memorySession) UpdateTodo(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	var title string
	if patch.Title != nil {
		var err error
		if title, err = domain.NormalizeTitle(*patch.Title); err != nil {
			return nil, err
		}
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &domain.StorageError{Op: "update todo", Err: errStoreClosed}
	}

	i := s.index(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if patch.Title != nil {
		s.todos[i].Title = title
	}
	if patch.Completed != nil {
		s.todos[i].Completed = *patch.Completed
	}
	t := s.todos[i]
	return &t, nil
}

func (m *memorySession) DeleteTodo(ctx context.Context, id int64) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &domain.StorageError{Op: "delete todo", Err: errStoreClosed}
	}

	i := s.index(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	return nil
}
