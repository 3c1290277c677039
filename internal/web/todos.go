package web

import (
	"fmt"
	"net/http"
	"strings"

	"git.sr.ht/~jakintosh/todo/internal/domain"
)

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) error {
	rc := requestContextFrom(r)
	sess, err := s.store.Session(r.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	todos, err := sess.ListTodos(r.Context())
	if err != nil {
		return fmt.Errorf("list todos: %w", err)
	}

	rc.Logger.Info("listed todos", "count", len(todos), "elapsed", rc.Elapsed())
	writeJSON(w, http.StatusOK, todos)
	return nil
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) error {
	rc := requestContextFrom(r)
	title, _, err := decodeBody(r).title()
	if err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		return &domain.ValidationError{Field: "title", Message: "title is required"}
	}
	if title, err = domain.NormalizeTitle(title); err != nil {
		return err
	}

	sess, err := s.store.Session(r.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	todo, err := sess.CreateTodo(r.Context(), title)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	rc.Logger.Info("created todo", "id", todo.ID, "elapsed", rc.Elapsed())
	writeJSON(w, http.StatusCreated, todo)
	return nil
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) error {
	rc := requestContextFrom(r)
	id, err := pathID(r)
	if err != nil {
		return err
	}
	body := decodeBody(r)

	sess, err := s.store.Session(r.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	// A missing todo is reported before anything in the body is validated.
	existing, err := sess.GetTodo(r.Context(), id)
	if err != nil {
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("update todo %d: %w", id, domain.ErrNotFound)
	}

	patch, err := body.patch()
	if err != nil {
		return err
	}

	todo, err := sess.UpdateTodo(r.Context(), id, patch)
	if err != nil {
		return fmt.Errorf("update todo %d: %w", id, err)
	}

	rc.Logger.Info("updated todo",
		"id", todo.ID,
		"title_changed", patch.Title != nil,
		"completed_changed", patch.Completed != nil,
		"elapsed", rc.Elapsed(),
	)
	writeJSON(w, http.StatusOK, todo)
	return nil
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) error {
	rc := requestContextFrom(r)
	id, err := pathID(r)
	if err != nil {
		return err
	}

	sess, err := s.store.Session(r.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.DeleteTodo(r.Context(), id); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	rc.Logger.Info("deleted todo", "id", id, "elapsed", rc.Elapsed())
	w.WriteHeader(http.StatusNoContent)
	return nil
}
