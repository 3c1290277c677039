package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"git.sr.ht/~jakintosh/todo/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

// runStoreSuite exercises the persistence contract against any Store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Run("empty list", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		todos, err := sess.ListTodos(context.Background())
		if err != nil {
			t.Fatalf("ListTodos: %v", err)
		}
		if todos == nil || len(todos) != 0 {
			t.Errorf("ListTodos: got %v, want empty non-nil slice", todos)
		}
	})

	t.Run("create assigns increasing ids and trims", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		ctx := context.Background()

		a := mustCreate(t, sess, "A")
		b := mustCreate(t, sess, "  B  ")
		if b.ID <= a.ID {
			t.Errorf("ids not increasing: %d then %d", a.ID, b.ID)
		}
		if diff := cmp.Diff(&domain.Todo{ID: b.ID, Title: "B"}, b); diff != "" {
			t.Errorf("created todo mismatch (-want +got):\n%s", diff)
		}

		todos, err := sess.ListTodos(ctx)
		if err != nil {
			t.Fatalf("ListTodos: %v", err)
		}
		want := []*domain.Todo{
			{ID: b.ID, Title: "B"},
			{ID: a.ID, Title: "A"},
		}
		if diff := cmp.Diff(want, todos); diff != "" {
			t.Errorf("ListTodos mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("create rejects blank title", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		ctx := context.Background()
		for _, title := range []string{"", "   "} {
			if _, err := sess.CreateTodo(ctx, title); !domain.IsValidation(err) {
				t.Errorf("CreateTodo(%q): got %v, want validation error", title, err)
			}
		}
		todos, _ := sess.ListTodos(ctx)
		if len(todos) != 0 {
			t.Errorf("blank titles created %d records", len(todos))
		}
	})

	t.Run("get", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		ctx := context.Background()
		created := mustCreate(t, sess, "Buy milk")

		got, err := sess.GetTodo(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetTodo: %v", err)
		}
		if diff := cmp.Diff(created, got); diff != "" {
			t.Errorf("GetTodo mismatch (-want +got):\n%s", diff)
		}

		missing, err := sess.GetTodo(ctx, created.ID+100)
		if err != nil {
			t.Fatalf("GetTodo missing: unexpected error %v", err)
		}
		if missing != nil {
			t.Errorf("GetTodo missing: got %v, want nil", missing)
		}
	})

	t.Run("update applies only present fields", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		ctx := context.Background()
		created := mustCreate(t, sess, "Walk dog")

		got, err := sess.UpdateTodo(ctx, created.ID, domain.TodoPatch{Completed: ptr(true)})
		if err != nil {
			t.Fatalf("UpdateTodo completed: %v", err)
		}
		if diff := cmp.Diff(&domain.Todo{ID: created.ID, Title: "Walk dog", Completed: true}, got); diff != "" {
			t.Errorf("UpdateTodo completed mismatch (-want +got):\n%s", diff)
		}

		got, err = sess.UpdateTodo(ctx, created.ID, domain.TodoPatch{Title: ptr(" Walk cat ")})
		if err != nil {
			t.Fatalf("UpdateTodo title: %v", err)
		}
		if diff := cmp.Diff(&domain.Todo{ID: created.ID, Title: "Walk cat", Completed: true}, got); diff != "" {
			t.Errorf("UpdateTodo title mismatch (-want +got):\n%s", diff)
		}

		got, err = sess.UpdateTodo(ctx, created.ID, domain.TodoPatch{})
		if err != nil {
			t.Fatalf("UpdateTodo empty: %v", err)
		}
		if got.Title != "Walk cat" || !got.Completed {
			t.Errorf("UpdateTodo empty patch changed record: %+v", got)
		}

		stored, _ := sess.GetTodo(ctx, created.ID)
		if diff := cmp.Diff(got, stored); diff != "" {
			t.Errorf("stored record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("update errors", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		ctx := context.Background()
		created := mustCreate(t, sess, "Keep me")

		if _, err := sess.UpdateTodo(ctx, created.ID+100, domain.TodoPatch{Completed: ptr(true)}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("UpdateTodo missing: got %v, want ErrNotFound", err)
		}
		if _, err := sess.UpdateTodo(ctx, created.ID+100, domain.TodoPatch{}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("UpdateTodo missing empty patch: got %v, want ErrNotFound", err)
		}
		_, err := sess.UpdateTodo(ctx, created.ID, domain.TodoPatch{Title: ptr("  "), Completed: ptr(true)})
		if !domain.IsValidation(err) {
			t.Errorf("UpdateTodo blank title: got %v, want validation error", err)
		}

		stored, _ := sess.GetTodo(ctx, created.ID)
		if diff := cmp.Diff(created, stored); diff != "" {
			t.Errorf("rejected update left changes (-want +got):\n%s", diff)
		}
	})

	t.Run("delete", func(t *testing.T) {
		sess := openSession(t, newStore(t))
		ctx := context.Background()
		a := mustCreate(t, sess, "A")
		b := mustCreate(t, sess, "B")

		if err := sess.DeleteTodo(ctx, a.ID); err != nil {
			t.Fatalf("DeleteTodo: %v", err)
		}
		if got, _ := sess.GetTodo(ctx, a.ID); got != nil {
			t.Errorf("deleted todo still found: %+v", got)
		}
		if err := sess.DeleteTodo(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("DeleteTodo twice: got %v, want ErrNotFound", err)
		}

		todos, _ := sess.ListTodos(ctx)
		if diff := cmp.Diff([]*domain.Todo{b}, todos); diff != "" {
			t.Errorf("ListTodos after delete (-want +got):\n%s", diff)
		}

		c := mustCreate(t, sess, "C")
		if c.ID <= b.ID {
			t.Errorf("id reused after delete: got %d, want > %d", c.ID, b.ID)
		}
	})

	t.Run("concurrent sessions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sess, err := s.Session(ctx)
				if err != nil {
					errs <- err
					return
				}
				defer sess.Close()
				if _, err := sess.CreateTodo(ctx, "parallel"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent create: %v", err)
		}

		todos, _ := openSession(t, s).ListTodos(ctx)
		if len(todos) != n {
			t.Fatalf("got %d todos, want %d", len(todos), n)
		}
		for i := 1; i < len(todos); i++ {
			if todos[i-1].ID <= todos[i].ID {
				t.Errorf("list not newest-first at %d: %d then %d", i, todos[i-1].ID, todos[i].ID)
			}
		}
	})
}

func openSession(t *testing.T, s domain.Store) domain.Session {
	t.Helper()
	sess, err := s.Session(context.Background())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func mustCreate(t *testing.T, sess domain.Session, title string) *domain.Todo {
	t.Helper()
	todo, err := sess.CreateTodo(context.Background(), title)
	if err != nil {
		t.Fatalf("CreateTodo(%q): %v", title, err)
	}
	return todo
}
