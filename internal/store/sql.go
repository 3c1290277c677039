package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"git.sr.ht/~jakintosh/todo/internal/domain"
	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore persists todos in a SQL database. SQLite and PostgreSQL are
// supported; they differ only in driver, placeholders and schema.
type SQLStore struct {
	db       *sql.DB
	dialect  dialect
	sq       squirrel.StatementBuilderType
	lockPath string
	logger   *log.Logger
}

// NewSQLiteStore opens the SQLite database file at path.
func NewSQLiteStore(path string, logger *log.Logger) (*SQLStore, error) {
	s, err := openSQL(sqliteDialect, sqliteDSN(path), logger)
	if err != nil {
		return nil, err
	}
	file, _, _ := strings.Cut(path, "?")
	s.lockPath = file + ".lock"
	return s, nil
}

// NewPostgresStore opens a PostgreSQL database through pgx.
func NewPostgresStore(dsn string, logger *log.Logger) (*SQLStore, error) {
	return openSQL(postgresDialect, dsn, logger)
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func openSQL(d dialect, dsn string, logger *log.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(d.placeholder),
		logger:  logger,
	}, nil
}

// Init creates the todos table if it does not exist yet.
func (s *SQLStore) Init(ctx context.Context) error {
	migrate := func() error {
		if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
			return &domain.StorageError{Op: "create schema", Err: err}
		}
		return nil
	}

	if s.lockPath == "" {
		return migrate()
	}
	return withFileLock(ctx, s.lockPath, migrate)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Session pins a pooled connection for the lifetime of one request.
func (s *SQLStore) Session(ctx context.Context) (domain.Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "acquire session", Err: err}
	}
	return &sqlSession{conn: conn, sq: s.sq, logger: s.logger}, nil
}

type sqlSession struct {
	conn   *sql.Conn
	sq     squirrel.StatementBuilderType
	logger *log.Logger
}

func (s *sqlSession) Close() error {
	return s.conn.Close()
}

func (s *sqlSession) logQuery(op, query string, args []any) {
	s.logger.Debug("sql query", "op", op, "sql", query, "args", args)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var t domain.Todo
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Completed,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *sqlSession) ListTodos(ctx context.Context) ([]*domain.Todo, error) {
	const op = "list todos"
	query, args, err := s.sq.
		Select(todoColumns...).
		From("todos").
		OrderBy("id DESC").
		ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	s.logQuery(op, query, args)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	todos := []*domain.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, &domain.StorageError{Op: op, Err: err}
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	return todos, nil
}

func (s *sqlSession) CreateTodo(ctx context.Context, title string) (*domain.Todo, error) {
	const op = "create todo"
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	query, args, err := s.sq.
		Insert("todos").
		Columns("title", "completed").
		Values(title, false).
		Suffix(returningTodo).
		ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	defer tx.Rollback()

	s.logQuery(op, query, args)
	created, err := scanTodo(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	return created, nil
}

func (s *sqlSession) GetTodo(ctx context.Context, id int64) (*domain.Todo, error) {
	t, err := s.getTodo(ctx, s.conn, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "get todo", Err: err}
	}
	return t, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlSession) getTodo(ctx context.Context, q queryRower, id int64) (*domain.Todo, error) {
	query, args, err := s.sq.
		Select(todoColumns...).
		From("todos").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	s.logQuery("get todo", query, args)

	t, err := scanTodo(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *sqlSession) UpdateTodo(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	const op = "update todo"
	if patch.Title != nil {
		title, err := domain.NormalizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	defer tx.Rollback()

	var updated *domain.Todo
	if patch.IsEmpty() {
		updated, err = s.getTodo(ctx, tx, id)
		if err != nil {
			return nil, &domain.StorageError{Op: op, Err: err}
		}
		if updated == nil {
			return nil, domain.ErrNotFound
		}
	} else {
		update := s.sq.Update("todos")
		if patch.Title != nil {
			update = update.Set("title", *patch.Title)
		}
		if patch.Completed != nil {
			update = update.Set("completed", *patch.Completed)
		}
		query, args, err := update.
			Where(squirrel.Eq{"id": id}).
			Suffix(returningTodo).
			ToSql()
		if err != nil {
			return nil, &domain.StorageError{Op: op, Err: err}
		}
		s.logQuery(op, query, args)

		updated, err = scanTodo(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, &domain.StorageError{Op: op, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	return updated, nil
}

func (s *sqlSession) DeleteTodo(ctx context.Context, id int64) error {
	const op = "delete todo"
	query, args, err := s.sq.
		Delete("todos").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	defer tx.Rollback()

	s.logQuery(op, query, args)
	var removed int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&removed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return &domain.StorageError{Op: op, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	return nil
}
