package store

import (
	"fmt"
	"strings"

	"git.sr.ht/~jakintosh/todo/internal/domain"
	"github.com/charmbracelet/log"
)

type backend int

const (
	backendSQLite backend = iota
	backendPostgres
	backendMemory
)

// parseDatabaseURL picks a backend for url and returns the driver-level
// connection string. A bare path is treated as a SQLite file.
func parseDatabaseURL(url string) (backend, string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return 0, "", fmt.Errorf("database url is empty")
	}

	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		if path, found := strings.CutPrefix(url, "file:"); found {
			return backendSQLite, path, nil
		}
		return backendSQLite, url, nil
	}

	// SQLAlchemy-style URLs carry the driver after a plus sign.
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")

	switch scheme {
	case "sqlite", "sqlite3":
		// As in SQLAlchemy, sqlite:///todo.db is relative and
		// sqlite:////var/lib/todo.db is absolute.
		rest = strings.TrimPrefix(rest, "/")
		fallthrough
	case "file":
		if rest == "" {
			return 0, "", fmt.Errorf("database url %q has no path", url)
		}
		return backendSQLite, rest, nil
	case "postgres", "postgresql":
		return backendPostgres, "postgres://" + rest, nil
	case "memory":
		return backendMemory, "", nil
	default:
		return 0, "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Open returns the store described by url. The store is not initialized;
// call Init before serving.
func Open(url string, logger *log.Logger) (domain.Store, error) {
	b, dsn, err := parseDatabaseURL(url)
	if err != nil {
		return nil, err
	}

	var s *SQLStore
	switch b {
	case backendMemory:
		return NewInMemoryStore(), nil
	case backendPostgres:
		s, err = NewPostgresStore(dsn, logger)
	default:
		s, err = NewSQLiteStore(dsn, logger)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
