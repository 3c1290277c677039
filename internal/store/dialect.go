package store

import (
	"github.com/Masterminds/squirrel"
)

type dialect struct {
	name        string
	driver      string
	placeholder squirrel.PlaceholderFormat
	schema      string
}

var sqliteDialect = dialect{
	name:        "sqlite",
	driver:      "sqlite",
	placeholder: squirrel.Question,
	schema: `
		CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0
		);`,
}

var postgresDialect = dialect{
	name:        "postgres",
	driver:      "pgx",
	placeholder: squirrel.Dollar,
	schema: `
		CREATE TABLE IF NOT EXISTS todos (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE
		);`,
}

var todoColumns = []string{"id", "title", "completed"}

const returningTodo = "RETURNING id, title, completed"
