package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxTitleLength matches the VARCHAR(255) title column.
const MaxTitleLength = 255

type Todo struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TodoPatch is a partial update. A nil field is left untouched; a non-nil
// field always overwrites, even when the value is unchanged.
type TodoPatch struct {
	Title     *string
	Completed *bool
}

func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// NormalizeTitle trims surrounding whitespace and checks the result is a
// usable title.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "title cannot be empty"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", &ValidationError{Field: "title", Message: "title must be at most 255 characters"}
	}
	return title, nil
}
