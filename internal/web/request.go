package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"git.sr.ht/~jakintosh/todo/internal/domain"
)

const maxBodyBytes = 1 << 20

// requestBody is a loosely typed JSON object. Anything that does not decode
// to an object is treated as an empty one.
type requestBody map[string]json.RawMessage

func decodeBody(r *http.Request) requestBody {
	body := requestBody{}
	if r.Body == nil {
		return body
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return body
	}
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return requestBody{}
	}
	return body
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// title reports the "title" member. A null title is present and empty.
func (b requestBody) title() (title string, present bool, err error) {
	raw, ok := b["title"]
	if !ok {
		return "", false, nil
	}
	if isNull(raw) {
		return "", true, nil
	}
	if err := json.Unmarshal(raw, &title); err != nil {
		return "", true, &domain.ValidationError{Field: "title", Message: "title must be a string"}
	}
	return title, true, nil
}

// completed reports the truthiness of the "completed" member.
func (b requestBody) completed() (value bool, present bool) {
	raw, ok := b["completed"]
	if !ok {
		return false, false
	}
	return truthy(raw), true
}

// truthy treats false, null, 0, "", [] and {} as false and everything else
// as true.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// patch builds a TodoPatch from the body, validating a present title.
func (b requestBody) patch() (domain.TodoPatch, error) {
	var p domain.TodoPatch

	title, present, err := b.title()
	if err != nil {
		return p, err
	}
	if present {
		normalized, err := domain.NormalizeTitle(title)
		if err != nil {
			return p, err
		}
		p.Title = &normalized
	}

	if completed, ok := b.completed(); ok {
		p.Completed = &completed
	}
	return p, nil
}

// pathID parses the {id} path value. Ids that cannot exist report not found.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid todo id %q: %w", raw, domain.ErrNotFound)
	}
	return id, nil
}
