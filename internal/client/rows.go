package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// ErrMalformedPayload means a list endpoint answered with neither an array
// nor an object wrapping one under "data".
var ErrMalformedPayload = errors.New("malformed list payload")

// Row is one normalized record of a collection. A Malformed row lacked a
// genuine positive integer id; it can be rendered under Key but never
// deleted or opened for editing.
type Row[T any] struct {
	ID        int64
	Key       string
	Malformed bool
	Record    T
}

// Deletable reports whether the row may be sent to a delete endpoint.
func (r Row[T]) Deletable() bool {
	return !r.Malformed && r.ID > 0
}

// listItems accepts `[...]`, `{"data":[...]}` and the envelope around either.
func listItems(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	for depth := 0; depth < 3; depth++ {
		if len(body) == 0 {
			return nil, ErrMalformedPayload
		}
		switch body[0] {
		case '[':
			var items []json.RawMessage
			if err := json.Unmarshal(body, &items); err != nil {
				return nil, ErrMalformedPayload
			}
			return items, nil
		case '{':
			var obj struct {
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(body, &obj); err != nil || len(obj.Data) == 0 {
				return nil, ErrMalformedPayload
			}
			body = bytes.TrimSpace(obj.Data)
		default:
			return nil, ErrMalformedPayload
		}
	}
	return nil, ErrMalformedPayload
}

// genuineID returns the positive integer id of a raw record, if it has one.
// Numeric strings are accepted.
func genuineID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// PlaceholderKey derives the render key of a malformed row.
func PlaceholderKey(index int, name string, fetchedAt time.Time) string {
	s := slug.Make(name)
	if s == "" {
		s = "sans-nom"
	}
	return fmt.Sprintf("placeholder-%d-%s-%d", index, s, fetchedAt.UnixMilli())
}

// normalizeRows decodes each item into T. The id is read separately so a
// non-numeric id never prevents the rest of the record from decoding.
// Only the first row carrying a given id keeps it; repeats are malformed.
func normalizeRows[T any](items []json.RawMessage, fetchedAt time.Time, setID func(*T, int64)) []Row[T] {
	rows := make([]Row[T], 0, len(items))
	seen := make(map[int64]bool, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			rows = append(rows, Row[T]{Key: PlaceholderKey(i, "", fetchedAt), Malformed: true})
			continue
		}

		var name string
		if raw, ok := fields["name"]; ok {
			_ = json.Unmarshal(raw, &name)
		}

		id, hasID := genuineID(fields["id"])
		delete(fields, "id")

		row := Row[T]{}
		stripped, _ := json.Marshal(fields)
		decodeErr := json.Unmarshal(stripped, &row.Record)

		if hasID && decodeErr == nil && !seen[id] {
			seen[id] = true
			row.ID = id
			row.Key = strconv.FormatInt(id, 10)
			if setID != nil {
				setID(&row.Record, id)
			}
		} else {
			row.Malformed = true
			row.Key = PlaceholderKey(i, name, fetchedAt)
		}
		rows = append(rows, row)
	}
	return rows
}
