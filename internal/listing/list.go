// Package listing implements the searchable, paginated tables of the
// back-office and their delete flow.
package listing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/opticshop/backend/internal/client"
)

const DefaultPageSize = 10

var (
	ErrNoConfirmation = errors.New("listing: no delete awaiting confirmation")
	ErrDeletePending  = errors.New("listing: delete already in progress")
	ErrNotDeletable   = errors.New("listing: row has no genuine id")
	ErrUnknownRow     = errors.New("listing: unknown row")
)

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

type Notice struct {
	Kind NoticeKind
	Text string
}

const (
	noticeDeleted      = "Élément supprimé avec succès"
	noticeNotDeletable = "Impossible de supprimer cet élément : identifiant invalide"
)

// Loader fetches a collection.
type Loader[T any] func(ctx context.Context) ([]client.Row[T], error)

// Deleter deletes a record by its genuine id.
type Deleter func(ctx context.Context, id int64) error

// List is the state of one table. It is safe for concurrent use.
type List[T any] struct {
	mu       sync.Mutex
	fields   func(T) []string
	pageSize int
	rows     []client.Row[T]
	query    string
	page     int
	pending  map[string]bool
	confirm  string
	loadErr  error
	loader   Loader[T]
	fetcher  Fetcher[T]
}

// New builds a list searching the strings fields returns for each record.
func New[T any](fields func(T) []string, pageSize int) *List[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &List[T]{fields: fields, pageSize: pageSize, page: 1, pending: map[string]bool{}}
}

// Load replaces the rows with a fresh fetch. A failure is kept as state
// so the view can offer Retry; a superseded fetch changes nothing.
func (l *List[T]) Load(ctx context.Context, load Loader[T]) error {
	l.mu.Lock()
	l.loader = load
	l.mu.Unlock()

	rows, err := l.fetcher.Fetch(ctx, load)
	if errors.Is(err, ErrSuperseded) {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.loadErr = err
		return err
	}
	l.loadErr = nil
	l.rows = rows
	l.clampPage()
	return nil
}

// Retry repeats the last Load.
func (l *List[T]) Retry(ctx context.Context) error {
	l.mu.Lock()
	load := l.loader
	l.mu.Unlock()
	if load == nil {
		return errors.New("listing: nothing to retry")
	}
	return l.Load(ctx, load)
}

func (l *List[T]) LoadError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadErr
}

// SetRows replaces the rows without fetching.
func (l *List[T]) SetRows(rows []client.Row[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append([]client.Row[T](nil), rows...)
	l.clampPage()
}

func (l *List[T]) Rows() []client.Row[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]client.Row[T](nil), l.rows...)
}

// SetQuery changes the search term and goes back to page 1.
func (l *List[T]) SetQuery(q string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = q
	l.page = 1
}

func (l *List[T]) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Filtered returns the rows matching the search term.
func (l *List[T]) Filtered() []client.Row[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filtered()
}

func (l *List[T]) filtered() []client.Row[T] {
	q := strings.ToLower(strings.TrimSpace(l.query))
	if q == "" {
		return append([]client.Row[T](nil), l.rows...)
	}
	out := make([]client.Row[T], 0, len(l.rows))
	for _, r := range l.rows {
		for _, s := range l.fields(r.Record) {
			if strings.Contains(strings.ToLower(s), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (l *List[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// PageCount is at least 1.
func (l *List[T]) PageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageCount()
}

func (l *List[T]) pageCount() int {
	n := len(l.filtered())
	if n == 0 {
		return 1
	}
	return (n + l.pageSize - 1) / l.pageSize
}

// SetPage moves to page k, clamped to the available pages.
func (l *List[T]) SetPage(k int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = k
	l.clampPage()
}

func (l *List[T]) clampPage() {
	if last := l.pageCount(); l.page > last {
		l.page = last
	}
	if l.page < 1 {
		l.page = 1
	}
}

// Visible returns filtered[(page-1)*size : page*size].
func (l *List[T]) Visible() []client.Row[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := l.filtered()
	start := (l.page - 1) * l.pageSize
	if start >= len(rows) {
		return []client.Row[T]{}
	}
	end := start + l.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func (l *List[T]) find(key string) (client.Row[T], bool) {
	for _, r := range l.rows {
		if r.Key == key {
			return r, true
		}
	}
	return client.Row[T]{}, false
}

// RequestDelete starts the delete flow for the row under key. Malformed rows
// stop here with a notice; otherwise the row awaits ConfirmDelete.
func (l *List[T]) RequestDelete(key string) (*Notice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.find(key)
	if !ok {
		return nil, ErrUnknownRow
	}
	if !row.Deletable() {
		return &Notice{Kind: NoticeError, Text: noticeNotDeletable}, ErrNotDeletable
	}
	l.confirm = key
	return nil, nil
}

// AwaitingConfirmation returns the key of the row waiting for confirmation.
func (l *List[T]) AwaitingConfirmation() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.confirm
}

func (l *List[T]) CancelDelete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirm = ""
}

// ConfirmDelete sends the delete for the confirmed row. While it runs the row
// is pending and further deletes of it are ignored.
func (l *List[T]) ConfirmDelete(ctx context.Context, del Deleter) (*Notice, error) {
	l.mu.Lock()
	key := l.confirm
	if key == "" {
		l.mu.Unlock()
		return nil, ErrNoConfirmation
	}
	if l.pending[key] {
		l.mu.Unlock()
		return nil, ErrDeletePending
	}
	row, ok := l.find(key)
	if !ok {
		l.confirm = ""
		l.mu.Unlock()
		return nil, ErrUnknownRow
	}
	l.confirm = ""
	l.pending[key] = true
	l.mu.Unlock()

	err := del(ctx, row.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, key)
	if err != nil {
		return &Notice{Kind: NoticeError, Text: client.UserMessage(err)}, err
	}
	for i, r := range l.rows {
		if r.Key == key {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			break
		}
	}
	l.clampPage()
	return &Notice{Kind: NoticeSuccess, Text: noticeDeleted}, nil
}

// Pending reports whether a delete of the row is in progress.
func (l *List[T]) Pending(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending[key]
}
