package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/opticshop/backend/internal/client"
)

// ErrSuperseded is returned by a fetch that a newer one replaced.
var ErrSuperseded = errors.New("listing: fetch superseded")

// Fetcher runs at most one collection fetch at a time: starting a new one
// cancels the previous, whose result is discarded.
type Fetcher[T any] struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (f *Fetcher[T]) Fetch(ctx context.Context, load Loader[T]) ([]client.Row[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	mine := f.seq
	f.cancel = cancel
	f.mu.Unlock()

	rows, err := load(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	cancel()
	if mine != f.seq {
		return nil, ErrSuperseded
	}
	f.cancel = nil
	return rows, err
}
