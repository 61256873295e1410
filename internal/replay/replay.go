package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/grapnel-db/grapnel/internal/session"
)

// Replayer is a session.Session serving recorded exchanges in their
// original order. Each Execute consumes the next exchange and verifies the
// statement text matches what was recorded; a mismatch means the code under
// test drifted from the recording and is reported as an error rather than
// papered over.
type Replayer struct {
	mu        sync.Mutex
	exchanges []exchange
	next      int
}

// NewReplayer loads all exchanges from a recording store.
func NewReplayer(ctx context.Context, store *Store) (*Replayer, error) {
	exchanges, err := store.readExchanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return &Replayer{exchanges: exchanges}, nil
}

// Execute serves the next recorded exchange.
func (r *Replayer) Execute(ctx context.Context, query string, parameters map[string]any) (*session.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.exchanges) {
		return nil, fmt.Errorf("replay: recording exhausted after %d exchanges", len(r.exchanges))
	}

	e := r.exchanges[r.next]
	if e.Query != query {
		return nil, fmt.Errorf("replay: exchange %d query mismatch:\nrecorded: %s\nexecuted: %s", r.next, e.Query, query)
	}
	r.next++

	columns, err := decodeColumns(e.Columns)
	if err != nil {
		return nil, fmt.Errorf("replay: exchange %d: %w", e.Seq, err)
	}
	rows, err := decodeRows(e.Rows)
	if err != nil {
		return nil, fmt.Errorf("replay: exchange %d: %w", e.Seq, err)
	}

	return &session.Result{Columns: columns, Rows: rows}, nil
}

// Remaining returns the number of exchanges not yet served.
func (r *Replayer) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.exchanges) - r.next
}

// Close is a no-op; the recording store is owned by the caller.
func (r *Replayer) Close(ctx context.Context) error {
	return nil
}
