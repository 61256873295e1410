package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/grapnel-db/grapnel/internal/session"
)

// Recorder is a session.Session that forwards every statement to an inner
// session and persists the exchange. Recording order is the execution
// order; each exchange gets a UUIDv7 id so recordings merge cleanly when
// collected from multiple runs.
type Recorder struct {
	inner session.Session
	store *Store

	mu  sync.Mutex
	seq int64
}

// NewRecorder wraps an inner session with a recording store.
func NewRecorder(inner session.Session, store *Store) *Recorder {
	return &Recorder{inner: inner, store: store}
}

// Execute runs the statement on the inner session and records the result.
// A failed statement is not recorded; replay only serves successful
// exchanges.
func (r *Recorder) Execute(ctx context.Context, query string, parameters map[string]any) (*session.Result, error) {
	result, err := r.inner.Execute(ctx, query, parameters)
	if err != nil {
		return nil, err
	}

	params, err := encodeJSON(parameters)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	columns, err := encodeJSON(result.Columns)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	rows, err := encodeRows(result.Rows)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	r.mu.Lock()
	seq := r.seq
	r.seq++
	r.mu.Unlock()

	err = r.store.insertExchange(ctx, exchange{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Seq:     seq,
		Query:   query,
		Params:  params,
		Columns: columns,
		Rows:    rows,
	})
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	return result, nil
}

// Close closes the inner session and the recording store.
func (r *Recorder) Close(ctx context.Context) error {
	err := r.inner.Close(ctx)
	if storeErr := r.store.Close(); err == nil {
		err = storeErr
	}
	return err
}
