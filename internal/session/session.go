// Package session defines the transport-neutral contract between the query
// layer and a graph database: a Session executes one parameterized
// statement and returns tabular rows whose cells are scalars or graph
// entities. Implementations live in the bolt and replay packages.
package session

import "context"

// Node is one graph entity as returned by the database: a stable identity
// plus a property bag. The element id is the engine-assigned identifier
// used to deduplicate entities across result rows.
type Node struct {
	ElementID  string
	ID         int64
	Labels     []string
	Properties map[string]any
}

// Result is the tabular outcome of one statement: column aliases in
// request order and rows aligned to them. Cells are either *Node values or
// plain scalars; nil marks an absent optional match.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Session executes statements against a graph database. Implementations
// surface transport errors uninterpreted; nothing in this layer retries.
type Session interface {
	Execute(ctx context.Context, query string, parameters map[string]any) (*Result, error)
	Close(ctx context.Context) error
}
