// Package bolt adapts the Neo4j Bolt driver to the session contract.
package bolt

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/grapnel-db/grapnel/internal/session"
)

// Config holds the connection settings for a Bolt endpoint.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database,omitempty"`
}

// Bolt is a session.Session backed by a Neo4j driver. The driver holds the
// connection pool; each Execute runs in a short-lived driver session.
type Bolt struct {
	driver   neo4j.DriverWithContext
	database string
}

// Open connects to the configured endpoint and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*Bolt, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("bolt: connection URI must not be empty")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("bolt: open driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("bolt: verify connectivity: %w", err)
	}

	return &Bolt{driver: driver, database: cfg.Database}, nil
}

// Execute runs one statement and collects all rows. Transport errors are
// returned as-is; nothing here retries or interprets them.
func (b *Bolt) Execute(ctx context.Context, query string, parameters map[string]any) (*session.Result, error) {
	sess := b.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: b.database})
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, query, parameters)
	if err != nil {
		return nil, fmt.Errorf("bolt: run: %w", err)
	}

	keys, err := res.Keys()
	if err != nil {
		return nil, fmt.Errorf("bolt: keys: %w", err)
	}

	out := &session.Result{Columns: keys}
	for res.Next(ctx) {
		record := res.Record()
		row := make([]any, len(record.Values))
		for i, value := range record.Values {
			row[i] = convertValue(value)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("bolt: consume: %w", err)
	}

	return out, nil
}

// Close shuts down the underlying driver and its connection pool.
func (b *Bolt) Close(ctx context.Context) error {
	return b.driver.Close(ctx)
}

// convertValue maps driver values onto the transport-neutral types the
// hydrator understands. Nodes become *session.Node; lists convert
// elementwise; everything else passes through.
func convertValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return &session.Node{
			ElementID:  v.ElementId,
			ID:         v.Id,
			Labels:     v.Labels,
			Properties: v.Props,
		}
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = convertValue(elem)
		}
		return out
	default:
		return value
	}
}
