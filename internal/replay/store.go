// Package replay records the exchanges of a live session into SQLite and
// plays them back later, so the full query pipeline runs in tests and
// offline tooling without a graph database.
package replay

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite file holding recorded exchanges.
// Uses WAL mode for concurrent read access while recording.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens a recording database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing recording.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect recording: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY during recording.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the recording database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// insertExchange persists one recorded exchange.
func (s *Store) insertExchange(ctx context.Context, e exchange) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, seq, query, params, columns, result_rows) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Seq, e.Query, e.Params, e.Columns, e.Rows)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// readExchanges returns all recorded exchanges in sequence order.
func (s *Store) readExchanges(ctx context.Context) ([]exchange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, query, params, columns, result_rows FROM exchanges ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("read exchanges: %w", err)
	}
	defer rows.Close()

	var out []exchange
	for rows.Next() {
		var e exchange
		if err := rows.Scan(&e.ID, &e.Seq, &e.Query, &e.Params, &e.Columns, &e.Rows); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read exchanges: %w", err)
	}
	return out, nil
}

// exchange is one recorded statement and its serialized result.
type exchange struct {
	ID      string
	Seq     int64
	Query   string
	Params  string
	Columns string
	Rows    string
}
