// Package hydrate reconstructs object graphs from the flat tabular rows a
// graph query returns, and converts entity property bags to and from their
// storable form.
package hydrate

import (
	"encoding/json"
	"fmt"

	"github.com/grapnel-db/grapnel/internal/session"
)

// Entity is one hydrated graph entity. Related holds the entities fetched
// for each relationship property, keyed by property name. Ownership passes
// to the caller once hydration returns.
type Entity struct {
	ElementID  string               `json:"element_id"`
	ID         int64                `json:"id"`
	Labels     []string             `json:"labels"`
	Properties map[string]any       `json:"properties"`
	Related    map[string][]*Entity `json:"related,omitempty"`
}

// Inflater turns a raw database node into a typed entity. The default
// inflater parses stored JSON strings back into structured values; callers
// with model-specific decoding plug in their own.
type Inflater func(n *session.Node) (*Entity, error)

// Hydrate reassembles result rows into an object graph.
//
// Rows are aligned to aliases, with the primary entity in the first column
// and one column per relationship property after it. Graph fan-out
// duplicates the primary entity across rows, one per related entity; those
// rows collapse into a single entity per distinct element id, with each
// non-null related cell appended to its property's list exactly once.
// Row and column order are preserved; the database's result order is
// authoritative.
func Hydrate(rows [][]any, aliases []string, inflate Inflater) ([]*Entity, error) {
	if len(aliases) == 0 {
		return nil, fmt.Errorf("hydrate: alias list must not be empty")
	}
	if inflate == nil {
		inflate = Inflate
	}

	var (
		order    []*Entity
		roots    = map[string]*Entity{}
		attached = map[string]map[string]bool{} // root element id → "alias/related id"
	)

	for i, row := range rows {
		if len(row) != len(aliases) {
			return nil, fmt.Errorf("hydrate: row %d has %d columns, expected %d", i, len(row), len(aliases))
		}

		rootNode, ok := row[0].(*session.Node)
		if !ok || rootNode == nil {
			continue
		}

		root, seen := roots[rootNode.ElementID]
		if !seen {
			entity, err := inflate(rootNode)
			if err != nil {
				return nil, fmt.Errorf("hydrate: inflate %s: %w", rootNode.ElementID, err)
			}
			if entity.Related == nil {
				entity.Related = map[string][]*Entity{}
			}
			for _, alias := range aliases[1:] {
				entity.Related[alias] = []*Entity{}
			}
			roots[rootNode.ElementID] = entity
			attached[rootNode.ElementID] = map[string]bool{}
			order = append(order, entity)
			root = entity
		}

		for col, alias := range aliases[1:] {
			cell, ok := row[col+1].(*session.Node)
			if !ok || cell == nil {
				continue
			}

			key := alias + "/" + cell.ElementID
			if attached[rootNode.ElementID][key] {
				continue
			}

			related, err := inflate(cell)
			if err != nil {
				return nil, fmt.Errorf("hydrate: inflate %s: %w", cell.ElementID, err)
			}
			root.Related[alias] = append(root.Related[alias], related)
			attached[rootNode.ElementID][key] = true
		}
	}

	return order, nil
}

// Inflate is the default Inflater. Property values stored as JSON strings
// are parsed back into maps and lists; anything else passes through.
func Inflate(n *session.Node) (*Entity, error) {
	props := make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		switch val := v.(type) {
		case string:
			props[k] = tryParse(val)
		case []any:
			list := make([]any, len(val))
			for i, elem := range val {
				if s, ok := elem.(string); ok {
					list[i] = tryParse(s)
				} else {
					list[i] = elem
				}
			}
			props[k] = list
		default:
			props[k] = v
		}
	}

	return &Entity{
		ElementID:  n.ElementID,
		ID:         n.ID,
		Labels:     n.Labels,
		Properties: props,
		Related:    map[string][]*Entity{},
	}, nil
}

// tryParse returns the decoded value when s holds a JSON object or array,
// the string itself otherwise. Bare scalars stay strings so that "30"
// round-trips as text.
func tryParse(s string) any {
	if len(s) == 0 || (s[0] != '{' && s[0] != '[') {
		return s
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	return out
}

// Deflate converts a property bag into its storable form: nested maps and
// map-valued list elements are serialized to JSON strings, since graph
// properties only hold scalars and scalar lists.
func Deflate(props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case map[string]any:
			data, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("deflate %q: %w", k, err)
			}
			out[k] = string(data)
		case []any:
			list := make([]any, len(val))
			for i, elem := range val {
				if nested, ok := elem.(map[string]any); ok {
					data, err := json.Marshal(nested)
					if err != nil {
						return nil, fmt.Errorf("deflate %q[%d]: %w", k, i, err)
					}
					list[i] = string(data)
				} else {
					list[i] = elem
				}
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out, nil
}
