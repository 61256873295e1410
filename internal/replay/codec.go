package replay

import (
	"encoding/json"
	"fmt"

	"github.com/grapnel-db/grapnel/internal/session"
)

// Graph entities inside result rows need a marker to survive the JSON
// round trip; plain scalars encode as themselves.

type encodedNode struct {
	ElementID  string         `json:"element_id"`
	ID         int64          `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

const nodeMarker = "$node"

func encodeRows(rows [][]any) (string, error) {
	out := make([][]any, len(rows))
	for i, row := range rows {
		encoded := make([]any, len(row))
		for j, cell := range row {
			if n, ok := cell.(*session.Node); ok && n != nil {
				encoded[j] = map[string]any{nodeMarker: encodedNode{
					ElementID:  n.ElementID,
					ID:         n.ID,
					Labels:     n.Labels,
					Properties: n.Properties,
				}}
			} else {
				encoded[j] = cell
			}
		}
		out[i] = encoded
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	return string(data), nil
}

func decodeRows(data string) ([][]any, error) {
	var raw [][]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	for i, row := range raw {
		for j, cell := range row {
			obj, ok := cell.(map[string]any)
			if !ok {
				continue
			}
			marked, ok := obj[nodeMarker]
			if !ok {
				continue
			}
			node, err := decodeNode(marked)
			if err != nil {
				return nil, fmt.Errorf("decode rows: row %d col %d: %w", i, j, err)
			}
			raw[i][j] = node
		}
	}
	return raw, nil
}

func decodeNode(v any) (*session.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var enc encodedNode
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, err
	}
	return &session.Node{
		ElementID:  enc.ElementID,
		ID:         enc.ID,
		Labels:     enc.Labels,
		Properties: enc.Properties,
	}, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(data), nil
}

func decodeColumns(data string) ([]string, error) {
	var cols []string
	if err := json.Unmarshal([]byte(data), &cols); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return cols, nil
}
