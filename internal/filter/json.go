package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseJSON decodes a JSON object into a Doc, preserving object key order.
//
// The standard library decodes objects into unordered maps, which would
// destroy the declaration order that parameter numbering depends on, so
// this parser walks the token stream directly. Integers decode to int64 and
// other numbers to float64.
func ParseJSON(data []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse filter: expected JSON object, got %v", tok)
	}

	doc, err := parseObject(dec)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}

	if dec.More() {
		return nil, fmt.Errorf("parse filter: trailing data after document")
	}
	return doc, nil
}

// parseObject consumes entries up to and including the closing brace. The
// opening brace has already been consumed by the caller.
func parseObject(dec *json.Decoder) (Doc, error) {
	doc := Doc{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return doc, nil
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		value, err := parseValue(dec)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		doc = append(doc, Entry{Key: key, Value: value})
	}
}

// parseArray consumes elements up to and including the closing bracket.
func parseArray(dec *json.Decoder) ([]any, error) {
	list := []any{}

	for dec.More() {
		value, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		list = append(list, value)
	}

	// Consume the closing bracket.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch val := tok.(type) {
	case json.Delim:
		switch val {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", val)
		}
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return f, nil
	default:
		// string, bool or nil
		return val, nil
	}
}
