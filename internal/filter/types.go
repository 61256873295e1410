package filter

import (
	"sort"
	"strings"
)

// Entry is a single key/value pair in a filter document. The key is either
// a property name or a $-prefixed operator; the value is a scalar, a nested
// Doc, or a []any list whose elements may themselves be Docs.
type Entry struct {
	Key   string
	Value any
}

// Doc is an ordered filter document. Unlike a Go map, a Doc preserves the
// declaration order of its keys, which determines parameter numbering
// during compilation.
type Doc []Entry

// OperatorPrefix is the sigil that distinguishes operators from property
// names.
const OperatorPrefix = "$"

// Reserved keys marking a raw-query escape hatch. Documents containing
// either key are passed through untouched by the normalizer.
const (
	KeyRawQuery      = "$query"
	KeyRawParameters = "$parameters"
)

// IsOperator reports whether key carries the operator sigil.
func IsOperator(key string) bool {
	return strings.HasPrefix(key, OperatorPrefix)
}

// Get returns the value for the first entry with the given key.
func (d Doc) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether the document contains the given key.
func (d Doc) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Keys returns the document keys in declaration order.
func (d Doc) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// FromMap converts a plain map into a Doc. Map iteration order is not
// stable, so keys are sorted to keep the resulting document, and therefore
// compiled parameter names, deterministic. Nested maps and []any lists are
// converted recursively.
func FromMap(m map[string]any) Doc {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(Doc, 0, len(m))
	for _, k := range keys {
		doc = append(doc, Entry{Key: k, Value: fromValue(m[k])})
	}
	return doc
}

func fromValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return FromMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = fromValue(elem)
		}
		return out
	default:
		return v
	}
}

// isDoc reports whether v is a nested document.
func isDoc(v any) bool {
	_, ok := v.(Doc)
	return ok
}

// isList reports whether v is a list value.
func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}
