// Package filter defines the operator-based filter document used to query
// graph entities, together with its normalizer and validator.
//
// A filter is an ordered document of property names and $-prefixed
// operators, in the style popularized by document databases:
//
//	{"age": {"$gt": 30}, "name": {"$contains": "a"}}
//
// PIPELINE:
//
// Raw documents pass through two structural transformations before they are
// compiled to Cypher:
//
//	[raw Doc] → Normalize → [canonical Doc] → Validate → [validated Doc]
//
// Normalize rewrites shorthand forms into explicit operators: bare scalar
// values become $eq comparisons, and sibling keys below the document root
// are grouped under an implicit $and. Normalization never rejects input.
//
// Validate type-checks every operator value against the operator registry.
// The default policy is lenient: a key whose value fails its constraint is
// dropped and reported as a diagnostic, and subtrees left empty by the
// removal are pruned. Strict mode turns the first dropped key into an error.
//
// ORDERED DOCUMENTS:
//
// Compilation assigns parameter names in traversal order, and traversal
// order must be the caller's declaration order. Go maps do not preserve
// insertion order, so filters are represented as Doc, an ordered slice of
// key/value entries. ParseJSON decodes JSON objects into Doc preserving
// key order; FromMap converts a plain map with sorted keys when declaration
// order is not available.
//
// Both Normalize and Validate are pure: they return new documents and never
// mutate their input, so a raw filter value may be reused across concurrent
// calls.
package filter
