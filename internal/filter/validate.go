package filter

import (
	"fmt"
	"log/slog"
)

// Diagnostic records a single key dropped during lenient validation.
type Diagnostic struct {
	// Operator is the key that was dropped.
	Operator string `json:"operator"`

	// Property is the property the key applied to, when one was in scope.
	Property string `json:"property,omitempty"`

	// Reason describes the constraint that failed.
	Reason string `json:"reason"`
}

// Result holds the validated document and the diagnostics collected while
// producing it.
type Result struct {
	// Doc is the validated document, possibly smaller than the input,
	// possibly empty.
	Doc Doc

	// Dropped lists every key removed by validation, in traversal order.
	Dropped []Diagnostic
}

// Validate type-checks each operator value of a canonical document against
// the operator registry and returns the validated document.
//
// The policy is lenient: a key whose value fails its constraint is dropped
// and recorded as a diagnostic, not an error, so slightly malformed filters
// degrade gracefully instead of aborting the query. After dropping,
// documents that became empty and logical-operand list elements that became
// empty are pruned recursively.
//
// Validating an already-validated document returns it unchanged.
func Validate(doc Doc) Result {
	v := &validator{}
	out := v.validateDoc(doc, "", 0)
	return Result{Doc: out, Dropped: v.dropped}
}

// ValidateStrict behaves like Validate but fails on the first key that
// would have been dropped.
func ValidateStrict(doc Doc) (Doc, error) {
	res := Validate(doc)
	if len(res.Dropped) > 0 {
		d := res.Dropped[0]
		return nil, &Error{
			Code:     ErrCodeInvalidOperatorValue,
			Message:  d.Reason,
			Operator: d.Operator,
			Property: d.Property,
		}
	}
	return res.Doc, nil
}

type validator struct {
	dropped []Diagnostic
}

func (v *validator) drop(operator, property, reason string) {
	v.dropped = append(v.dropped, Diagnostic{Operator: operator, Property: property, Reason: reason})
	slog.Debug("dropping invalid filter key",
		"operator", operator,
		"property", property,
		"reason", reason)
}

// validateDoc walks one document level. property is the nearest enclosing
// property name, carried for diagnostics only.
func (v *validator) validateDoc(doc Doc, property string, level int) Doc {
	// Raw-query documents are opaque to validation.
	if doc.Has(KeyRawQuery) || doc.Has(KeyRawParameters) {
		return doc
	}

	out := make(Doc, 0, len(doc))

	for _, e := range doc {
		if !IsOperator(e.Key) {
			// Property key: its value must be a nested operator document.
			nested, ok := e.Value.(Doc)
			if !ok {
				v.drop(e.Key, property, fmt.Sprintf("property value must be an operator document, got %T", e.Value))
				continue
			}
			validated := v.validateDoc(nested, e.Key, level+1)
			if len(validated) == 0 {
				continue
			}
			out = append(out, Entry{Key: e.Key, Value: validated})
			continue
		}

		spec, ok := Lookup(e.Key)
		if !ok {
			v.drop(e.Key, property, "unknown operator")
			continue
		}
		if spec.Category == CategoryIdentity && level != 0 {
			v.drop(e.Key, property, "identity operator is only valid at the filter root")
			continue
		}
		if err := spec.Validate(e.Value); err != nil {
			v.drop(e.Key, property, err.Error())
			continue
		}

		switch {
		case e.Key == "$size":
			// The shape check above already constrains the nested
			// comparison; keep it verbatim.
			out = append(out, e)

		case spec.Arity == AritySubtree:
			validated := v.validateDoc(e.Value.(Doc), property, level+1)
			if len(validated) == 0 {
				continue
			}
			out = append(out, Entry{Key: e.Key, Value: validated})

		case spec.Arity == ArityList:
			operands := e.Value.([]any)
			kept := make([]any, 0, len(operands))
			for _, operand := range operands {
				validated := v.validateDoc(operand.(Doc), property, level+1)
				if len(validated) == 0 {
					continue
				}
				kept = append(kept, validated)
			}
			if len(kept) == 0 {
				continue
			}
			out = append(out, Entry{Key: e.Key, Value: kept})

		default:
			out = append(out, e)
		}
	}

	return out
}
