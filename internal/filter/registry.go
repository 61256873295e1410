package filter

import "fmt"

// Category classifies an operator by how it is compiled.
type Category int

const (
	// CategoryComparison operators compare a property against a bound
	// parameter ($eq, $gt, $contains, ...).
	CategoryComparison Category = iota

	// CategoryLogical operators join a list of operand subtrees with an
	// infix keyword ($and, $or, $xor).
	CategoryLogical

	// CategoryIdentity operators filter on engine-assigned identity and
	// are only legal at the root of a filter ($elementId, $id, $labels).
	CategoryIdentity

	// CategoryStructural operators reshape the predicate around a nested
	// subtree ($not, $size, $all, $exists).
	CategoryStructural
)

// Arity describes the shape an operator's value must have.
type Arity int

const (
	// ArityScalar operators take a single literal value.
	ArityScalar Arity = iota

	// ArityList operators take a list of operand subtrees.
	ArityList

	// AritySubtree operators take a single nested document.
	AritySubtree
)

// OperatorSpec describes one registered operator: how it is categorized,
// the shape of its value, the Cypher template it expands to, and the
// type constraint its value must satisfy.
//
// Templates are fmt format strings with two operands: the variable the
// predicate applies to, and the parameter placeholder. Logical operators
// store their infix keyword instead of a template.
type OperatorSpec struct {
	Category Category
	Arity    Arity
	Template string
	Validate func(value any) error
}

// operators is the registry table. Populated once at package init via the
// literal below; never mutated afterwards.
var operators = map[string]OperatorSpec{
	// Comparison operators.
	"$eq":          {CategoryComparison, ArityScalar, "%s = %s", scalarOrList},
	"$neq":         {CategoryComparison, ArityScalar, "%s <> %s", scalarOrList},
	"$gt":          {CategoryComparison, ArityScalar, "%s > %s", numericValue},
	"$gte":         {CategoryComparison, ArityScalar, "%s >= %s", numericValue},
	"$lt":          {CategoryComparison, ArityScalar, "%s < %s", numericValue},
	"$lte":         {CategoryComparison, ArityScalar, "%s <= %s", numericValue},
	"$in":          {CategoryComparison, ArityScalar, "%s IN %s", scalarOrList},
	"$nin":         {CategoryComparison, ArityScalar, "NOT %s IN %s", scalarOrList},
	"$contains":    {CategoryComparison, ArityScalar, "%s CONTAINS %s", stringValue},
	"$icontains":   {CategoryComparison, ArityScalar, "toLower(%s) CONTAINS toLower(%s)", stringValue},
	"$startsWith":  {CategoryComparison, ArityScalar, "%s STARTS WITH %s", stringValue},
	"$istartsWith": {CategoryComparison, ArityScalar, "toLower(%s) STARTS WITH toLower(%s)", stringValue},
	"$endsWith":    {CategoryComparison, ArityScalar, "%s ENDS WITH %s", stringValue},
	"$iendsWith":   {CategoryComparison, ArityScalar, "toLower(%s) ENDS WITH toLower(%s)", stringValue},
	"$regex":       {CategoryComparison, ArityScalar, "%s =~ %s", stringValue},

	// Logical operators. Template holds the infix keyword.
	"$and": {CategoryLogical, ArityList, "AND", operandList},
	"$or":  {CategoryLogical, ArityList, "OR", operandList},
	"$xor": {CategoryLogical, ArityList, "XOR", operandList},

	// Identity operators, root-level only.
	"$elementId": {CategoryIdentity, ArityScalar, "elementId(%s) = %s", stringValue},
	"$id":        {CategoryIdentity, ArityScalar, "ID(%s) = %s", integerValue},
	"$labels":    {CategoryIdentity, ArityScalar, "ALL(l IN %[2]s WHERE l IN labels(%[1]s))", stringOrStringList},

	// Structural operators.
	"$not":    {CategoryStructural, AritySubtree, "NOT(%s)", subtreeValue},
	"$size":   {CategoryStructural, AritySubtree, "SIZE(%s)", sizeValue},
	"$all":    {CategoryStructural, ArityList, "ALL(i IN %s WHERE %s)", operandList},
	"$exists": {CategoryStructural, ArityScalar, "", boolValue},
}

// Lookup returns the spec for an operator name.
func Lookup(name string) (OperatorSpec, bool) {
	spec, ok := operators[name]
	return spec, ok
}

// Value constraints. Each returns a descriptive error on mismatch; the
// validator turns these into diagnostics rather than failures.

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func scalarOrList(v any) error {
	if isScalar(v) {
		return nil
	}
	if list, ok := v.([]any); ok {
		for i, elem := range list {
			if !isScalar(elem) {
				return fmt.Errorf("list element %d must be a scalar, got %T", i, elem)
			}
		}
		return nil
	}
	return fmt.Errorf("expected scalar or list of scalars, got %T", v)
}

func numericValue(v any) error {
	if !isNumeric(v) {
		return fmt.Errorf("expected numeric value, got %T", v)
	}
	return nil
}

func integerValue(v any) error {
	if !isInteger(v) {
		return fmt.Errorf("expected integer value, got %T", v)
	}
	return nil
}

func stringValue(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("expected string value, got %T", v)
	}
	return nil
}

func boolValue(v any) error {
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("expected bool value, got %T", v)
	}
	return nil
}

func stringOrStringList(v any) error {
	if _, ok := v.(string); ok {
		return nil
	}
	if list, ok := v.([]any); ok {
		for i, elem := range list {
			if _, ok := elem.(string); !ok {
				return fmt.Errorf("list element %d must be a string, got %T", i, elem)
			}
		}
		return nil
	}
	return fmt.Errorf("expected string or list of strings, got %T", v)
}

func subtreeValue(v any) error {
	if !isDoc(v) {
		return fmt.Errorf("expected nested document, got %T", v)
	}
	return nil
}

// sizeValue requires a single nested comparison applied to the collection's
// cardinality, e.g. {"$size": {"$gte": 2}}.
func sizeValue(v any) error {
	doc, ok := v.(Doc)
	if !ok {
		return fmt.Errorf("expected nested comparison document, got %T", v)
	}
	if len(doc) != 1 {
		return fmt.Errorf("expected exactly one comparison, got %d keys", len(doc))
	}
	switch doc[0].Key {
	case "$eq", "$gt", "$gte", "$lt", "$lte":
	default:
		return fmt.Errorf("unsupported comparison %q", doc[0].Key)
	}
	return numericValue(doc[0].Value)
}

func operandList(v any) error {
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected list of operand documents, got %T", v)
	}
	if len(list) == 0 {
		return fmt.Errorf("operand list must not be empty")
	}
	for i, elem := range list {
		if !isDoc(elem) {
			return fmt.Errorf("operand %d must be a document, got %T", i, elem)
		}
	}
	return nil
}
