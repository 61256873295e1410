package cypher

import (
	"fmt"
	"strings"

	"github.com/grapnel-db/grapnel/internal/filter"
)

// Fragment is a compiled boolean query fragment plus its parameter
// bindings. Fragments combine by AND-joining Text and merging Parameters;
// the per-compilation counter keeps parameter names disjoint as long as
// distinct reference variables are used.
type Fragment struct {
	Text       string
	Parameters map[string]any
}

// Empty reports whether the fragment carries no predicate.
func (f Fragment) Empty() bool {
	return f.Text == ""
}

// CompileFilter compiles a normalized, validated filter document into a
// Cypher fragment relative to the given reference variable (the query
// variable the properties belong to, e.g. "n").
//
// The document must have passed through filter.Normalize and
// filter.Validate; structurally impossible input surfaces a malformed
// operator tree error, which indicates a broken pipeline contract rather
// than a user mistake.
func CompileFilter(doc filter.Doc, ref string) (Fragment, error) {
	c := &compiler{
		ref:        ref,
		parameters: map[string]any{},
	}

	text, err := c.compile(doc, 0)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Parameters: c.parameters}, nil
}

// compiler holds the state of one compilation pass. A value is scoped to
// exactly one CompileFilter call; the parameter counter and the variable
// override are meaningless across calls.
type compiler struct {
	ref        string
	property   string // last non-operator key seen while descending
	override   string // variable override, active inside $size/$all
	count      int
	parameters map[string]any
}

func (c *compiler) compile(doc filter.Doc, level int) (string, error) {
	// Raw-query documents bypass compilation entirely.
	if raw, ok := doc.Get(filter.KeyRawQuery); ok {
		return c.compileRaw(raw, doc)
	}

	partials := make([]string, 0, len(doc))

	for _, e := range doc {
		if !filter.IsOperator(e.Key) {
			// Property names key the operators one level below them;
			// the last one seen wins while descending.
			c.property = e.Key
		}

		var (
			part string
			err  error
		)

		spec, known := filter.Lookup(e.Key)
		switch {
		case level == 0 && known && spec.Category == filter.CategoryIdentity:
			part, err = c.compileIdentity(e.Key, spec, e.Value)
		case e.Key == "$not":
			part, err = c.compileNot(e.Value)
		case e.Key == "$size":
			part, err = c.compileSize(e.Value)
		case e.Key == "$all":
			part, err = c.compileAll(e.Value)
		case e.Key == "$exists":
			part, err = c.compileExists(e.Value)
		case known && spec.Category == filter.CategoryComparison:
			part, err = c.compileComparison(spec, e.Value)
		case known && spec.Category == filter.CategoryLogical:
			part, err = c.compileLogical(e.Key, spec, e.Value)
		case !filter.IsOperator(e.Key):
			nested, ok := e.Value.(filter.Doc)
			if !ok {
				return "", filter.NewMalformedTreeError("property %q must hold a document, got %T", e.Key, e.Value)
			}
			part, err = c.compile(nested, level+1)
		default:
			return "", filter.NewMalformedTreeError("unexpected operator %q at level %d", e.Key, level)
		}
		if err != nil {
			return "", err
		}

		partials = append(partials, part)
	}

	return strings.Join(partials, " AND "), nil
}

func (c *compiler) compileComparison(spec filter.OperatorSpec, value any) (string, error) {
	param := c.nextParameter()
	c.parameters[param] = value
	return fmt.Sprintf(spec.Template, c.variable(), "$"+param), nil
}

func (c *compiler) compileExists(value any) (string, error) {
	exists, ok := value.(bool)
	if !ok {
		return "", filter.NewMalformedTreeError("$exists value must be a bool, got %T", value)
	}
	if exists {
		return c.variable() + " IS NOT NULL", nil
	}
	return c.variable() + " IS NULL", nil
}

func (c *compiler) compileNot(value any) (string, error) {
	nested, ok := value.(filter.Doc)
	if !ok {
		return "", filter.NewMalformedTreeError("$not value must be a document, got %T", value)
	}
	inner, err := c.compile(nested, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("NOT(%s)", inner), nil
}

func (c *compiler) compileSize(value any) (string, error) {
	nested, ok := value.(filter.Doc)
	if !ok || len(nested) != 1 {
		return "", filter.NewMalformedTreeError("$size value must be a single-comparison document, got %T", value)
	}

	spec, known := filter.Lookup(nested[0].Key)
	if !known || spec.Category != filter.CategoryComparison {
		return "", filter.NewMalformedTreeError("$size comparison %q is not a comparison operator", nested[0].Key)
	}

	// The comparison applies to the collection's cardinality, not its
	// value.
	c.override = fmt.Sprintf("SIZE(%s)", c.variable())
	part, err := c.compileComparison(spec, nested[0].Value)
	c.override = ""

	return part, err
}

func (c *compiler) compileAll(value any) (string, error) {
	operands, ok := value.([]any)
	if !ok {
		return "", filter.NewMalformedTreeError("$all value must be a list, got %T", value)
	}

	c.override = "i"
	partials := make([]string, 0, len(operands))
	for _, operand := range operands {
		nested, ok := operand.(filter.Doc)
		if !ok {
			c.override = ""
			return "", filter.NewMalformedTreeError("$all operand must be a document, got %T", operand)
		}
		part, err := c.compile(nested, 1)
		if err != nil {
			c.override = ""
			return "", err
		}
		partials = append(partials, part)
	}
	c.override = ""

	return fmt.Sprintf("ALL(i IN %s WHERE %s)", c.variable(), strings.Join(partials, " AND ")), nil
}

func (c *compiler) compileLogical(op string, spec filter.OperatorSpec, value any) (string, error) {
	operands, ok := value.([]any)
	if !ok {
		return "", filter.NewMalformedTreeError("%s value must be a list, got %T", op, value)
	}

	partials := make([]string, 0, len(operands))
	for _, operand := range operands {
		nested, ok := operand.(filter.Doc)
		if !ok {
			return "", filter.NewMalformedTreeError("%s operand must be a document, got %T", op, operand)
		}
		part, err := c.compile(nested, 1)
		if err != nil {
			return "", err
		}
		partials = append(partials, part)
	}

	joined := strings.Join(partials, fmt.Sprintf(" %s ", spec.Template))
	return fmt.Sprintf("(%s)", joined), nil
}

func (c *compiler) compileIdentity(op string, spec filter.OperatorSpec, value any) (string, error) {
	// $labels accepts a single label as shorthand; the bound parameter is
	// always a list.
	if op == "$labels" {
		if label, ok := value.(string); ok {
			value = []any{label}
		}
	}

	param := c.nextParameter()
	c.parameters[param] = value
	return fmt.Sprintf(spec.Template, c.ref, "$"+param), nil
}

// compileRaw splices a caller-provided query fragment in verbatim, merging
// its parameters.
func (c *compiler) compileRaw(raw any, doc filter.Doc) (string, error) {
	text, ok := raw.(string)
	if !ok {
		return "", filter.NewMalformedTreeError("%s value must be a string, got %T", filter.KeyRawQuery, raw)
	}

	if params, ok := doc.Get(filter.KeyRawParameters); ok {
		switch p := params.(type) {
		case map[string]any:
			for k, v := range p {
				c.parameters[k] = v
			}
		case filter.Doc:
			for _, e := range p {
				c.parameters[e.Key] = e.Value
			}
		default:
			return "", filter.NewMalformedTreeError("%s value must be a mapping, got %T", filter.KeyRawParameters, params)
		}
	}

	return text, nil
}

// nextParameter returns a fresh parameter name and advances the counter.
func (c *compiler) nextParameter() string {
	name := fmt.Sprintf("%s_%d", c.ref, c.count)
	c.count++
	return name
}

// variable returns the expression the current predicate applies to:
// "{ref}.{property}" unless an override is active.
func (c *compiler) variable() string {
	if c.override != "" {
		return c.override
	}
	return fmt.Sprintf("%s.%s", c.ref, c.property)
}
