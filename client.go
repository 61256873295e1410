package grapnel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/grapnel-db/grapnel/internal/cypher"
	"github.com/grapnel-db/grapnel/internal/fetch"
	"github.com/grapnel-db/grapnel/internal/filter"
	"github.com/grapnel-db/grapnel/internal/hydrate"
	"github.com/grapnel-db/grapnel/internal/schema"
	"github.com/grapnel-db/grapnel/internal/session"
)

// rootRef is the reference every generated statement binds the primary
// entity to. Filter parameters derive their names from it.
const rootRef = "n"

// Client executes model operations against a graph session. All operations
// are synchronous; a Client is safe for concurrent use.
type Client struct {
	sess   session.Session
	reg    *schema.Registry
	log    *slog.Logger
	strict bool
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithLogger sets the logger used for query tracing.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithStrictFilters makes the client reject queries whose filter documents
// contain invalid operator expressions, instead of silently dropping them.
func WithStrictFilters() ClientOption {
	return func(c *Client) { c.strict = true }
}

// New builds a client over an open session and a populated schema registry.
func New(sess session.Session, reg *schema.Registry, opts ...ClientOption) *Client {
	c := &Client{
		sess: sess,
		reg:  reg,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// compileFilters normalizes, validates and compiles a filter document into
// a parameterized fragment. An empty document compiles to an empty fragment,
// which callers render as an unfiltered match.
func (c *Client) compileFilters(doc filter.Doc) (cypher.Fragment, error) {
	if len(doc) == 0 {
		return cypher.Fragment{}, nil
	}

	normalized := filter.Normalize(doc)

	var validated filter.Doc
	if c.strict {
		d, err := filter.ValidateStrict(normalized)
		if err != nil {
			return cypher.Fragment{}, err
		}
		validated = d
	} else {
		validated = filter.Validate(normalized).Doc
	}

	return cypher.CompileFilter(validated, rootRef)
}

func (c *Client) node(model string) (schema.NodeSchema, error) {
	node, ok := c.reg.Node(model)
	if !ok {
		return schema.NodeSchema{}, fmt.Errorf("model %q is not registered", model)
	}
	return node, nil
}

func (c *Client) run(ctx context.Context, query string, params map[string]any) (*session.Result, error) {
	c.log.Debug("executing query", "query", query, "parameters", params)
	return c.sess.Execute(ctx, query, params)
}

// Create persists a new entity with the given properties and returns it as
// stored. Nested maps in the property bag are serialized before writing.
func (c *Client) Create(ctx context.Context, model string, properties map[string]any) (*hydrate.Entity, error) {
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	deflated, err := hydrate.Deflate(properties)
	if err != nil {
		return nil, err
	}

	lines := []string{"CREATE " + cypher.NodePattern(rootRef, node.Labels)}
	if len(deflated) > 0 {
		lines = append(lines, "SET "+setClause(deflated))
	}
	lines = append(lines, "RETURN "+rootRef)

	res, err := c.run(ctx, strings.Join(lines, "\n"), deflated)
	if err != nil {
		return nil, err
	}
	return firstEntity(res)
}

// FindMany returns every entity of the model matching the filters. An empty
// filter document matches all entities of the model.
func (c *Client) FindMany(ctx context.Context, model string, filters filter.Doc, opts ...QueryOption) ([]*hydrate.Entity, error) {
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)

	plan := fetch.Plan{}
	if cfg.autoFetch {
		plan, err = fetch.BuildPlan(c.reg, model, cfg.include, rootRef)
		if err != nil {
			return nil, err
		}
	}

	lines := []string{"MATCH " + cypher.NodePattern(rootRef, node.Labels)}
	if !frag.Empty() {
		lines = append(lines, "WHERE "+frag.Text)
	}

	if !plan.Empty() {
		lines = append(lines, "WITH "+rootRef)
		if rendered := cfg.options.Render(rootRef); rendered != "" {
			lines = append(lines, rendered)
		}
		for _, clause := range plan.Clauses {
			lines = append(lines, "OPTIONAL MATCH "+clause.Pattern)
		}
		lines = append(lines, "RETURN DISTINCT "+strings.Join(append([]string{rootRef}, plan.Aliases()...), ", "))
	} else {
		lines = append(lines, "RETURN DISTINCT "+rootRef)
		if rendered := cfg.options.Render(rootRef); rendered != "" {
			lines = append(lines, rendered)
		}
	}

	res, err := c.run(ctx, strings.Join(lines, "\n"), frag.Parameters)
	if err != nil {
		return nil, err
	}
	return hydrate.Hydrate(res.Rows, append([]string{rootRef}, plan.Aliases()...), nil)
}

// FindOne returns the first entity of the model matching the filters, or nil
// when nothing matches. The filters must contain at least one usable
// predicate.
func (c *Client) FindOne(ctx context.Context, model string, filters filter.Doc, opts ...QueryOption) (*hydrate.Entity, error) {
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return nil, err
	}
	if frag.Empty() {
		return nil, filter.NewMissingFiltersError()
	}
	cfg := applyOptions(opts)

	plan := fetch.Plan{}
	if cfg.autoFetch {
		plan, err = fetch.BuildPlan(c.reg, model, cfg.include, rootRef)
		if err != nil {
			return nil, err
		}
	}

	lines := []string{
		"MATCH " + cypher.NodePattern(rootRef, node.Labels),
		"WHERE " + frag.Text,
	}
	if !plan.Empty() {
		lines = append(lines, "WITH "+rootRef+" LIMIT 1")
		for _, clause := range plan.Clauses {
			lines = append(lines, "OPTIONAL MATCH "+clause.Pattern)
		}
		lines = append(lines, "RETURN DISTINCT "+strings.Join(append([]string{rootRef}, plan.Aliases()...), ", "))
	} else {
		lines = append(lines, "RETURN DISTINCT "+rootRef, "LIMIT 1")
	}

	res, err := c.run(ctx, strings.Join(lines, "\n"), frag.Parameters)
	if err != nil {
		return nil, err
	}
	entities, err := hydrate.Hydrate(res.Rows, append([]string{rootRef}, plan.Aliases()...), nil)
	if err != nil || len(entities) == 0 {
		return nil, err
	}
	return entities[0], nil
}

// FindManyProjected returns one flat map per matching entity instead of
// hydrated entities. Projection keys name the returned fields, values the
// projected properties. Relationship fetching does not apply to projected
// queries.
func (c *Client) FindManyProjected(ctx context.Context, model string, filters filter.Doc, projections map[string]string, opts ...QueryOption) ([]map[string]any, error) {
	if len(projections) == 0 {
		return nil, fmt.Errorf("projected query needs at least one projection")
	}
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)

	lines := []string{"MATCH " + cypher.NodePattern(rootRef, node.Labels)}
	if !frag.Empty() {
		lines = append(lines, "WHERE "+frag.Text)
	}
	lines = append(lines, "RETURN DISTINCT "+cypher.Projections(rootRef, projections))
	if rendered := cfg.options.Render(rootRef); rendered != "" {
		lines = append(lines, rendered)
	}

	res, err := c.run(ctx, strings.Join(lines, "\n"), frag.Parameters)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		record := make(map[string]any, len(res.Columns))
		for col, name := range res.Columns {
			if col < len(row) {
				record[name] = row[col]
			}
		}
		out[i] = record
	}
	return out, nil
}

// FindOneProjected returns a flat map for the first entity matching the
// filters, or nil when nothing matches. The filters must contain at least
// one usable predicate.
func (c *Client) FindOneProjected(ctx context.Context, model string, filters filter.Doc, projections map[string]string) (map[string]any, error) {
	if len(projections) == 0 {
		return nil, fmt.Errorf("projected query needs at least one projection")
	}
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return nil, err
	}
	if frag.Empty() {
		return nil, filter.NewMissingFiltersError()
	}

	query := strings.Join([]string{
		"MATCH " + cypher.NodePattern(rootRef, node.Labels),
		"WHERE " + frag.Text,
		"RETURN DISTINCT " + cypher.Projections(rootRef, projections),
		"LIMIT 1",
	}, "\n")

	res, err := c.run(ctx, query, frag.Parameters)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}

	record := make(map[string]any, len(res.Columns))
	for col, name := range res.Columns {
		if col < len(res.Rows[0]) {
			record[name] = res.Rows[0][col]
		}
	}
	return record, nil
}

// UpdateOne applies the update to the first entity matching the filters and
// returns the entity, pre-update by default or post-update when returnNew is
// set. Returns nil when nothing matches. The filters must contain at least
// one usable predicate.
func (c *Client) UpdateOne(ctx context.Context, model string, update map[string]any, filters filter.Doc, returnNew bool) (*hydrate.Entity, error) {
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	old, err := c.FindOne(ctx, model, filters)
	if err != nil || old == nil {
		return nil, err
	}
	deflated, err := hydrate.Deflate(update)
	if err != nil {
		return nil, err
	}

	lines := []string{
		"MATCH " + cypher.NodePattern(rootRef, node.Labels),
		fmt.Sprintf("WHERE elementId(%s) = $element_id", rootRef),
	}
	if len(deflated) > 0 {
		lines = append(lines, "SET "+setClause(deflated))
	}
	lines = append(lines, "RETURN "+rootRef)

	params := make(map[string]any, len(deflated)+1)
	for k, v := range deflated {
		params[k] = v
	}
	params["element_id"] = old.ElementID

	res, err := c.run(ctx, strings.Join(lines, "\n"), params)
	if err != nil {
		return nil, err
	}
	if !returnNew {
		return old, nil
	}
	return firstEntity(res)
}

// UpdateMany applies the update to every entity matching the filters and
// returns the affected entities, pre-update by default or post-update when
// returnNew is set. An empty filter document updates all entities of the
// model.
func (c *Client) UpdateMany(ctx context.Context, model string, update map[string]any, filters filter.Doc, returnNew bool) ([]*hydrate.Entity, error) {
	node, err := c.node(model)
	if err != nil {
		return nil, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return nil, err
	}
	var old []*hydrate.Entity
	if !returnNew {
		old, err = c.FindMany(ctx, model, filters)
		if err != nil {
			return nil, err
		}
	}
	deflated, err := hydrate.Deflate(update)
	if err != nil {
		return nil, err
	}

	lines := []string{"MATCH " + cypher.NodePattern(rootRef, node.Labels)}
	if !frag.Empty() {
		lines = append(lines, "WHERE "+frag.Text)
	}
	if len(deflated) > 0 {
		lines = append(lines, "SET "+setClause(deflated))
	}
	lines = append(lines, "RETURN DISTINCT "+rootRef)

	params := make(map[string]any, len(deflated)+len(frag.Parameters))
	for k, v := range frag.Parameters {
		params[k] = v
	}
	for k, v := range deflated {
		params[k] = v
	}

	res, err := c.run(ctx, strings.Join(lines, "\n"), params)
	if err != nil {
		return nil, err
	}
	if !returnNew {
		return old, nil
	}
	return hydrate.Hydrate(res.Rows, []string{rootRef}, nil)
}

// DeleteOne detaches and deletes the first entity matching the filters,
// returning the number of deleted entities (0 or 1). The filters must
// contain at least one usable predicate.
func (c *Client) DeleteOne(ctx context.Context, model string, filters filter.Doc) (int64, error) {
	node, err := c.node(model)
	if err != nil {
		return 0, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return 0, err
	}
	if frag.Empty() {
		return 0, filter.NewMissingFiltersError()
	}

	query := strings.Join([]string{
		"MATCH " + cypher.NodePattern(rootRef, node.Labels),
		"WHERE " + frag.Text,
		"WITH " + rootRef + " LIMIT 1",
		"DETACH DELETE " + rootRef,
		fmt.Sprintf("RETURN count(%s)", rootRef),
	}, "\n")

	res, err := c.run(ctx, query, frag.Parameters)
	if err != nil {
		return 0, err
	}
	return scalarCount(res)
}

// DeleteMany detaches and deletes every entity matching the filters,
// returning the number of deleted entities. An empty filter document
// deletes all entities of the model.
func (c *Client) DeleteMany(ctx context.Context, model string, filters filter.Doc) (int64, error) {
	node, err := c.node(model)
	if err != nil {
		return 0, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return 0, err
	}

	lines := []string{"MATCH " + cypher.NodePattern(rootRef, node.Labels)}
	if !frag.Empty() {
		lines = append(lines, "WHERE "+frag.Text)
	}
	lines = append(lines,
		"DETACH DELETE "+rootRef,
		fmt.Sprintf("RETURN count(%s)", rootRef),
	)

	res, err := c.run(ctx, strings.Join(lines, "\n"), frag.Parameters)
	if err != nil {
		return 0, err
	}
	return scalarCount(res)
}

// Count returns the number of entities of the model matching the filters.
func (c *Client) Count(ctx context.Context, model string, filters filter.Doc) (int64, error) {
	node, err := c.node(model)
	if err != nil {
		return 0, err
	}
	frag, err := c.compileFilters(filters)
	if err != nil {
		return 0, err
	}

	lines := []string{"MATCH " + cypher.NodePattern(rootRef, node.Labels)}
	if !frag.Empty() {
		lines = append(lines, "WHERE "+frag.Text)
	}
	lines = append(lines, fmt.Sprintf("RETURN count(%s)", rootRef))

	res, err := c.run(ctx, strings.Join(lines, "\n"), frag.Parameters)
	if err != nil {
		return 0, err
	}
	return scalarCount(res)
}

// setClause renders "n.key = $key" assignments for the deflated property
// bag, sorted by key for deterministic statements.
func setClause(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s.%s = $%s", rootRef, k, k)
	}
	return strings.Join(parts, ", ")
}

func firstEntity(res *session.Result) (*hydrate.Entity, error) {
	entities, err := hydrate.Hydrate(res.Rows, []string{rootRef}, nil)
	if err != nil || len(entities) == 0 {
		return nil, err
	}
	return entities[0], nil
}

func scalarCount(res *session.Result) (int64, error) {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0, fmt.Errorf("count query returned no rows")
	}
	switch v := res.Rows[0][0].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("count query returned %T, expected an integer", v)
	}
}
