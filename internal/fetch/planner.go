// Package fetch plans the eager traversal of a model's declared
// relationships, so related entities come back in the same query instead of
// one round trip per relationship.
package fetch

import (
	"fmt"
	"log/slog"

	"github.com/grapnel-db/grapnel/internal/cypher"
	"github.com/grapnel-db/grapnel/internal/schema"
)

// Clause is one traversal to attach to a query: an OPTIONAL MATCH pattern
// and the alias whose column must be returned. The alias is the
// relationship property name, which is also where the hydrator attaches
// the fetched entities.
type Clause struct {
	Pattern string
	Alias   string
}

// Plan is the set of traversal clauses for one model.
type Plan struct {
	Clauses []Clause
}

// Empty reports whether the plan contains no traversals.
func (p Plan) Empty() bool {
	return len(p.Clauses) == 0
}

// Aliases returns the return aliases of the plan's clauses in order.
func (p Plan) Aliases() []string {
	aliases := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		aliases[i] = c.Alias
	}
	return aliases
}

// BuildPlan builds the traversal clauses for a model's relationship
// descriptors, relative to the given start reference.
//
// include narrows the plan to relationships whose target or relationship
// model name appears in it; nil means all. A descriptor whose relationship
// or target model is not registered is skipped with a log line rather than
// failing the query, so a partially registered schema still fetches what it
// can.
func BuildPlan(reg *schema.Registry, model string, include []string, ref string) (Plan, error) {
	descriptors, ok := reg.RelationshipsOf(model)
	if !ok {
		return Plan{}, fmt.Errorf("build auto-fetch plan: model %q is not registered", model)
	}

	var plan Plan
	for _, desc := range descriptors {
		if include != nil && !contains(include, desc.TargetModel) && !contains(include, desc.RelationshipModel) {
			continue
		}

		relSchema, ok := reg.Relationship(desc.RelationshipModel)
		if !ok {
			slog.Debug("skipping auto-fetch relationship: relationship model not registered",
				"model", model,
				"property", desc.PropertyName,
				"relationship_model", desc.RelationshipModel)
			continue
		}

		target, ok := reg.Node(desc.TargetModel)
		if !ok {
			slog.Debug("skipping auto-fetch relationship: target model not registered",
				"model", model,
				"property", desc.PropertyName,
				"target_model", desc.TargetModel)
			continue
		}

		plan.Clauses = append(plan.Clauses, Clause{
			Pattern: cypher.RelationshipPattern(ref, "", relSchema.Type, desc.Direction, desc.PropertyName, target.Labels),
			Alias:   desc.PropertyName,
		})
	}

	return plan, nil
}

func contains(list []string, s string) bool {
	for _, elem := range list {
		if elem == s {
			return true
		}
	}
	return false
}
