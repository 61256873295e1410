package cypher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grapnel-db/grapnel/internal/schema"
)

// NodePattern renders a node match pattern like "(n:Developer:Person)".
func NodePattern(ref string, labels []string) string {
	if len(labels) == 0 {
		return fmt.Sprintf("(%s)", ref)
	}
	return fmt.Sprintf("(%s:%s)", ref, strings.Join(labels, ":"))
}

// RelationshipPattern renders a relationship match pattern between a start
// reference and an end node, e.g.
//
//	(n)-[:CONSUMED]->(coffee:Coffee)
//
// relRef may be empty when the relationship itself is not returned.
func RelationshipPattern(startRef, relRef, relType string, direction schema.Direction, endRef string, endLabels []string) string {
	rel := fmt.Sprintf("[%s:%s]", relRef, relType)
	end := NodePattern(endRef, endLabels)

	switch direction {
	case schema.DirectionIncoming:
		return fmt.Sprintf("(%s)<-%s-%s", startRef, rel, end)
	case schema.DirectionBoth:
		return fmt.Sprintf("(%s)-%s-%s", startRef, rel, end)
	default:
		return fmt.Sprintf("(%s)-%s->%s", startRef, rel, end)
	}
}

// SortKey is one ORDER BY component.
type SortKey struct {
	Property   string
	Descending bool
}

// Options are the pagination and ordering options appended to a query.
// Zero values render nothing.
type Options struct {
	Sort  []SortKey
	Skip  int
	Limit int
}

// Render returns the ORDER BY / SKIP / LIMIT clause for the options, or an
// empty string when no option is set.
func (o Options) Render(ref string) string {
	var parts []string

	if len(o.Sort) > 0 {
		keys := make([]string, len(o.Sort))
		for i, s := range o.Sort {
			dir := "ASC"
			if s.Descending {
				dir = "DESC"
			}
			keys[i] = fmt.Sprintf("%s.%s %s", ref, s.Property, dir)
		}
		parts = append(parts, "ORDER BY "+strings.Join(keys, ", "))
	}
	if o.Skip > 0 {
		parts = append(parts, fmt.Sprintf("SKIP %d", o.Skip))
	}
	if o.Limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", o.Limit))
	}

	return strings.Join(parts, " ")
}

// Projections renders a projection map as a RETURN list. Keys define the
// returned column names, values the projected properties. Keys are sorted
// for deterministic output.
func Projections(ref string, projections map[string]string) string {
	if len(projections) == 0 {
		return ""
	}

	keys := make([]string, 0, len(projections))
	for k := range projections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s.%s AS %s", ref, projections[k], k)
	}
	return strings.Join(parts, ", ")
}
