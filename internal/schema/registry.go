package schema

import (
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Direction is the direction of a relationship relative to its start node.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
	DirectionBoth     Direction = "BOTH"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionOutgoing, DirectionIncoming, DirectionBoth:
		return true
	}
	return false
}

// PropertyKind is the declared storage kind of an entity property.
type PropertyKind string

const (
	KindString PropertyKind = "string"
	KindInt    PropertyKind = "int"
	KindFloat  PropertyKind = "float"
	KindBool   PropertyKind = "bool"
	KindList   PropertyKind = "list"
	KindMap    PropertyKind = "map"
)

// RelationshipDescriptor declares one relationship property on a node
// model: the property it hydrates into, the direction of the traversal, and
// the names of the relationship and target node models. Constructed once
// when the model is registered; immutable afterwards.
type RelationshipDescriptor struct {
	PropertyName      string
	Direction         Direction
	RelationshipModel string
	TargetModel       string
}

// NodeSchema describes one registered node model.
type NodeSchema struct {
	Name          string
	Labels        []string
	Properties    map[string]PropertyKind
	Relationships []RelationshipDescriptor
}

// RelationshipSchema describes one registered relationship model.
type RelationshipSchema struct {
	Name       string
	Type       string
	Properties map[string]PropertyKind
}

// Registry holds the registered model schemas. Models are registered once
// during startup; afterwards the registry is read-only and safe to share
// across concurrent compilations. It must not be mutated while queries are
// in flight.
type Registry struct {
	nodes         map[string]NodeSchema
	relationships map[string]RelationshipSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:         map[string]NodeSchema{},
		relationships: map[string]RelationshipSchema{},
	}
}

var camelWord = regexp.MustCompile("[A-Z][^A-Z]*")

// RegisterNode adds a node model to the registry. Names, labels and
// property names are NFC-normalized so that differently composed Unicode
// spellings resolve to the same schema. A model without declared labels
// falls back to the camel-case words of its name, so "CoffeeShop" is
// labeled ["Coffee", "Shop"].
func (r *Registry) RegisterNode(s NodeSchema) error {
	s.Name = norm.NFC.String(s.Name)
	if s.Name == "" {
		return fmt.Errorf("register node: name must not be empty")
	}
	if _, exists := r.nodes[s.Name]; exists {
		return fmt.Errorf("register node: model %q already registered", s.Name)
	}

	if len(s.Labels) == 0 {
		s.Labels = camelWord.FindAllString(s.Name, -1)
		if len(s.Labels) == 0 {
			s.Labels = []string{s.Name}
		}
	}

	labels := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		labels[i] = norm.NFC.String(l)
	}
	s.Labels = labels

	s.Properties = normalizeKinds(s.Properties)

	rels := make([]RelationshipDescriptor, len(s.Relationships))
	for i, d := range s.Relationships {
		if d.PropertyName == "" {
			return fmt.Errorf("register node %q: relationship %d has no property name", s.Name, i)
		}
		if !d.Direction.Valid() {
			return fmt.Errorf("register node %q: relationship %q has invalid direction %q", s.Name, d.PropertyName, d.Direction)
		}
		rels[i] = RelationshipDescriptor{
			PropertyName:      norm.NFC.String(d.PropertyName),
			Direction:         d.Direction,
			RelationshipModel: norm.NFC.String(d.RelationshipModel),
			TargetModel:       norm.NFC.String(d.TargetModel),
		}
	}
	s.Relationships = rels

	r.nodes[s.Name] = s
	return nil
}

// RegisterRelationship adds a relationship model to the registry. An empty
// type falls back to the model name.
func (r *Registry) RegisterRelationship(s RelationshipSchema) error {
	s.Name = norm.NFC.String(s.Name)
	if s.Name == "" {
		return fmt.Errorf("register relationship: name must not be empty")
	}
	if _, exists := r.relationships[s.Name]; exists {
		return fmt.Errorf("register relationship: model %q already registered", s.Name)
	}
	if s.Type == "" {
		s.Type = s.Name
	}
	s.Type = norm.NFC.String(s.Type)
	s.Properties = normalizeKinds(s.Properties)

	r.relationships[s.Name] = s
	return nil
}

// Node returns the schema registered under the given model name.
func (r *Registry) Node(name string) (NodeSchema, bool) {
	s, ok := r.nodes[norm.NFC.String(name)]
	return s, ok
}

// Relationship returns the schema registered under the given model name.
func (r *Registry) Relationship(name string) (RelationshipSchema, bool) {
	s, ok := r.relationships[norm.NFC.String(name)]
	return s, ok
}

// RelationshipsOf returns the relationship descriptors of a node model in
// declaration order.
func (r *Registry) RelationshipsOf(model string) ([]RelationshipDescriptor, bool) {
	s, ok := r.Node(model)
	if !ok {
		return nil, false
	}
	return s.Relationships, true
}

// Resolve looks up a name as a node model first, then as a relationship
// model, then as a relationship type.
func (r *Registry) Resolve(nameOrType string) (any, bool) {
	if s, ok := r.Node(nameOrType); ok {
		return s, true
	}
	if s, ok := r.Relationship(nameOrType); ok {
		return s, true
	}
	for _, s := range r.relationships {
		if s.Type == norm.NFC.String(nameOrType) {
			return s, true
		}
	}
	return nil, false
}

// NodeNames returns the registered node model names. Order is unspecified.
func (r *Registry) NodeNames() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	return names
}

func normalizeKinds(props map[string]PropertyKind) map[string]PropertyKind {
	if props == nil {
		return map[string]PropertyKind{}
	}
	out := make(map[string]PropertyKind, len(props))
	for k, v := range props {
		out[norm.NFC.String(k)] = v
	}
	return out
}
