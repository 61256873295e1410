package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Model schemas are declared in CUE files with two top-level structs:
//
//	models: {
//		Developer: {
//			labels: ["Developer"]
//			properties: {
//				name: "string"
//				age:  "int"
//			}
//			relationships: {
//				coffee: {
//					model:     "Consumed"
//					target:    "Coffee"
//					direction: "OUTGOING"
//				}
//			}
//		}
//	}
//	relationships: {
//		Consumed: {
//			type: "CONSUMED"
//			properties: {liters: "float"}
//		}
//	}
//
// Field order in the file is preserved, which fixes the order of traversal
// clauses built from the relationship descriptors.

// LoadFile reads a CUE schema file and registers its models.
func LoadFile(reg *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	if err := LoadBytes(reg, data); err != nil {
		return fmt.Errorf("load schema %s: %w", path, err)
	}
	return nil
}

// LoadBytes compiles CUE schema source and registers its models.
func LoadBytes(reg *Registry, data []byte) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// Relationship models first so node descriptors can reference them in
	// any file order.
	relsVal := v.LookupPath(cue.ParsePath("relationships"))
	if relsVal.Exists() {
		it, err := relsVal.Fields()
		if err != nil {
			return fmt.Errorf("relationships: %w", err)
		}
		for it.Next() {
			s, err := parseRelationship(it.Selector().String(), it.Value())
			if err != nil {
				return err
			}
			if err := reg.RegisterRelationship(s); err != nil {
				return err
			}
		}
	}

	modelsVal := v.LookupPath(cue.ParsePath("models"))
	if modelsVal.Exists() {
		it, err := modelsVal.Fields()
		if err != nil {
			return fmt.Errorf("models: %w", err)
		}
		for it.Next() {
			s, err := parseNode(it.Selector().String(), it.Value())
			if err != nil {
				return err
			}
			if err := reg.RegisterNode(s); err != nil {
				return err
			}
		}
	}

	return nil
}

func parseNode(name string, v cue.Value) (NodeSchema, error) {
	s := NodeSchema{Name: name}

	labelsVal := v.LookupPath(cue.ParsePath("labels"))
	if labelsVal.Exists() {
		it, err := labelsVal.List()
		if err != nil {
			return s, fmt.Errorf("model %q: labels must be a list: %w", name, err)
		}
		for it.Next() {
			label, err := it.Value().String()
			if err != nil {
				return s, fmt.Errorf("model %q: label must be a string: %w", name, err)
			}
			s.Labels = append(s.Labels, label)
		}
	}

	props, err := parseProperties(name, v)
	if err != nil {
		return s, err
	}
	s.Properties = props

	relsVal := v.LookupPath(cue.ParsePath("relationships"))
	if relsVal.Exists() {
		it, err := relsVal.Fields()
		if err != nil {
			return s, fmt.Errorf("model %q: relationships: %w", name, err)
		}
		for it.Next() {
			desc, err := parseDescriptor(name, it.Selector().String(), it.Value())
			if err != nil {
				return s, err
			}
			s.Relationships = append(s.Relationships, desc)
		}
	}

	return s, nil
}

func parseDescriptor(model, property string, v cue.Value) (RelationshipDescriptor, error) {
	desc := RelationshipDescriptor{
		PropertyName: property,
		Direction:    DirectionOutgoing,
	}

	relModel, err := stringField(v, "model")
	if err != nil {
		return desc, fmt.Errorf("model %q: relationship %q: %w", model, property, err)
	}
	if relModel == "" {
		return desc, fmt.Errorf("model %q: relationship %q: model is required", model, property)
	}
	desc.RelationshipModel = relModel

	target, err := stringField(v, "target")
	if err != nil {
		return desc, fmt.Errorf("model %q: relationship %q: %w", model, property, err)
	}
	if target == "" {
		return desc, fmt.Errorf("model %q: relationship %q: target is required", model, property)
	}
	desc.TargetModel = target

	direction, err := stringField(v, "direction")
	if err != nil {
		return desc, fmt.Errorf("model %q: relationship %q: %w", model, property, err)
	}
	if direction != "" {
		desc.Direction = Direction(direction)
		if !desc.Direction.Valid() {
			return desc, fmt.Errorf("model %q: relationship %q: invalid direction %q", model, property, direction)
		}
	}

	return desc, nil
}

func parseRelationship(name string, v cue.Value) (RelationshipSchema, error) {
	s := RelationshipSchema{Name: name}

	typeName, err := stringField(v, "type")
	if err != nil {
		return s, fmt.Errorf("relationship %q: %w", name, err)
	}
	s.Type = typeName

	props, err := parseProperties(name, v)
	if err != nil {
		return s, err
	}
	s.Properties = props

	return s, nil
}

func parseProperties(owner string, v cue.Value) (map[string]PropertyKind, error) {
	props := map[string]PropertyKind{}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return props, nil
	}

	it, err := propsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("%q: properties: %w", owner, err)
	}
	for it.Next() {
		kind, err := it.Value().String()
		if err != nil {
			return nil, fmt.Errorf("%q: property %q: kind must be a string: %w", owner, it.Selector().String(), err)
		}
		switch PropertyKind(kind) {
		case KindString, KindInt, KindFloat, KindBool, KindList, KindMap:
		default:
			return nil, fmt.Errorf("%q: property %q: unknown kind %q", owner, it.Selector().String(), kind)
		}
		props[it.Selector().String()] = PropertyKind(kind)
	}

	return props, nil
}

func stringField(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", fmt.Errorf("%s must be a string: %w", field, err)
	}
	return s, nil
}
