package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNode_FallsBackToCamelCaseLabels(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterNode(NodeSchema{Name: "CoffeeShop"}))

	node, ok := reg.Node("CoffeeShop")
	require.True(t, ok)
	assert.Equal(t, []string{"Coffee", "Shop"}, node.Labels)
}

func TestRegisterNode_LowercaseNameBecomesSingleLabel(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterNode(NodeSchema{Name: "developer"}))

	node, _ := reg.Node("developer")
	assert.Equal(t, []string{"developer"}, node.Labels)
}

func TestRegisterNode_ExplicitLabelsWin(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterNode(NodeSchema{
		Name:   "Developer",
		Labels: []string{"Developer", "Person"},
	}))

	node, _ := reg.Node("Developer")
	assert.Equal(t, []string{"Developer", "Person"}, node.Labels)
}

func TestRegisterNode_RejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterNode(NodeSchema{Name: "Developer"}))
	assert.Error(t, reg.RegisterNode(NodeSchema{Name: "Developer"}))
}

func TestRegisterNode_RejectsInvalidDirection(t *testing.T) {
	reg := NewRegistry()

	err := reg.RegisterNode(NodeSchema{
		Name: "Developer",
		Relationships: []RelationshipDescriptor{
			{PropertyName: "coffee", Direction: "SIDEWAYS", RelationshipModel: "Consumed", TargetModel: "Coffee"},
		},
	})

	assert.Error(t, err)
}

func TestRegisterNode_UnicodeNamesNormalize(t *testing.T) {
	reg := NewRegistry()

	// "Café" with a combining acute accent registers...
	require.NoError(t, reg.RegisterNode(NodeSchema{Name: "Café", Labels: []string{"Café"}}))

	// ...and resolves under the precomposed spelling.
	node, ok := reg.Node("Café")
	require.True(t, ok)
	assert.Equal(t, []string{"Café"}, node.Labels)
}

func TestRegisterRelationship_TypeFallsBackToName(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterRelationship(RelationshipSchema{Name: "Consumed"}))

	rel, ok := reg.Relationship("Consumed")
	require.True(t, ok)
	assert.Equal(t, "Consumed", rel.Type)
}

func TestResolve_NodeThenRelationshipThenType(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterNode(NodeSchema{Name: "Developer"}))
	require.NoError(t, reg.RegisterRelationship(RelationshipSchema{Name: "Consumed", Type: "CONSUMED"}))

	got, ok := reg.Resolve("Developer")
	require.True(t, ok)
	assert.IsType(t, NodeSchema{}, got)

	got, ok = reg.Resolve("Consumed")
	require.True(t, ok)
	assert.IsType(t, RelationshipSchema{}, got)

	got, ok = reg.Resolve("CONSUMED")
	require.True(t, ok)
	assert.IsType(t, RelationshipSchema{}, got)

	_, ok = reg.Resolve("Unknown")
	assert.False(t, ok)
}

func TestRelationshipsOf_PreservesDeclarationOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterNode(NodeSchema{
		Name: "Developer",
		Relationships: []RelationshipDescriptor{
			{PropertyName: "coffee", Direction: DirectionOutgoing, RelationshipModel: "Consumed", TargetModel: "Coffee"},
			{PropertyName: "team", Direction: DirectionIncoming, RelationshipModel: "Employs", TargetModel: "Company"},
		},
	}))

	descriptors, ok := reg.RelationshipsOf("Developer")
	require.True(t, ok)
	require.Len(t, descriptors, 2)
	assert.Equal(t, "coffee", descriptors[0].PropertyName)
	assert.Equal(t, "team", descriptors[1].PropertyName)
}
