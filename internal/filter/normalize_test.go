package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_WrapsBareScalarInEq(t *testing.T) {
	doc := Doc{{Key: "age", Value: 30}}

	normalized := Normalize(doc)

	require.Len(t, normalized, 1)
	nested, ok := normalized[0].Value.(Doc)
	require.True(t, ok, "property value should become an operator document")
	assert.Equal(t, Doc{{Key: "$eq", Value: 30}}, nested)
}

func TestNormalize_LeavesExplicitOperatorAlone(t *testing.T) {
	doc := Doc{{Key: "age", Value: Doc{{Key: "$gt", Value: 30}}}}

	normalized := Normalize(doc)

	assert.Equal(t, doc, normalized)
}

func TestNormalize_GroupsSiblingsBelowRootUnderAnd(t *testing.T) {
	doc := Doc{{Key: "age", Value: Doc{
		{Key: "$gt", Value: 30},
		{Key: "$lte", Value: 45},
	}}}

	normalized := Normalize(doc)

	nested, ok := normalized[0].Value.(Doc)
	require.True(t, ok)
	require.Len(t, nested, 1)
	assert.Equal(t, "$and", nested[0].Key)

	operands, ok := nested[0].Value.([]any)
	require.True(t, ok)
	require.Len(t, operands, 2)
	// Declaration order survives the grouping.
	assert.Equal(t, Doc{{Key: "$gt", Value: 30}}, operands[0])
	assert.Equal(t, Doc{{Key: "$lte", Value: 45}}, operands[1])
}

func TestNormalize_RootSiblingsStayUngrouped(t *testing.T) {
	doc := Doc{
		{Key: "age", Value: 30},
		{Key: "name", Value: "Ann"},
	}

	normalized := Normalize(doc)

	require.Len(t, normalized, 2)
	assert.Equal(t, []string{"age", "name"}, normalized.Keys())
}

func TestNormalize_WrapsNotAndSizeScalars(t *testing.T) {
	doc := Doc{{Key: "age", Value: Doc{{Key: "$not", Value: 30}}}}

	normalized := Normalize(doc)

	nested := normalized[0].Value.(Doc)
	assert.Equal(t, Doc{{Key: "$not", Value: Doc{{Key: "$eq", Value: 30}}}}, nested)

	doc = Doc{{Key: "tags", Value: Doc{{Key: "$size", Value: 2}}}}
	nested = Normalize(doc)[0].Value.(Doc)
	assert.Equal(t, Doc{{Key: "$size", Value: Doc{{Key: "$eq", Value: 2}}}}, nested)
}

func TestNormalize_WrapsBareAllElements(t *testing.T) {
	doc := Doc{{Key: "tags", Value: Doc{{Key: "$all", Value: []any{10, 20}}}}}

	normalized := Normalize(doc)

	nested := normalized[0].Value.(Doc)
	operands, ok := nested[0].Value.([]any)
	require.True(t, ok)
	assert.Equal(t, Doc{{Key: "$eq", Value: 10}}, operands[0])
	assert.Equal(t, Doc{{Key: "$eq", Value: 20}}, operands[1])
}

func TestNormalize_RawQueryPassesThrough(t *testing.T) {
	doc := Doc{
		{Key: KeyRawQuery, Value: "n.age > $cutoff"},
		{Key: KeyRawParameters, Value: map[string]any{"cutoff": 30}},
	}

	normalized := Normalize(doc)

	assert.Equal(t, doc, normalized)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	doc := Doc{{Key: "age", Value: 30}}

	_ = Normalize(doc)

	assert.Equal(t, 30, doc[0].Value)
}

func TestNormalize_Idempotent(t *testing.T) {
	doc := Doc{
		{Key: "age", Value: 30},
		{Key: "name", Value: Doc{
			{Key: "$contains", Value: "a"},
			{Key: "$startsWith", Value: "b"},
		}},
	}

	once := Normalize(doc)
	twice := Normalize(once)

	assert.Equal(t, once, twice)
}
