package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_PreservesKeyOrder(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"zeta": 1, "alpha": 2, "mid": 3}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, doc.Keys())
}

func TestParseJSON_NestedObjectsBecomeDocs(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"age": {"$gt": 30, "$lte": 45}}`))

	require.NoError(t, err)
	nested, ok := doc[0].Value.(Doc)
	require.True(t, ok)
	assert.Equal(t, []string{"$gt", "$lte"}, nested.Keys())
}

func TestParseJSON_NumberTypes(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"count": 4, "ratio": 1.5}`))

	require.NoError(t, err)
	count, _ := doc.Get("count")
	ratio, _ := doc.Get("ratio")
	assert.Equal(t, int64(4), count)
	assert.Equal(t, 1.5, ratio)
}

func TestParseJSON_ArraysWithDocs(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"$or": [{"age": 30}, {"age": 40}]}`))

	require.NoError(t, err)
	operands, ok := doc[0].Value.([]any)
	require.True(t, ok)
	require.Len(t, operands, 2)
	assert.Equal(t, Doc{{Key: "age", Value: int64(30)}}, operands[0])
}

func TestParseJSON_RejectsNonObject(t *testing.T) {
	_, err := ParseJSON([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`"hello"`))
	assert.Error(t, err)
}

func TestParseJSON_RejectsTrailingData(t *testing.T) {
	_, err := ParseJSON([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err)
}

func TestFromMap_SortsKeysForDeterminism(t *testing.T) {
	doc := FromMap(map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"$gt": 2},
	})

	assert.Equal(t, []string{"alpha", "zeta"}, doc.Keys())
	nested, _ := doc.Get("alpha")
	assert.Equal(t, Doc{{Key: "$gt", Value: 2}}, nested)
}
