package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapnel-db/grapnel/internal/filter"
)

// compile runs the full pipeline a client would: normalize, validate,
// compile against the reference "n".
func compile(t *testing.T, doc filter.Doc) Fragment {
	t.Helper()

	result := filter.Validate(filter.Normalize(doc))
	require.Empty(t, result.Dropped, "test filter should survive validation")

	frag, err := CompileFilter(result.Doc, "n")
	require.NoError(t, err)
	return frag
}

func TestCompile_BareScalarIsEquality(t *testing.T) {
	frag := compile(t, filter.Doc{{Key: "age", Value: 30}})

	assert.Equal(t, "n.age = $n_0", frag.Text)
	assert.Equal(t, map[string]any{"n_0": 30}, frag.Parameters)
}

func TestCompile_SingleComparison(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "age", Value: filter.Doc{{Key: "$gt", Value: 30}}},
	})

	assert.Equal(t, "n.age > $n_0", frag.Text)
	assert.Equal(t, map[string]any{"n_0": 30}, frag.Parameters)
}

func TestCompile_SiblingOperatorsJoinWithAnd(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "age", Value: filter.Doc{
			{Key: "$gt", Value: 30},
			{Key: "$lte", Value: 45},
		}},
	})

	assert.Equal(t, "(n.age > $n_0 AND n.age <= $n_1)", frag.Text)
	assert.Equal(t, map[string]any{"n_0": 30, "n_1": 45}, frag.Parameters)
}

func TestCompile_RootSiblingsJoinWithoutParens(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "age", Value: filter.Doc{{Key: "$gt", Value: 30}}},
		{Key: "name", Value: filter.Doc{{Key: "$contains", Value: "a"}}},
	})

	assert.Equal(t, "n.age > $n_0 AND n.name CONTAINS $n_1", frag.Text)
}

func TestCompile_Not(t *testing.T) {
	frag := compile(t, filter.Doc{{Key: "$not", Value: filter.Doc{{Key: "age", Value: 30}}}})

	assert.Equal(t, "NOT(n.age = $n_0)", frag.Text)
	assert.Equal(t, map[string]any{"n_0": 30}, frag.Parameters)
}

func TestCompile_NotUnderProperty(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "age", Value: filter.Doc{{Key: "$not", Value: filter.Doc{{Key: "$gte", Value: 18}}}}},
	})

	assert.Equal(t, "NOT(n.age >= $n_0)", frag.Text)
}

func TestCompile_AllIteratesCollection(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "tags", Value: filter.Doc{{Key: "$all", Value: []any{10}}}},
	})

	assert.Equal(t, "ALL(i IN n.tags WHERE i = $n_0)", frag.Text)
	assert.Equal(t, map[string]any{"n_0": 10}, frag.Parameters)
}

func TestCompile_AllWithOperatorElements(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "scores", Value: filter.Doc{{Key: "$all", Value: []any{
			filter.Doc{{Key: "$gte", Value: 0}},
			filter.Doc{{Key: "$lte", Value: 100}},
		}}}},
	})

	assert.Equal(t, "ALL(i IN n.scores WHERE i >= $n_0 AND i <= $n_1)", frag.Text)
}

func TestCompile_SizeAppliesToCardinality(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "tags", Value: filter.Doc{{Key: "$size", Value: filter.Doc{{Key: "$gte", Value: 2}}}}},
	})

	assert.Equal(t, "SIZE(n.tags) >= $n_0", frag.Text)
	assert.Equal(t, map[string]any{"n_0": 2}, frag.Parameters)
}

func TestCompile_SizeScalarShorthand(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "tags", Value: filter.Doc{{Key: "$size", Value: 2}}},
	})

	assert.Equal(t, "SIZE(n.tags) = $n_0", frag.Text)
}

func TestCompile_ExistsBindsNoParameter(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "name", Value: filter.Doc{{Key: "$exists", Value: false}}},
	})
	assert.Equal(t, "n.name IS NULL", frag.Text)
	assert.Empty(t, frag.Parameters)

	frag = compile(t, filter.Doc{
		{Key: "name", Value: filter.Doc{{Key: "$exists", Value: true}}},
	})
	assert.Equal(t, "n.name IS NOT NULL", frag.Text)
}

func TestCompile_LogicalOperators(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "$or", Value: []any{
			filter.Doc{{Key: "age", Value: filter.Doc{{Key: "$lt", Value: 18}}}},
			filter.Doc{{Key: "age", Value: filter.Doc{{Key: "$gt", Value: 65}}}},
		}},
	})

	assert.Equal(t, "(n.age < $n_0 OR n.age > $n_1)", frag.Text)
}

func TestCompile_IdentityOperators(t *testing.T) {
	frag := compile(t, filter.Doc{{Key: "$elementId", Value: "4:abc:17"}})
	assert.Equal(t, "elementId(n) = $n_0", frag.Text)
	assert.Equal(t, map[string]any{"n_0": "4:abc:17"}, frag.Parameters)

	frag = compile(t, filter.Doc{{Key: "$id", Value: 17}})
	assert.Equal(t, "ID(n) = $n_0", frag.Text)

	frag = compile(t, filter.Doc{{Key: "$labels", Value: "Person"}})
	assert.Equal(t, "ALL(l IN $n_0 WHERE l IN labels(n))", frag.Text)
	assert.Equal(t, map[string]any{"n_0": []any{"Person"}}, frag.Parameters)
}

func TestCompile_CaseInsensitiveStringOperators(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "name", Value: filter.Doc{{Key: "$istartsWith", Value: "an"}}},
	})

	assert.Equal(t, "toLower(n.name) STARTS WITH toLower($n_0)", frag.Text)
}

func TestCompile_NegatedMembership(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "age", Value: filter.Doc{{Key: "$nin", Value: []any{30, 40}}}},
	})

	assert.Equal(t, "NOT n.age IN $n_0", frag.Text)
	assert.Equal(t, map[string]any{"n_0": []any{30, 40}}, frag.Parameters)
}

func TestCompile_RawQuerySplicesVerbatim(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: filter.KeyRawQuery, Value: "n.age > $cutoff"},
		{Key: filter.KeyRawParameters, Value: map[string]any{"cutoff": 30}},
	})

	assert.Equal(t, "n.age > $cutoff", frag.Text)
	assert.Equal(t, map[string]any{"cutoff": 30}, frag.Parameters)
}

func TestCompile_ParameterNamesAreUnique(t *testing.T) {
	frag := compile(t, filter.Doc{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
		{Key: "c", Value: filter.Doc{
			{Key: "$gt", Value: 3},
			{Key: "$lt", Value: 4},
		}},
	})

	assert.Len(t, frag.Parameters, 4)
	assert.Equal(t, map[string]any{"n_0": 1, "n_1": 2, "n_2": 3, "n_3": 4}, frag.Parameters)
}

func TestCompile_Deterministic(t *testing.T) {
	doc := filter.Validate(filter.Normalize(filter.Doc{
		{Key: "age", Value: filter.Doc{{Key: "$gte", Value: 21}}},
		{Key: "name", Value: filter.Doc{{Key: "$icontains", Value: "ann"}}},
	})).Doc

	first, err := CompileFilter(doc, "n")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := CompileFilter(doc, "n")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompile_EmptyDocument(t *testing.T) {
	frag, err := CompileFilter(filter.Doc{}, "n")

	require.NoError(t, err)
	assert.True(t, frag.Empty())
	assert.Empty(t, frag.Parameters)
}

func TestCompile_DifferentRefChangesParameterNames(t *testing.T) {
	doc := filter.Normalize(filter.Doc{{Key: "age", Value: 30}})

	frag, err := CompileFilter(doc, "m")
	require.NoError(t, err)

	assert.Equal(t, "m.age = $m_0", frag.Text)
	assert.Equal(t, map[string]any{"m_0": 30}, frag.Parameters)
}

func TestCompile_MalformedTreeErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  filter.Doc
	}{
		{"logical value not a list", filter.Doc{{Key: "$and", Value: 5}}},
		{"logical operand not a document", filter.Doc{{Key: "$or", Value: []any{5}}}},
		{"unknown operator", filter.Doc{{Key: "$bogus", Value: 1}}},
		{"property value not a document", filter.Doc{{Key: "age", Value: 30}}},
		{"not value not a document", filter.Doc{{Key: "$not", Value: 5}}},
		{"exists value not a bool", filter.Doc{{Key: "name", Value: filter.Doc{{Key: "$exists", Value: 1}}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileFilter(tc.doc, "n")
			require.Error(t, err)
			assert.True(t, filter.IsMalformedTree(err))
		})
	}
}
