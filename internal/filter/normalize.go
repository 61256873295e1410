package filter

// Normalize rewrites a raw filter document into its canonical form, where
// every predicate is an explicit operator:
//
//  1. A property key (or $not/$size) whose value is a bare scalar is
//     wrapped in $eq: {"age": 30} becomes {"age": {"$eq": 30}}.
//  2. At any level below the root, a document with more than one key is
//     replaced by an $and of its entries, preserving declaration order.
//  3. Nested documents and list elements are normalized recursively.
//     Documents tagged as raw-query escape hatches ($query/$parameters)
//     are passed through untouched.
//
// Normalize never rejects input; content that cannot be compiled is left
// for the validator to drop. The input document is not mutated.
func Normalize(doc Doc) Doc {
	return normalize(doc, 0)
}

func normalize(doc Doc, level int) Doc {
	out := make(Doc, 0, len(doc))

	// Wrap bare scalar values in an explicit $eq.
	for _, e := range doc {
		v := e.Value
		if !isDoc(v) && !isList(v) {
			if e.Key == "$not" || e.Key == "$size" || !IsOperator(e.Key) {
				v = Doc{{Key: "$eq", Value: v}}
			}
		}
		out = append(out, Entry{Key: e.Key, Value: v})
	}

	// Group sibling keys below the root under an implicit $and.
	if len(out) > 1 && level > 0 {
		operands := make([]any, len(out))
		for i, e := range out {
			operands[i] = Doc{e}
		}
		out = Doc{{Key: "$and", Value: operands}}
	}

	// Raw-query documents carry prebuilt query text and are not recursed
	// into.
	if out.Has(KeyRawQuery) || out.Has(KeyRawParameters) {
		return out
	}

	for i, e := range out {
		switch v := e.Value.(type) {
		case Doc:
			out[i].Value = normalize(v, level+1)
		case []any:
			elems := make([]any, len(v))
			for j, elem := range v {
				switch {
				case isDoc(elem):
					elems[j] = normalize(elem.(Doc), level+1)
				case e.Key == "$all":
					// Bare $all elements are equality checks on the
					// iteration variable.
					elems[j] = Doc{{Key: "$eq", Value: elem}}
				default:
					elems[j] = elem
				}
			}
			out[i].Value = elems
		}
	}

	return out
}
