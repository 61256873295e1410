// Package grapnel is an object-graph mapper for property-graph databases.
//
// Callers register node and relationship schemas once, then query them
// with declarative, operator-based filter documents instead of hand-written
// Cypher:
//
//	reg := schema.NewRegistry()
//	_ = schema.LoadFile(reg, "models.cue")
//
//	client := grapnel.New(sess, reg)
//	devs, err := client.FindMany(ctx, "Developer", filter.Doc{
//		{Key: "age", Value: filter.Doc{{Key: "$gte", Value: 21}}},
//	}, grapnel.WithAutoFetch())
//
// Filters are normalized, validated and compiled into parameterized query
// fragments; declared relationships can be fetched eagerly in the same
// statement, and the flat result rows are reassembled into an object graph
// with one entity per distinct identity.
//
// The client is synchronous and holds no mutable state across calls; it is
// safe for concurrent use as long as the registry is not mutated while
// queries are in flight.
package grapnel
