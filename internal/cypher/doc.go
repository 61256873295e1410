// Package cypher compiles validated filter documents into parameterized
// Cypher fragments and renders the match patterns, projections and query
// options the client layer assembles full statements from.
//
// Compilation is a deterministic pure function of the canonical document
// and the reference variable: parameter names follow "{ref}_{n}" with n
// strictly increasing in traversal order, and traversal order is the
// document's declaration order. A fresh compiler value is created per call,
// so concurrent compilations never share counter state.
package cypher
