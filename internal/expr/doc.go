// Package expr compiles DynamoDB expression ASTs to wire expressions.
//
// Callers build an AST with the fluent constructors, create one Parameters
// per request, and call Encode on every expression of that request:
//
//	params := expr.NewParameters()
//	cond, err := expr.F("status").Equals("active").
//		And(expr.F("tags").Contains("new")).
//		Encode(params)
//	// cond == "#n0 = :v0 AND contains(#n1, :v1)"
//	side := params.SideTable()
//
// ARCHITECTURE:
//
//	[Path / Condition / UpdateExpression / Projection]
//	        |  Encode(params)
//	        v
//	[expression string] + [Parameters.SideTable()]
//	        |
//	        v
//	[request assembly] (internal/request)
//
// PLACEHOLDERS:
//
// Attribute names are always replaced by #nK placeholders (reserved words
// never collide). A name seen twice in the same Parameters reuses its
// placeholder. Literal values become :vK placeholders and are never
// deduplicated. List indices are embedded literally: F("a", 0) -> #n0[0].
//
// FLATTENING:
//
// And/Or merge same-kind connectives into one flat list; mismatched kinds
// nest. Encode wraps nested groups in parentheses but never the outermost
// connective; Debug parenthesizes every connective. PartitionKey is the one
// asymmetric case: on the left of And it splices its equality terms but
// keeps the right operand whole, so
//
//	MultiHashKey(pk1, pk2).And(sk1Cond.And(sk2Cond))
//
// encodes as "#n0 = :v0 AND #n1 = :v1 AND (#n2 = :v2 AND #n3 > :v3)",
// whereas (a.And(b)).And(c.And(d)) encodes as a flat four-term chain.
//
// CONCURRENCY:
//
// AST nodes are immutable and may be shared across goroutines. Parameters
// is mutable and must stay confined to one compilation.
package expr
