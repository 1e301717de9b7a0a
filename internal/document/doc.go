// Package document loads declarative request documents and turns them
// into request operations.
//
// A document is YAML (or JSON) or CUE. CUE documents are evaluated and
// must be concrete; they are then decoded with the same strict decoder as
// YAML, so unknown fields are rejected in both formats:
//
//	operation: query
//	table: orders
//	key_condition:
//	  partition: [{name: tenant, value: t1}]
//	  sort: [{name: created, op: gt, value: 100}]
//	filter:
//	  and:
//	    - {path: status, op: eq, value: open}
//	    - {path: [lines, 0, sku], op: begins_with, value: "A-"}
//	projection: [id, [lines, 0]]
//
// Build reports problems as *FieldError with a dotted location such as
// filter.and[1].op.
package document
