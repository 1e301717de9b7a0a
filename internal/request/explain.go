package request

import (
	"github.com/roach88/ddbexpr/internal/attrval"
	"github.com/roach88/ddbexpr/internal/expr"
)

// Explain renders the expressions of op without placeholders, labelled
// like Wire.Expressions. numbers is the numeric hint for literals.
func Explain(op Operation, numbers attrval.NumberDecoder) []Labelled {
	var w Wire
	switch o := op.(type) {
	case *Get:
		w.Projection = o.Projection.Debug()
	case *Put:
		w.Condition = debugCondition(o.Condition, numbers)
	case *Update:
		w.Update = o.Expression.Debug(numbers)
		w.Condition = debugCondition(o.Condition, numbers)
	case *Delete:
		w.Condition = debugCondition(o.Condition, numbers)
	case *ConditionCheck:
		w.Condition = debugCondition(o.Condition, numbers)
	case *Query:
		w.KeyCondition = debugCondition(o.KeyCondition, numbers)
		w.Filter = debugCondition(o.Filter, numbers)
		w.Projection = o.Projection.Debug()
	case *Scan:
		w.Filter = debugCondition(o.Filter, numbers)
		w.Projection = o.Projection.Debug()
	}
	return w.Expressions()
}

func debugCondition(c expr.Condition, numbers attrval.NumberDecoder) string {
	if c == nil {
		return ""
	}
	return c.Debug(numbers)
}
