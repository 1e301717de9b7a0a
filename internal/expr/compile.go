package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/ddbexpr/internal/attrval"
)

// encodeCondition compiles a condition to its wire expression.
// The outermost connective is never parenthesized; nested groups are.
func encodeCondition(c Condition, p *Parameters) (string, error) {
	if path, ok := subjectPath(c); ok && path.root == "" {
		return "", newEmptyRootError()
	}

	switch cond := c.(type) {
	case *Comparison:
		lhs := cond.Path.Encode(p)
		if cond.Size {
			lhs = "size(" + lhs + ")"
		}
		rhs, err := encodeOperand(p, cond.Path, cond.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", lhs, cond.Operator, rhs), nil

	case *FunctionCall:
		args := []string{cond.Path.Encode(p)}
		for _, arg := range cond.Args {
			s, err := encodeOperand(p, cond.Path, arg)
			if err != nil {
				return "", err
			}
			args = append(args, s)
		}
		return cond.Name + "(" + strings.Join(args, ", ") + ")", nil

	case *Between:
		path := cond.Path.Encode(p)
		low, err := encodeOperand(p, cond.Path, cond.Low)
		if err != nil {
			return "", err
		}
		high, err := encodeOperand(p, cond.Path, cond.High)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", path, low, high), nil

	case *In:
		if len(cond.Values) == 0 || len(cond.Values) > MaxInOperands {
			return "", &CompileError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("IN takes 1-%d values, got %d", MaxInOperands, len(cond.Values)),
				Path:    cond.Path.String(),
			}
		}
		path := cond.Path.Encode(p)
		vals := make([]string, 0, len(cond.Values))
		for _, v := range cond.Values {
			s, err := encodeOperand(p, cond.Path, v)
			if err != nil {
				return "", err
			}
			vals = append(vals, s)
		}
		return path + " IN (" + strings.Join(vals, ", ") + ")", nil

	case *Connective:
		return encodeTerms(p, cond.Kind, cond.Conditions)

	case *Negation:
		inner, err := encodeCondition(cond.Condition, p)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil

	case *PartitionKey:
		return encodeTerms(p, KindAnd, cond.comparisons())

	case nil:
		return "", NewEmptyItemError("condition")

	default:
		return "", &CompileError{
			Code:    ErrCodeInvalidValue,
			Message: fmt.Sprintf("unsupported condition type %T", c),
		}
	}
}

// subjectPath returns the attribute a leaf condition tests. HashKey and
// SortKey build paths directly, so an empty name is only caught here.
func subjectPath(c Condition) (Path, bool) {
	switch cond := c.(type) {
	case *Comparison:
		return cond.Path, true
	case *FunctionCall:
		return cond.Path, true
	case *Between:
		return cond.Path, true
	case *In:
		return cond.Path, true
	}
	return Path{}, false
}

func encodeTerms(p *Parameters, kind ConnectiveKind, terms []Condition) (string, error) {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		s, err := encodeCondition(term, p)
		if err != nil {
			return "", err
		}
		if isGroup(term) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+string(kind)+" "), nil
}

// encodeOperand renders a right-hand side: a Path becomes an encoded path,
// anything else a value placeholder.
func encodeOperand(p *Parameters, owner Path, v any) (string, error) {
	if other, ok := v.(Path); ok {
		return other.Encode(p), nil
	}
	ph, err := p.Literal(v)
	if err != nil {
		return "", newInvalidValueError(owner, err)
	}
	return ph, nil
}

// debugCondition renders a condition without an allocator. Every
// connective is parenthesized, the outermost one included.
func debugCondition(c Condition, numbers attrval.NumberDecoder) string {
	switch cond := c.(type) {
	case *Comparison:
		lhs := cond.Path.Debug()
		if cond.Size {
			lhs = "size(" + lhs + ")"
		}
		return fmt.Sprintf("%s %s %s", lhs, cond.Operator, debugOperand(cond.Value, numbers))

	case *FunctionCall:
		args := []string{cond.Path.Debug()}
		for _, arg := range cond.Args {
			args = append(args, debugOperand(arg, numbers))
		}
		return cond.Name + "(" + strings.Join(args, ", ") + ")"

	case *Between:
		return fmt.Sprintf("%s BETWEEN %s AND %s", cond.Path.Debug(),
			debugOperand(cond.Low, numbers), debugOperand(cond.High, numbers))

	case *In:
		vals := make([]string, len(cond.Values))
		for i, v := range cond.Values {
			vals[i] = debugOperand(v, numbers)
		}
		return cond.Path.Debug() + " IN (" + strings.Join(vals, ", ") + ")"

	case *Connective:
		return debugTerms(cond.Kind, cond.Conditions, numbers)

	case *Negation:
		inner := debugCondition(cond.Condition, numbers)
		if isGroup(cond.Condition) {
			return "NOT " + inner
		}
		return "NOT (" + inner + ")"

	case *PartitionKey:
		if len(cond.parts) == 1 {
			return debugCondition(cond.comparisons()[0], numbers)
		}
		return debugTerms(KindAnd, cond.comparisons(), numbers)

	case nil:
		return "<nil>"

	default:
		return fmt.Sprintf("%%!(%T)", c)
	}
}

func debugTerms(kind ConnectiveKind, terms []Condition, numbers attrval.NumberDecoder) string {
	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = debugCondition(term, numbers)
	}
	return "(" + strings.Join(parts, " "+string(kind)+" ") + ")"
}

func debugOperand(v any, numbers attrval.NumberDecoder) string {
	if other, ok := v.(Path); ok {
		return other.Debug()
	}
	av, err := attrval.Marshal(v)
	if err != nil {
		return "%!(" + err.Error() + ")"
	}
	return attrval.Render(av, numbers)
}
