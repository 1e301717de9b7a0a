package expr

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/ddbexpr/internal/attrval"
)

// Action is a single mutation of an update expression.
//
// This is a sealed interface - only types in this package implement it.
//
// Action types:
//   - *SetAction:    SET clause (plain, if_not_exists, increment, list_append)
//   - *RemoveAction: REMOVE clause
//   - *AddAction:    ADD clause (number increment or set union)
//   - *DeleteAction: DELETE clause (set difference)
type Action interface {
	actionNode() // Marker method - seals interface to this package
}

// SetMode selects the right-hand side form of a SET action.
type SetMode int

const (
	// SetValue renders <path> = <value>.
	SetValue SetMode = iota
	// SetIfNotExists renders <path> = if_not_exists(<path>, <value>).
	SetIfNotExists
	// SetChange renders <path> = <path> + <value>, or - for negative deltas.
	SetChange
	// SetAppend renders <path> = list_append(<path>, <value>).
	SetAppend
)

type SetAction struct {
	Path  Path
	Value any
	Mode  SetMode
}

type RemoveAction struct {
	Path Path
}

type AddAction struct {
	Path  Path
	Value any
}

type DeleteAction struct {
	Path  Path
	Value any
}

func (*SetAction) actionNode()    {}
func (*RemoveAction) actionNode() {}
func (*AddAction) actionNode()    {}
func (*DeleteAction) actionNode() {}

// UpdateExpression is an ordered collection of actions.
//
// Actions are kept in the order they were combined. Encoding groups them by
// clause in the fixed order SET, REMOVE, ADD, DELETE; within a clause the
// combination order is preserved. The zero value is an empty update.
type UpdateExpression struct {
	actions []Action
}

// NewUpdate builds an update expression from actions.
func NewUpdate(actions ...Action) UpdateExpression {
	return UpdateExpression{actions: slices.Clone(actions)}
}

// And returns a new expression with the actions of others appended.
func (u UpdateExpression) And(others ...UpdateExpression) UpdateExpression {
	out := slices.Clone(u.actions)
	for _, o := range others {
		out = append(out, o.actions...)
	}
	return UpdateExpression{actions: out}
}

// Actions returns the actions in combination order, independent of kind.
func (u UpdateExpression) Actions() []Action {
	return slices.Clone(u.actions)
}

// IsEmpty reports whether u has no actions. An empty update encodes to
// the empty string and must not be sent.
func (u UpdateExpression) IsEmpty() bool {
	return len(u.actions) == 0
}

// Set builds SET <path> = v.
func (p Path) Set(v any) UpdateExpression {
	return NewUpdate(&SetAction{Path: p, Value: v})
}

// SetIfNotExists builds SET <path> = if_not_exists(<path>, v).
func (p Path) SetIfNotExists(v any) UpdateExpression {
	return NewUpdate(&SetAction{Path: p, Value: v, Mode: SetIfNotExists})
}

// Change builds SET <path> = <path> + delta. Negative numeric deltas are
// rendered as subtraction of the absolute value.
func (p Path) Change(delta any) UpdateExpression {
	return NewUpdate(&SetAction{Path: p, Value: delta, Mode: SetChange})
}

// Append builds SET <path> = list_append(<path>, list).
func (p Path) Append(list any) UpdateExpression {
	return NewUpdate(&SetAction{Path: p, Value: list, Mode: SetAppend})
}

// Remove builds REMOVE <path>.
func (p Path) Remove() UpdateExpression {
	return NewUpdate(&RemoveAction{Path: p})
}

// Add builds ADD <path> v.
func (p Path) Add(v any) UpdateExpression {
	return NewUpdate(&AddAction{Path: p, Value: v})
}

// Delete builds DELETE <path> v.
func (p Path) Delete(v any) UpdateExpression {
	return NewUpdate(&DeleteAction{Path: p, Value: v})
}

// clauses holds rendered entries per clause keyword.
type clauses struct {
	set, remove, add, del []string
}

func (c clauses) String() string {
	var out []string
	for _, cl := range []struct {
		keyword string
		entries []string
	}{
		{"SET", c.set},
		{"REMOVE", c.remove},
		{"ADD", c.add},
		{"DELETE", c.del},
	} {
		if len(cl.entries) > 0 {
			out = append(out, cl.keyword+" "+strings.Join(cl.entries, ", "))
		}
	}
	return strings.Join(out, " ")
}

// Encode compiles the update expression. Clauses are encoded in the order
// SET, REMOVE, ADD, DELETE, so placeholders are numbered in that order too.
// An empty update returns "" and no error.
func (u UpdateExpression) Encode(p *Parameters) (string, error) {
	var c clauses
	var err error
	if c.set, err = encodeKind[*SetAction](u.actions, func(a *SetAction) (string, error) {
		return encodeSet(p, a)
	}); err != nil {
		return "", err
	}
	if c.remove, err = encodeKind[*RemoveAction](u.actions, func(a *RemoveAction) (string, error) {
		return a.Path.Encode(p), nil
	}); err != nil {
		return "", err
	}
	if c.add, err = encodeKind[*AddAction](u.actions, func(a *AddAction) (string, error) {
		return encodePathValue(p, a.Path, a.Value)
	}); err != nil {
		return "", err
	}
	if c.del, err = encodeKind[*DeleteAction](u.actions, func(a *DeleteAction) (string, error) {
		return encodePathValue(p, a.Path, a.Value)
	}); err != nil {
		return "", err
	}
	return c.String(), nil
}

func encodeKind[T Action](actions []Action, enc func(T) (string, error)) ([]string, error) {
	var out []string
	for _, a := range actions {
		if t, ok := a.(T); ok {
			s, err := enc(t)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func encodePathValue(p *Parameters, path Path, v any) (string, error) {
	name := path.Encode(p)
	val, err := encodeOperand(p, path, v)
	if err != nil {
		return "", err
	}
	return name + " " + val, nil
}

func encodeSet(p *Parameters, a *SetAction) (string, error) {
	name := a.Path.Encode(p)
	if a.Mode == SetChange {
		av, op, err := changeDelta(a)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s %s %s", name, name, op, p.Value(av)), nil
	}
	val, err := encodeOperand(p, a.Path, a.Value)
	if err != nil {
		return "", err
	}
	return setEntry(a.Mode, name, val), nil
}

func setEntry(mode SetMode, name, val string) string {
	switch mode {
	case SetIfNotExists:
		return fmt.Sprintf("%s = if_not_exists(%s, %s)", name, name, val)
	case SetAppend:
		return fmt.Sprintf("%s = list_append(%s, %s)", name, name, val)
	default:
		return name + " = " + val
	}
}

// changeDelta encodes the delta of a SetChange action and splits off its
// sign, so the expression never carries a negative literal.
func changeDelta(a *SetAction) (types.AttributeValue, string, error) {
	av, err := attrval.Marshal(a.Value)
	if err != nil {
		return nil, "", newInvalidValueError(a.Path, err)
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return nil, "", &CompileError{
			Code:    ErrCodeInvalidValue,
			Message: fmt.Sprintf("change delta must be a number, got %T", a.Value),
			Path:    a.Path.String(),
		}
	}
	if abs, neg := strings.CutPrefix(n.Value, "-"); neg {
		return &types.AttributeValueMemberN{Value: abs}, "-", nil
	}
	return n, "+", nil
}

// Debug renders the update without an allocator, with the same clause
// layout as Encode: SET a = 1 REMOVE c ADD b 2 DELETE d {'e'}.
func (u UpdateExpression) Debug(numbers attrval.NumberDecoder) string {
	var c clauses
	for _, a := range u.actions {
		switch act := a.(type) {
		case *SetAction:
			c.set = append(c.set, debugSet(act, numbers))
		case *RemoveAction:
			c.remove = append(c.remove, act.Path.Debug())
		case *AddAction:
			c.add = append(c.add, act.Path.Debug()+" "+debugOperand(act.Value, numbers))
		case *DeleteAction:
			c.del = append(c.del, act.Path.Debug()+" "+debugOperand(act.Value, numbers))
		}
	}
	return c.String()
}

func debugSet(a *SetAction, numbers attrval.NumberDecoder) string {
	name := a.Path.Debug()
	if a.Mode == SetChange {
		av, op, err := changeDelta(a)
		if err != nil {
			return fmt.Sprintf("%s = %s + %%!(%s)", name, name, err)
		}
		return fmt.Sprintf("%s = %s %s %s", name, name, op, attrval.Render(av, numbers))
	}
	return setEntry(a.Mode, name, debugOperand(a.Value, numbers))
}
