package expr

import (
	"slices"

	"github.com/roach88/ddbexpr/internal/attrval"
)

// Condition is a node of a condition expression AST.
//
// This is a sealed interface - only types in this package implement it.
// Encode and Debug dispatch through one type switch per renderer
// (compile.go), so the flattening and parenthesization rules live in
// exactly one place.
//
// Condition types:
//   - *Comparison:   path <op> value, size(path) <op> value
//   - *FunctionCall: begins_with, contains, attribute_exists, ...
//   - *Between:      path BETWEEN low AND high
//   - *In:           path IN (v1, v2, ...)
//   - *Connective:   AND / OR over two or more children
//   - *Negation:     NOT (child)
//   - *PartitionKey: multi-attribute partition key equality
//
// All nodes are immutable once built; And, Or and Not return new nodes.
type Condition interface {
	// Encode renders the wire expression, allocating placeholders from params.
	Encode(params *Parameters) (string, error)

	// Debug renders an allocator-free form for diagnostics. numbers is the
	// numeric type hint used when rendering literals.
	Debug(numbers attrval.NumberDecoder) string

	// And combines the receiver with other using AND (the & combinator).
	And(other Condition) Condition

	// Or combines the receiver with other using OR (the | combinator).
	Or(other Condition) Condition

	// Not negates the receiver.
	Not() Condition

	conditionNode() // Marker method - seals interface to this package
}

// Operator is a comparison operator.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "<>"
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
)

// Function names of the condition expression language.
const (
	FuncBeginsWith         = "begins_with"
	FuncContains           = "contains"
	FuncAttributeExists    = "attribute_exists"
	FuncAttributeNotExists = "attribute_not_exists"
	FuncAttributeType      = "attribute_type"
)

// AttributeType is the type argument of attribute_type.
type AttributeType string

const (
	TypeString    AttributeType = "S"
	TypeStringSet AttributeType = "SS"
	TypeNumber    AttributeType = "N"
	TypeNumberSet AttributeType = "NS"
	TypeBinary    AttributeType = "B"
	TypeBinarySet AttributeType = "BS"
	TypeBoolean   AttributeType = "BOOL"
	TypeNull      AttributeType = "NULL"
	TypeList      AttributeType = "L"
	TypeMap       AttributeType = "M"
)

// MaxInOperands is the largest operand list DynamoDB accepts for IN.
const MaxInOperands = 100

// Comparison compares a path (or its size) against a literal or another path.
//
// Semantics:
//
//	<path> <op> <value>
//	size(<path>) <op> <value>
//
// Value is any literal accepted by attrval.Marshal, or a Path. A Path
// renders as an encoded path instead of a value placeholder.
type Comparison struct {
	Path     Path
	Size     bool
	Operator Operator
	Value    any
}

// FunctionCall applies a condition function to a path.
//
// Semantics:
//
//	<name>(<path>)
//	<name>(<path>, <arg>, ...)
type FunctionCall struct {
	Name string
	Path Path
	Args []any
}

// Between is an inclusive range test: <path> BETWEEN <low> AND <high>.
type Between struct {
	Path Path
	Low  any
	High any
}

// In is a membership test: <path> IN (<v1>, <v2>, ...).
// DynamoDB accepts 1 to MaxInOperands values.
type In struct {
	Path   Path
	Values []any
}

// ConnectiveKind selects AND or OR.
type ConnectiveKind string

const (
	KindAnd ConnectiveKind = "AND"
	KindOr  ConnectiveKind = "OR"
)

// Connective joins two or more conditions with AND or OR.
//
// Connectives built with And/Or are flat: combining two connectives of the
// same kind merges their children, and combining with a leaf appends or
// prepends it. Mismatched kinds nest.
type Connective struct {
	Kind       ConnectiveKind
	Conditions []Condition
}

// Negation is NOT (<condition>).
type Negation struct {
	Condition Condition
}

func (*Comparison) conditionNode()   {}
func (*FunctionCall) conditionNode() {}
func (*Between) conditionNode()      {}
func (*In) conditionNode()           {}
func (*Connective) conditionNode()   {}
func (*Negation) conditionNode()     {}
func (*PartitionKey) conditionNode() {}

// And combines a and b with AND, flattening same-kind connectives.
func And(a, b Condition) Condition {
	return combine(KindAnd, a, b)
}

// Or combines a and b with OR, flattening same-kind connectives.
func Or(a, b Condition) Condition {
	return combine(KindOr, a, b)
}

// Not negates c.
func Not(c Condition) Condition {
	return &Negation{Condition: c}
}

// combine applies the flattening rules. A PartitionKey on the left of an
// AND contributes its component comparisons while the right operand is kept
// whole, even when it is itself an AND; key conditions rely on that.
func combine(kind ConnectiveKind, a, b Condition) Condition {
	if pk, ok := a.(*PartitionKey); ok && kind == KindAnd {
		return &Connective{Kind: kind, Conditions: append(pk.comparisons(), b)}
	}
	return &Connective{Kind: kind, Conditions: slices.Concat(operands(kind, a), operands(kind, b))}
}

// operands returns the children c contributes to a connective of kind.
func operands(kind ConnectiveKind, c Condition) []Condition {
	if conn, ok := c.(*Connective); ok && conn.Kind == kind {
		return conn.Conditions
	}
	return []Condition{c}
}

// isGroup reports whether c renders as several terms and therefore needs
// parentheses when it appears inside another connective.
func isGroup(c Condition) bool {
	switch v := c.(type) {
	case *Connective:
		return true
	case *PartitionKey:
		return len(v.parts) > 1
	default:
		return false
	}
}

func (c *Comparison) Encode(p *Parameters) (string, error)   { return encodeCondition(c, p) }
func (c *FunctionCall) Encode(p *Parameters) (string, error) { return encodeCondition(c, p) }
func (c *Between) Encode(p *Parameters) (string, error)      { return encodeCondition(c, p) }
func (c *In) Encode(p *Parameters) (string, error)           { return encodeCondition(c, p) }
func (c *Connective) Encode(p *Parameters) (string, error)   { return encodeCondition(c, p) }
func (c *Negation) Encode(p *Parameters) (string, error)     { return encodeCondition(c, p) }
func (c *PartitionKey) Encode(p *Parameters) (string, error) { return encodeCondition(c, p) }

func (c *Comparison) Debug(n attrval.NumberDecoder) string   { return debugCondition(c, n) }
func (c *FunctionCall) Debug(n attrval.NumberDecoder) string { return debugCondition(c, n) }
func (c *Between) Debug(n attrval.NumberDecoder) string      { return debugCondition(c, n) }
func (c *In) Debug(n attrval.NumberDecoder) string           { return debugCondition(c, n) }
func (c *Connective) Debug(n attrval.NumberDecoder) string   { return debugCondition(c, n) }
func (c *Negation) Debug(n attrval.NumberDecoder) string     { return debugCondition(c, n) }
func (c *PartitionKey) Debug(n attrval.NumberDecoder) string { return debugCondition(c, n) }

func (c *Comparison) And(o Condition) Condition   { return And(c, o) }
func (c *FunctionCall) And(o Condition) Condition { return And(c, o) }
func (c *Between) And(o Condition) Condition      { return And(c, o) }
func (c *In) And(o Condition) Condition           { return And(c, o) }
func (c *Connective) And(o Condition) Condition   { return And(c, o) }
func (c *Negation) And(o Condition) Condition     { return And(c, o) }
func (c *PartitionKey) And(o Condition) Condition { return And(c, o) }

func (c *Comparison) Or(o Condition) Condition   { return Or(c, o) }
func (c *FunctionCall) Or(o Condition) Condition { return Or(c, o) }
func (c *Between) Or(o Condition) Condition      { return Or(c, o) }
func (c *In) Or(o Condition) Condition           { return Or(c, o) }
func (c *Connective) Or(o Condition) Condition   { return Or(c, o) }
func (c *Negation) Or(o Condition) Condition     { return Or(c, o) }
func (c *PartitionKey) Or(o Condition) Condition { return Or(c, o) }

func (c *Comparison) Not() Condition   { return Not(c) }
func (c *FunctionCall) Not() Condition { return Not(c) }
func (c *Between) Not() Condition      { return Not(c) }
func (c *In) Not() Condition           { return Not(c) }
func (c *Connective) Not() Condition   { return Not(c) }
func (c *Negation) Not() Condition     { return Not(c) }
func (c *PartitionKey) Not() Condition { return Not(c) }

// Equals builds <path> = v.
func (p Path) Equals(v any) Condition { return p.compare(OpEqual, v) }

// NotEquals builds <path> <> v.
func (p Path) NotEquals(v any) Condition { return p.compare(OpNotEqual, v) }

// GT builds <path> > v.
func (p Path) GT(v any) Condition { return p.compare(OpGreater, v) }

// GTE builds <path> >= v.
func (p Path) GTE(v any) Condition { return p.compare(OpGreaterEqual, v) }

// LT builds <path> < v.
func (p Path) LT(v any) Condition { return p.compare(OpLess, v) }

// LTE builds <path> <= v.
func (p Path) LTE(v any) Condition { return p.compare(OpLessEqual, v) }

func (p Path) compare(op Operator, v any) Condition {
	return &Comparison{Path: p, Operator: op, Value: v}
}

// BeginsWith builds begins_with(<path>, prefix).
func (p Path) BeginsWith(prefix any) Condition {
	return &FunctionCall{Name: FuncBeginsWith, Path: p, Args: []any{prefix}}
}

// Contains builds contains(<path>, v): substring for strings, membership for sets.
func (p Path) Contains(v any) Condition {
	return &FunctionCall{Name: FuncContains, Path: p, Args: []any{v}}
}

// Exists builds attribute_exists(<path>).
func (p Path) Exists() Condition {
	return &FunctionCall{Name: FuncAttributeExists, Path: p}
}

// NotExists builds attribute_not_exists(<path>).
func (p Path) NotExists() Condition {
	return &FunctionCall{Name: FuncAttributeNotExists, Path: p}
}

// AttributeType builds attribute_type(<path>, t).
func (p Path) AttributeType(t AttributeType) Condition {
	return &FunctionCall{Name: FuncAttributeType, Path: p, Args: []any{string(t)}}
}

// Between builds <path> BETWEEN low AND high.
func (p Path) Between(low, high any) Condition {
	return &Between{Path: p, Low: low, High: high}
}

// In builds <path> IN (values...).
func (p Path) In(values ...any) Condition {
	return &In{Path: p, Values: slices.Clone(values)}
}

// Size refers to size(<path>) in comparisons.
type Size struct {
	path Path
}

// Size returns the size(<path>) operand.
func (p Path) Size() Size {
	return Size{path: p}
}

func (s Size) Equals(v any) Condition    { return s.compare(OpEqual, v) }
func (s Size) NotEquals(v any) Condition { return s.compare(OpNotEqual, v) }
func (s Size) GT(v any) Condition        { return s.compare(OpGreater, v) }
func (s Size) GTE(v any) Condition       { return s.compare(OpGreaterEqual, v) }
func (s Size) LT(v any) Condition        { return s.compare(OpLess, v) }
func (s Size) LTE(v any) Condition       { return s.compare(OpLessEqual, v) }

func (s Size) compare(op Operator, v any) Condition {
	return &Comparison{Path: s.path, Size: true, Operator: op, Value: v}
}
