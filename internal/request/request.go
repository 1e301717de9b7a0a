package request

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/ddbexpr/internal/attrval"
	"github.com/roach88/ddbexpr/internal/expr"
)

// ErrNoTable is returned when an operation has no table name.
var ErrNoTable = errors.New("table name is required")

// Operation names, as they appear in request documents and the catalogue.
const (
	OpGet            = "get"
	OpPut            = "put"
	OpUpdate         = "update"
	OpDelete         = "delete"
	OpConditionCheck = "condition_check"
	OpQuery          = "query"
	OpScan           = "scan"
)

// Operation is a single request whose expressions can be compiled.
//
// Compile uses a fresh Parameters on every call, so an Operation can be
// compiled any number of times and from several goroutines.
type Operation interface {
	// Name returns one of the Op* constants.
	Name() string

	// Compile encodes every expression of the request against one
	// allocator and returns them together with the side table.
	Compile() (*Compiled, error)
}

// Compiled is the protocol-level form of an operation: expression strings, encoded
// key or item, and the side table shared by all expressions.
type Compiled struct {
	Operation string
	Table     string
	Index     string

	Key      map[string]types.AttributeValue
	Item     map[string]types.AttributeValue
	StartKey map[string]types.AttributeValue

	KeyCondition string
	Condition    string
	Filter       string
	Update       string
	Projection   string

	expr.SideTable
}

// Get reads one item by key.
type Get struct {
	Table          string
	Key            map[string]any
	Projection     expr.Projection
	ConsistentRead bool
}

// Put writes a whole item, optionally guarded by a condition.
type Put struct {
	Table        string
	Item         map[string]any
	Condition    expr.Condition
	ReturnValues types.ReturnValue
}

// Update applies an update expression to the item at Key.
type Update struct {
	Table        string
	Key          map[string]any
	Expression   expr.UpdateExpression
	Condition    expr.Condition
	ReturnValues types.ReturnValue
}

// Delete removes the item at Key.
type Delete struct {
	Table        string
	Key          map[string]any
	Condition    expr.Condition
	ReturnValues types.ReturnValue
}

// ConditionCheck is the condition-only element of a write transaction.
type ConditionCheck struct {
	Table     string
	Key       map[string]any
	Condition expr.Condition
}

// Query reads the items matching a key condition.
type Query struct {
	Table          string
	Index          string
	KeyCondition   expr.Condition
	Filter         expr.Condition
	Projection     expr.Projection
	Limit          int32
	ScanForward    *bool
	Select         types.Select
	ConsistentRead bool
	StartKey       map[string]any
}

// Scan reads every item of a table or index, optionally filtered.
type Scan struct {
	Table          string
	Index          string
	Filter         expr.Condition
	Projection     expr.Projection
	Limit          int32
	Select         types.Select
	ConsistentRead bool
	StartKey       map[string]any
	Segment        int32
	TotalSegments  int32
}

func (*Get) Name() string            { return OpGet }
func (*Put) Name() string            { return OpPut }
func (*Update) Name() string         { return OpUpdate }
func (*Delete) Name() string         { return OpDelete }
func (*ConditionCheck) Name() string { return OpConditionCheck }
func (*Query) Name() string          { return OpQuery }
func (*Scan) Name() string           { return OpScan }

// Compile implements Operation.
func (g *Get) Compile() (*Compiled, error) {
	c, p, err := begin(g, g.Table)
	if err != nil {
		return nil, err
	}
	if c.Key, err = encodeKey("key", g.Key); err != nil {
		return nil, err
	}
	c.Projection = g.Projection.Encode(p)
	return c.finish(p), nil
}

// Compile implements Operation.
func (op *Put) Compile() (*Compiled, error) {
	c, p, err := begin(op, op.Table)
	if err != nil {
		return nil, err
	}
	if c.Item, err = encodeKey("item", op.Item); err != nil {
		return nil, err
	}
	if c.Condition, err = encodeCondition(op.Condition, p); err != nil {
		return nil, err
	}
	return c.finish(p), nil
}

// Compile implements Operation. The update expression is encoded before
// the condition, so its placeholders come first.
func (u *Update) Compile() (*Compiled, error) {
	c, p, err := begin(u, u.Table)
	if err != nil {
		return nil, err
	}
	if c.Key, err = encodeKey("key", u.Key); err != nil {
		return nil, err
	}
	if u.Expression.IsEmpty() {
		return nil, expr.NewEmptyItemError("update expression")
	}
	if c.Update, err = u.Expression.Encode(p); err != nil {
		return nil, err
	}
	if c.Condition, err = encodeCondition(u.Condition, p); err != nil {
		return nil, err
	}
	return c.finish(p), nil
}

// Compile implements Operation.
func (d *Delete) Compile() (*Compiled, error) {
	c, p, err := begin(d, d.Table)
	if err != nil {
		return nil, err
	}
	if c.Key, err = encodeKey("key", d.Key); err != nil {
		return nil, err
	}
	if c.Condition, err = encodeCondition(d.Condition, p); err != nil {
		return nil, err
	}
	return c.finish(p), nil
}

// Compile implements Operation.
func (cc *ConditionCheck) Compile() (*Compiled, error) {
	c, p, err := begin(cc, cc.Table)
	if err != nil {
		return nil, err
	}
	if c.Key, err = encodeKey("key", cc.Key); err != nil {
		return nil, err
	}
	if cc.Condition == nil {
		return nil, expr.NewEmptyItemError("condition check condition")
	}
	if c.Condition, err = cc.Condition.Encode(p); err != nil {
		return nil, err
	}
	return c.finish(p), nil
}

// Compile implements Operation. Key condition, filter and projection share
// one allocator and are encoded in that order.
func (q *Query) Compile() (*Compiled, error) {
	c, p, err := begin(q, q.Table)
	if err != nil {
		return nil, err
	}
	if q.KeyCondition == nil {
		return nil, expr.NewEmptyItemError("key condition")
	}
	c.Index = q.Index
	if c.KeyCondition, err = q.KeyCondition.Encode(p); err != nil {
		return nil, err
	}
	if c.Filter, err = encodeCondition(q.Filter, p); err != nil {
		return nil, err
	}
	c.Projection = q.Projection.Encode(p)
	if c.StartKey, err = encodeStartKey(q.StartKey); err != nil {
		return nil, err
	}
	return c.finish(p), nil
}

// Compile implements Operation.
func (s *Scan) Compile() (*Compiled, error) {
	c, p, err := begin(s, s.Table)
	if err != nil {
		return nil, err
	}
	if !s.validSegment() {
		return nil, fmt.Errorf("scan segment %d out of range for %d segments", s.Segment, s.TotalSegments)
	}
	c.Index = s.Index
	if c.Filter, err = encodeCondition(s.Filter, p); err != nil {
		return nil, err
	}
	c.Projection = s.Projection.Encode(p)
	if c.StartKey, err = encodeStartKey(s.StartKey); err != nil {
		return nil, err
	}
	return c.finish(p), nil
}

// validSegment reports whether Segment addresses one of TotalSegments.
// An unsegmented scan has both at zero.
func (s *Scan) validSegment() bool {
	if s.TotalSegments == 0 {
		return s.Segment == 0
	}
	return s.TotalSegments > 0 && s.Segment >= 0 && s.Segment < s.TotalSegments
}

func begin(op Operation, table string) (*Compiled, *expr.Parameters, error) {
	if table == "" {
		return nil, nil, fmt.Errorf("%s: %w", op.Name(), ErrNoTable)
	}
	return &Compiled{Operation: op.Name(), Table: table}, expr.NewParameters(), nil
}

func (c *Compiled) finish(p *expr.Parameters) *Compiled {
	c.SideTable = p.SideTable()
	return c
}

// encodeKey encodes a key or item. what names it in the empty-item error.
func encodeKey(what string, attrs map[string]any) (map[string]types.AttributeValue, error) {
	if len(attrs) == 0 {
		return nil, expr.NewEmptyItemError(what)
	}
	av, err := attrval.MarshalItem(attrs)
	if err != nil {
		return nil, &expr.CompileError{
			Code:    expr.ErrCodeInvalidValue,
			Message: "cannot encode " + what,
			Err:     err,
		}
	}
	return av, nil
}

func encodeStartKey(attrs map[string]any) (map[string]types.AttributeValue, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	return encodeKey("start key", attrs)
}

func encodeCondition(c expr.Condition, p *expr.Parameters) (string, error) {
	if c == nil {
		return "", nil
	}
	return c.Encode(p)
}

// optional maps the empty expression to an absent field.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func optionalInt32(n int32) *int32 {
	if n == 0 {
		return nil
	}
	return aws.Int32(n)
}

func optionalBool(b bool) *bool {
	if !b {
		return nil
	}
	return aws.Bool(b)
}

// Input builds the GetItem request.
func (g *Get) Input() (*dynamodb.GetItemInput, error) {
	c, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemInput{
		TableName:                aws.String(c.Table),
		Key:                      c.Key,
		ProjectionExpression:     optional(c.Projection),
		ConsistentRead:           optionalBool(g.ConsistentRead),
		ExpressionAttributeNames: c.ExpressionAttributeNames,
	}, nil
}

// Input builds the PutItem request.
func (op *Put) Input() (*dynamodb.PutItemInput, error) {
	c, err := op.Compile()
	if err != nil {
		return nil, err
	}
	return &dynamodb.PutItemInput{
		TableName:                 aws.String(c.Table),
		Item:                      c.Item,
		ConditionExpression:       optional(c.Condition),
		ReturnValues:              op.ReturnValues,
		ExpressionAttributeNames:  c.ExpressionAttributeNames,
		ExpressionAttributeValues: c.ExpressionAttributeValues,
	}, nil
}

// Input builds the UpdateItem request.
func (u *Update) Input() (*dynamodb.UpdateItemInput, error) {
	c, err := u.Compile()
	if err != nil {
		return nil, err
	}
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.Table),
		Key:                       c.Key,
		UpdateExpression:          aws.String(c.Update),
		ConditionExpression:       optional(c.Condition),
		ReturnValues:              u.ReturnValues,
		ExpressionAttributeNames:  c.ExpressionAttributeNames,
		ExpressionAttributeValues: c.ExpressionAttributeValues,
	}, nil
}

// Input builds the DeleteItem request.
func (d *Delete) Input() (*dynamodb.DeleteItemInput, error) {
	c, err := d.Compile()
	if err != nil {
		return nil, err
	}
	return &dynamodb.DeleteItemInput{
		TableName:                 aws.String(c.Table),
		Key:                       c.Key,
		ConditionExpression:       optional(c.Condition),
		ReturnValues:              d.ReturnValues,
		ExpressionAttributeNames:  c.ExpressionAttributeNames,
		ExpressionAttributeValues: c.ExpressionAttributeValues,
	}, nil
}

// Input builds the transaction element.
func (cc *ConditionCheck) Input() (*types.ConditionCheck, error) {
	c, err := cc.Compile()
	if err != nil {
		return nil, err
	}
	return &types.ConditionCheck{
		TableName:                 aws.String(c.Table),
		Key:                       c.Key,
		ConditionExpression:       aws.String(c.Condition),
		ExpressionAttributeNames:  c.ExpressionAttributeNames,
		ExpressionAttributeValues: c.ExpressionAttributeValues,
	}, nil
}

// Input builds the Query request.
func (q *Query) Input() (*dynamodb.QueryInput, error) {
	c, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(c.Table),
		IndexName:                 optional(c.Index),
		KeyConditionExpression:    aws.String(c.KeyCondition),
		FilterExpression:          optional(c.Filter),
		ProjectionExpression:      optional(c.Projection),
		Limit:                     optionalInt32(q.Limit),
		ScanIndexForward:          q.ScanForward,
		Select:                    q.Select,
		ConsistentRead:            optionalBool(q.ConsistentRead),
		ExclusiveStartKey:         c.StartKey,
		ExpressionAttributeNames:  c.ExpressionAttributeNames,
		ExpressionAttributeValues: c.ExpressionAttributeValues,
	}, nil
}

// Input builds the Scan request.
func (s *Scan) Input() (*dynamodb.ScanInput, error) {
	c, err := s.Compile()
	if err != nil {
		return nil, err
	}
	in := &dynamodb.ScanInput{
		TableName:                 aws.String(c.Table),
		IndexName:                 optional(c.Index),
		FilterExpression:          optional(c.Filter),
		ProjectionExpression:      optional(c.Projection),
		Limit:                     optionalInt32(s.Limit),
		Select:                    s.Select,
		ConsistentRead:            optionalBool(s.ConsistentRead),
		ExclusiveStartKey:         c.StartKey,
		ExpressionAttributeNames:  c.ExpressionAttributeNames,
		ExpressionAttributeValues: c.ExpressionAttributeValues,
	}
	if s.TotalSegments > 0 {
		in.Segment = aws.Int32(s.Segment)
		in.TotalSegments = aws.Int32(s.TotalSegments)
	}
	return in, nil
}
