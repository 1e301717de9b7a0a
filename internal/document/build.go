package document

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/ddbexpr/internal/attrval"
	"github.com/roach88/ddbexpr/internal/expr"
	"github.com/roach88/ddbexpr/internal/request"
)

// fields lists, per operation, the optional document fields it accepts.
// operation and table are always accepted.
var fields = map[string][]string{
	request.OpGet:            {"key", "projection", "consistent_read"},
	request.OpPut:            {"item", "condition", "return_values"},
	request.OpUpdate:         {"key", "update", "condition", "return_values"},
	request.OpDelete:         {"key", "condition", "return_values"},
	request.OpConditionCheck: {"key", "condition"},
	request.OpQuery: {"index", "key_condition", "filter", "projection", "consistent_read",
		"limit", "scan_forward", "select", "start_key"},
	request.OpScan: {"index", "filter", "projection", "consistent_read", "limit", "select",
		"start_key", "segment", "total_segments"},
}

// Build validates the document and converts it to a request operation.
// Errors are *FieldError values naming the offending location; shape
// errors from the expression layer are wrapped, so expr.IsKeyArity and
// the other predicates still apply.
func (d *Document) Build() (request.Operation, error) {
	allowed, ok := fields[d.Operation]
	if !ok {
		return nil, &FieldError{
			Field:   "operation",
			Message: fmt.Sprintf("unknown operation %q", d.Operation),
		}
	}
	if d.Table == "" {
		return nil, &FieldError{Field: "table", Message: "table is required"}
	}
	for _, f := range d.present() {
		if !slices.Contains(allowed, f) {
			return nil, &FieldError{
				Field:   f,
				Message: fmt.Sprintf("not used by %s operation", d.Operation),
			}
		}
	}

	switch d.Operation {
	case request.OpGet:
		proj, err := buildProjection(d.Projection)
		if err != nil {
			return nil, err
		}
		return &request.Get{Table: d.Table, Key: d.Key, Projection: proj, ConsistentRead: d.ConsistentRead}, nil

	case request.OpPut:
		cond, rv, err := d.writeOptions()
		if err != nil {
			return nil, err
		}
		return &request.Put{Table: d.Table, Item: d.Item, Condition: cond, ReturnValues: rv}, nil

	case request.OpUpdate:
		update, err := buildUpdate(d.Update)
		if err != nil {
			return nil, err
		}
		cond, rv, err := d.writeOptions()
		if err != nil {
			return nil, err
		}
		return &request.Update{Table: d.Table, Key: d.Key, Expression: update, Condition: cond, ReturnValues: rv}, nil

	case request.OpDelete:
		cond, rv, err := d.writeOptions()
		if err != nil {
			return nil, err
		}
		return &request.Delete{Table: d.Table, Key: d.Key, Condition: cond, ReturnValues: rv}, nil

	case request.OpConditionCheck:
		cond, err := buildOptionalCondition("condition", d.Condition)
		if err != nil {
			return nil, err
		}
		return &request.ConditionCheck{Table: d.Table, Key: d.Key, Condition: cond}, nil

	case request.OpQuery:
		return d.buildQuery()

	default:
		return d.buildScan()
	}
}

// present returns the names of the optional fields that are set.
func (d *Document) present() []string {
	var out []string
	add := func(name string, set bool) {
		if set {
			out = append(out, name)
		}
	}
	add("index", d.Index != "")
	add("key", d.Key != nil)
	add("item", d.Item != nil)
	add("key_condition", d.KeyCondition != nil)
	add("condition", d.Condition != nil)
	add("filter", d.Filter != nil)
	add("update", d.Update != nil)
	add("projection", d.Projection != nil)
	add("consistent_read", d.ConsistentRead)
	add("limit", d.Limit != 0)
	add("scan_forward", d.ScanForward != nil)
	add("return_values", d.ReturnValues != "")
	add("select", d.Select != "")
	add("start_key", d.StartKey != nil)
	add("segment", d.Segment != 0)
	add("total_segments", d.TotalSegments != 0)
	return out
}

func (d *Document) writeOptions() (expr.Condition, types.ReturnValue, error) {
	cond, err := buildOptionalCondition("condition", d.Condition)
	if err != nil {
		return nil, "", err
	}
	rv := types.ReturnValue(strings.ToUpper(d.ReturnValues))
	if rv != "" && !slices.Contains(rv.Values(), rv) {
		return nil, "", &FieldError{
			Field:   "return_values",
			Message: fmt.Sprintf("unknown return values %q", d.ReturnValues),
		}
	}
	return cond, rv, nil
}

func (d *Document) selectMode() (types.Select, error) {
	sel := types.Select(strings.ToUpper(d.Select))
	if sel != "" && !slices.Contains(sel.Values(), sel) {
		return "", &FieldError{Field: "select", Message: fmt.Sprintf("unknown select %q", d.Select)}
	}
	return sel, nil
}

func (d *Document) buildQuery() (request.Operation, error) {
	if d.KeyCondition == nil {
		return nil, &FieldError{Field: "key_condition", Message: "query requires a key condition"}
	}
	kc, err := buildKeyCondition(d.KeyCondition)
	if err != nil {
		return nil, err
	}
	filter, err := buildOptionalCondition("filter", d.Filter)
	if err != nil {
		return nil, err
	}
	proj, err := buildProjection(d.Projection)
	if err != nil {
		return nil, err
	}
	sel, err := d.selectMode()
	if err != nil {
		return nil, err
	}
	return &request.Query{
		Table:          d.Table,
		Index:          d.Index,
		KeyCondition:   kc,
		Filter:         filter,
		Projection:     proj,
		Limit:          d.Limit,
		ScanForward:    d.ScanForward,
		Select:         sel,
		ConsistentRead: d.ConsistentRead,
		StartKey:       d.StartKey,
	}, nil
}

func (d *Document) buildScan() (request.Operation, error) {
	filter, err := buildOptionalCondition("filter", d.Filter)
	if err != nil {
		return nil, err
	}
	proj, err := buildProjection(d.Projection)
	if err != nil {
		return nil, err
	}
	sel, err := d.selectMode()
	if err != nil {
		return nil, err
	}
	return &request.Scan{
		Table:          d.Table,
		Index:          d.Index,
		Filter:         filter,
		Projection:     proj,
		Limit:          d.Limit,
		Select:         sel,
		ConsistentRead: d.ConsistentRead,
		StartKey:       d.StartKey,
		Segment:        d.Segment,
		TotalSegments:  d.TotalSegments,
	}, nil
}

func buildKeyCondition(kc *KeyCondition) (expr.Condition, error) {
	parts := make([]expr.KeyPart, len(kc.Partition))
	for i, p := range kc.Partition {
		parts[i] = expr.KeyPart{Name: p.Name, Value: p.Value}
	}
	pk, err := expr.MultiHashKey(parts...)
	if err != nil {
		return nil, &FieldError{Field: "key_condition.partition", Message: "invalid partition key", Err: err}
	}
	if len(kc.Sort) == 0 {
		return pk, nil
	}

	names := make([]string, len(kc.Sort))
	for i, s := range kc.Sort {
		names[i] = s.Name
	}
	keys, err := expr.MultiSortKey(names...)
	if err != nil {
		return nil, &FieldError{Field: "key_condition.sort", Message: "invalid sort key", Err: err}
	}

	var sort expr.Condition
	for i, s := range kc.Sort {
		c, err := buildSortCondition(fmt.Sprintf("key_condition.sort[%d]", i), keys[i], s)
		if err != nil {
			return nil, err
		}
		if sort == nil {
			sort = c
		} else {
			sort = sort.And(c)
		}
	}
	return pk.And(sort), nil
}

func buildSortCondition(field string, key expr.SortKeyAttr, s SortCondition) (expr.Condition, error) {
	switch s.Op {
	case "eq", "=":
		return key.Equals(s.Value), nil
	case "lt", "<":
		return key.LT(s.Value), nil
	case "lte", "<=":
		return key.LTE(s.Value), nil
	case "gt", ">":
		return key.GT(s.Value), nil
	case "gte", ">=":
		return key.GTE(s.Value), nil
	case "begins_with":
		return key.BeginsWith(s.Value), nil
	case "between":
		if len(s.Values) != 2 {
			return nil, &FieldError{Field: field + ".values", Message: fmt.Sprintf("between takes 2 values, got %d", len(s.Values))}
		}
		return key.Between(s.Values[0], s.Values[1]), nil
	default:
		return nil, &FieldError{Field: field + ".op", Message: fmt.Sprintf("unsupported sort key operator %q", s.Op)}
	}
}

func buildOptionalCondition(field string, c *Condition) (expr.Condition, error) {
	if c == nil {
		return nil, nil
	}
	return buildCondition(field, c)
}

// comparisons maps document operator spellings to comparison operators.
var comparisons = map[string]expr.Operator{
	"eq": expr.OpEqual, "=": expr.OpEqual,
	"ne": expr.OpNotEqual, "<>": expr.OpNotEqual,
	"lt": expr.OpLess, "<": expr.OpLess,
	"lte": expr.OpLessEqual, "<=": expr.OpLessEqual,
	"gt": expr.OpGreater, ">": expr.OpGreater,
	"gte": expr.OpGreaterEqual, ">=": expr.OpGreaterEqual,
}

func buildCondition(field string, c *Condition) (expr.Condition, error) {
	kinds := 0
	for _, set := range []bool{c.And != nil, c.Or != nil, c.Not != nil, c.Op != ""} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, &FieldError{Field: field, Message: "condition must have exactly one of and, or, not, op"}
	}

	switch {
	case c.And != nil:
		return buildConnective(field+".and", c.And, expr.And)
	case c.Or != nil:
		return buildConnective(field+".or", c.Or, expr.Or)
	case c.Not != nil:
		inner, err := buildCondition(field+".not", c.Not)
		if err != nil {
			return nil, err
		}
		return expr.Not(inner), nil
	}

	path, err := buildPath(field+".path", c.Path)
	if err != nil {
		return nil, err
	}
	if c.Size {
		op, ok := comparisons[c.Op]
		if !ok {
			return nil, &FieldError{Field: field + ".op", Message: fmt.Sprintf("size supports comparison operators only, got %q", c.Op)}
		}
		v, err := buildOperand(field, c.Operand)
		if err != nil {
			return nil, err
		}
		return &expr.Comparison{Path: path, Size: true, Operator: op, Value: v}, nil
	}
	if op, ok := comparisons[c.Op]; ok {
		v, err := buildOperand(field, c.Operand)
		if err != nil {
			return nil, err
		}
		return &expr.Comparison{Path: path, Operator: op, Value: v}, nil
	}

	switch c.Op {
	case "begins_with":
		v, err := buildOperand(field, c.Operand)
		if err != nil {
			return nil, err
		}
		return path.BeginsWith(v), nil
	case "contains":
		v, err := buildOperand(field, c.Operand)
		if err != nil {
			return nil, err
		}
		return path.Contains(v), nil
	case "exists":
		return path.Exists(), nil
	case "not_exists":
		return path.NotExists(), nil
	case "type":
		if c.Type == "" {
			return nil, &FieldError{Field: field + ".type", Message: "type op requires a type"}
		}
		return path.AttributeType(expr.AttributeType(strings.ToUpper(c.Type))), nil
	case "between":
		if len(c.Values) != 2 {
			return nil, &FieldError{Field: field + ".values", Message: fmt.Sprintf("between takes 2 values, got %d", len(c.Values))}
		}
		return path.Between(c.Values[0], c.Values[1]), nil
	case "in":
		if len(c.Values) == 0 || len(c.Values) > expr.MaxInOperands {
			return nil, &FieldError{Field: field + ".values", Message: fmt.Sprintf("in takes 1-%d values, got %d", expr.MaxInOperands, len(c.Values))}
		}
		return path.In(c.Values...), nil
	default:
		return nil, &FieldError{Field: field + ".op", Message: fmt.Sprintf("unsupported operator %q", c.Op)}
	}
}

func buildConnective(field string, children []Condition, join func(a, b expr.Condition) expr.Condition) (expr.Condition, error) {
	if len(children) < 2 {
		return nil, &FieldError{Field: field, Message: fmt.Sprintf("needs at least 2 conditions, got %d", len(children))}
	}
	var out expr.Condition
	for i := range children {
		c, err := buildCondition(fmt.Sprintf("%s[%d]", field, i), &children[i])
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = c
		} else {
			out = join(out, c)
		}
	}
	return out, nil
}

func (o Operand) isSet() bool {
	return o.Value != nil || o.Ref != nil || o.StringSet != nil || o.NumberSet != nil
}

// buildOperand resolves the right-hand side. field is the owning node.
func buildOperand(field string, o Operand) (any, error) {
	set := 0
	for _, ok := range []bool{o.Value != nil, o.Ref != nil, o.StringSet != nil, o.NumberSet != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return nil, &FieldError{Field: field, Message: "at most one of value, ref, string_set, number_set may be set"}
	}

	switch {
	case o.Ref != nil:
		return buildPath(field+".ref", o.Ref)
	case o.StringSet != nil:
		return attrval.StringSet(o.StringSet), nil
	case o.NumberSet != nil:
		return attrval.NumberSet(o.NumberSet), nil
	default:
		return o.Value, nil
	}
}

func buildPath(field string, p Path) (expr.Path, error) {
	if len(p) == 0 {
		return expr.Path{}, &FieldError{Field: field, Message: "path is required"}
	}
	root, ok := p[0].(string)
	if !ok {
		return expr.Path{}, &FieldError{Field: field, Message: fmt.Sprintf("path must start with an attribute name, got %v", p[0])}
	}
	path, err := expr.NewPath(root, p[1:]...)
	if err != nil {
		return expr.Path{}, &FieldError{Field: field, Message: "invalid path", Err: err}
	}
	return path, nil
}

func buildProjection(paths []Path) (expr.Projection, error) {
	if len(paths) == 0 {
		return expr.Projection{}, nil
	}
	out := make([]expr.Path, len(paths))
	for i, p := range paths {
		path, err := buildPath(fmt.Sprintf("projection[%d]", i), p)
		if err != nil {
			return expr.Projection{}, err
		}
		out[i] = path
	}
	return expr.Project(out...), nil
}

func buildUpdate(actions []Action) (expr.UpdateExpression, error) {
	var u expr.UpdateExpression
	for i, a := range actions {
		field := fmt.Sprintf("update[%d]", i)
		path, err := buildPath(field+".path", a.Path)
		if err != nil {
			return u, err
		}
		if a.Action == "remove" {
			if a.Operand.isSet() {
				return u, &FieldError{Field: field, Message: "remove takes no value"}
			}
			u = u.And(path.Remove())
			continue
		}

		v, err := buildOperand(field, a.Operand)
		if err != nil {
			return u, err
		}
		var next expr.UpdateExpression
		switch a.Action {
		case "set":
			next = path.Set(v)
		case "set_if_not_exists":
			next = path.SetIfNotExists(v)
		case "change":
			next = path.Change(v)
		case "append":
			next = path.Append(v)
		case "add":
			next = path.Add(v)
		case "delete":
			next = path.Delete(v)
		default:
			return u, &FieldError{Field: field + ".action", Message: fmt.Sprintf("unsupported action %q", a.Action)}
		}
		u = u.And(next)
	}
	return u, nil
}
