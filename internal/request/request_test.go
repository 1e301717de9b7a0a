package request

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ddbexpr/internal/attrval"
	"github.com/roach88/ddbexpr/internal/expr"
)

func avS(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func avN(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func TestGet_Input(t *testing.T) {
	op := &Get{
		Table:          "users",
		Key:            map[string]any{"pk": "u#1"},
		Projection:     expr.Project(expr.F("name"), expr.F("address", "city")),
		ConsistentRead: true,
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Equal(t, "users", aws.ToString(in.TableName))
	assert.Equal(t, map[string]types.AttributeValue{"pk": avS("u#1")}, in.Key)
	assert.Equal(t, "#n0,#n1.#n2", aws.ToString(in.ProjectionExpression))
	assert.Equal(t, map[string]string{"#n0": "name", "#n1": "address", "#n2": "city"}, in.ExpressionAttributeNames)
	assert.True(t, aws.ToBool(in.ConsistentRead))
}

func TestGet_WithoutProjection(t *testing.T) {
	in, err := (&Get{Table: "users", Key: map[string]any{"pk": 1}}).Input()
	require.NoError(t, err)

	assert.Nil(t, in.ProjectionExpression)
	assert.Nil(t, in.ExpressionAttributeNames)
	assert.Nil(t, in.ConsistentRead)
}

func TestPut_Input(t *testing.T) {
	op := &Put{
		Table:        "users",
		Item:         map[string]any{"pk": "u#1", "age": 30},
		Condition:    expr.F("pk").NotExists(),
		ReturnValues: types.ReturnValueAllOld,
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AttributeValue{"pk": avS("u#1"), "age": avN("30")}, in.Item)
	assert.Equal(t, "attribute_not_exists(#n0)", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]string{"#n0": "pk"}, in.ExpressionAttributeNames)
	assert.Nil(t, in.ExpressionAttributeValues)
	assert.Equal(t, types.ReturnValueAllOld, in.ReturnValues)
}

func TestUpdate_Input(t *testing.T) {
	op := &Update{
		Table:        "counters",
		Key:          map[string]any{"pk": "c#1"},
		Expression:   expr.F("hits").Change(1).And(expr.F("stale").Remove()),
		Condition:    expr.F("hits").LT(100),
		ReturnValues: types.ReturnValueUpdatedNew,
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Equal(t, "SET #n0 = #n0 + :v0 REMOVE #n1", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "#n0 < :v1", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]string{"#n0": "hits", "#n1": "stale"}, in.ExpressionAttributeNames)
	assert.Equal(t, map[string]types.AttributeValue{":v0": avN("1"), ":v1": avN("100")}, in.ExpressionAttributeValues)
	assert.Equal(t, types.ReturnValueUpdatedNew, in.ReturnValues)
}

func TestDelete_Input(t *testing.T) {
	op := &Delete{
		Table:     "users",
		Key:       map[string]any{"pk": "u#1", "sk": "profile"},
		Condition: expr.F("version").Equals(3),
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Len(t, in.Key, 2)
	assert.Equal(t, "#n0 = :v0", aws.ToString(in.ConditionExpression))
	assert.Equal(t, types.ReturnValue(""), in.ReturnValues)
}

func TestConditionCheck_Input(t *testing.T) {
	op := &ConditionCheck{
		Table:     "accounts",
		Key:       map[string]any{"pk": "a#1"},
		Condition: expr.F("balance").GTE(10),
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Equal(t, "accounts", aws.ToString(in.TableName))
	assert.Equal(t, "#n0 >= :v0", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]types.AttributeValue{":v0": avN("10")}, in.ExpressionAttributeValues)
}

func TestQuery_Input(t *testing.T) {
	pk, err := expr.MultiHashKey(expr.KeyPart{Name: "tenant", Value: "t1"}, expr.KeyPart{Name: "region", Value: "eu"})
	require.NoError(t, err)

	op := &Query{
		Table:        "orders",
		Index:        "by-tenant",
		KeyCondition: pk.And(expr.SortKey("created").GT(100)),
		Filter:       expr.F("status").Equals("open").And(expr.F("region").Exists()),
		Projection:   expr.Project(expr.F("id"), expr.F("tenant")),
		Limit:        25,
		ScanForward:  aws.Bool(false),
		Select:       types.SelectSpecificAttributes,
		StartKey:     map[string]any{"tenant": "t1", "created": 99},
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Equal(t, "by-tenant", aws.ToString(in.IndexName))
	assert.Equal(t, "#n0 = :v0 AND #n1 = :v1 AND #n2 > :v2", aws.ToString(in.KeyConditionExpression))
	assert.Equal(t, "#n3 = :v3 AND attribute_exists(#n1)", aws.ToString(in.FilterExpression))
	assert.Equal(t, "#n4,#n0", aws.ToString(in.ProjectionExpression))
	assert.Equal(t, map[string]string{
		"#n0": "tenant",
		"#n1": "region",
		"#n2": "created",
		"#n3": "status",
		"#n4": "id",
	}, in.ExpressionAttributeNames)
	assert.Len(t, in.ExpressionAttributeValues, 4)
	assert.Equal(t, int32(25), aws.ToInt32(in.Limit))
	assert.False(t, aws.ToBool(in.ScanIndexForward))
	assert.NotNil(t, in.ScanIndexForward)
	assert.Equal(t, types.SelectSpecificAttributes, in.Select)
	assert.Equal(t, map[string]types.AttributeValue{"tenant": avS("t1"), "created": avN("99")}, in.ExclusiveStartKey)
}

func TestQuery_DefaultsAreAbsent(t *testing.T) {
	in, err := (&Query{Table: "t", KeyCondition: expr.HashKey("pk", 1)}).Input()
	require.NoError(t, err)

	assert.Nil(t, in.IndexName)
	assert.Nil(t, in.FilterExpression)
	assert.Nil(t, in.ProjectionExpression)
	assert.Nil(t, in.Limit)
	assert.Nil(t, in.ScanIndexForward)
	assert.Nil(t, in.ConsistentRead)
	assert.Nil(t, in.ExclusiveStartKey)
}

func TestScan_Input(t *testing.T) {
	op := &Scan{
		Table:         "events",
		Filter:        expr.F("kind").In("click", "view"),
		Segment:       1,
		TotalSegments: 4,
	}

	in, err := op.Input()
	require.NoError(t, err)

	assert.Equal(t, "#n0 IN (:v0, :v1)", aws.ToString(in.FilterExpression))
	assert.Equal(t, int32(1), aws.ToInt32(in.Segment))
	assert.Equal(t, int32(4), aws.ToInt32(in.TotalSegments))
}

func TestScan_Unsegmented(t *testing.T) {
	in, err := (&Scan{Table: "events"}).Input()
	require.NoError(t, err)

	assert.Nil(t, in.Segment)
	assert.Nil(t, in.TotalSegments)
	assert.Nil(t, in.FilterExpression)
	assert.Nil(t, in.ExpressionAttributeNames)
}

func TestOperation_Errors(t *testing.T) {
	tests := []struct {
		name  string
		op    Operation
		check func(error) bool
	}{
		{"get empty key", &Get{Table: "t"}, expr.IsEmptyItem},
		{"put empty item", &Put{Table: "t", Item: map[string]any{}}, expr.IsEmptyItem},
		{"update empty expression", &Update{Table: "t", Key: map[string]any{"pk": 1}}, expr.IsEmptyItem},
		{"update empty key", &Update{Table: "t", Expression: expr.F("a").Set(1)}, expr.IsEmptyItem},
		{"delete empty key", &Delete{Table: "t"}, expr.IsEmptyItem},
		{"condition check without condition", &ConditionCheck{Table: "t", Key: map[string]any{"pk": 1}}, expr.IsEmptyItem},
		{"query without key condition", &Query{Table: "t"}, expr.IsEmptyItem},
		{"unencodable key", &Get{Table: "t", Key: map[string]any{"pk": attrval.StringSet{}}}, expr.IsInvalidValue},
		{"unencodable condition", &Delete{Table: "t", Key: map[string]any{"pk": 1}, Condition: expr.F("a").In()}, expr.IsInvalidValue},
		{"unencodable start key", &Scan{Table: "t", StartKey: map[string]any{"pk": make(chan int)}}, expr.IsInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.op.Compile()
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestOperation_MissingTable(t *testing.T) {
	_, err := (&Get{Key: map[string]any{"pk": 1}}).Compile()
	assert.ErrorIs(t, err, ErrNoTable)
	assert.Contains(t, err.Error(), "get")
}

func TestScan_InvalidSegment(t *testing.T) {
	for _, sc := range []*Scan{
		{Table: "t", Segment: 4, TotalSegments: 4},
		{Table: "t", Segment: -1, TotalSegments: 2},
		{Table: "t", Segment: 1},
	} {
		_, err := sc.Compile()
		assert.Error(t, err, "segment %d of %d", sc.Segment, sc.TotalSegments)
	}
}

func TestOperation_CompileIsRepeatable(t *testing.T) {
	op := &Update{
		Table:      "t",
		Key:        map[string]any{"pk": 1},
		Expression: expr.F("a").Set("x"),
		Condition:  expr.F("a").NotEquals("x"),
	}

	first, err := op.Compile()
	require.NoError(t, err)
	second, err := op.Compile()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]types.AttributeValue{":v0": avS("x"), ":v1": avS("x")}, first.ExpressionAttributeValues)
}

func TestOperation_Names(t *testing.T) {
	assert.Equal(t, OpGet, (&Get{}).Name())
	assert.Equal(t, OpPut, (&Put{}).Name())
	assert.Equal(t, OpUpdate, (&Update{}).Name())
	assert.Equal(t, OpDelete, (&Delete{}).Name())
	assert.Equal(t, OpConditionCheck, (&ConditionCheck{}).Name())
	assert.Equal(t, OpQuery, (&Query{}).Name())
	assert.Equal(t, OpScan, (&Scan{}).Name())
}
