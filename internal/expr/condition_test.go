package expr

import (
	"math"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ddbexpr/internal/attrval"
)

func TestCondition_Flattening(t *testing.T) {
	a := F("a").Equals(1)
	b := F("b").Equals(2)
	c := F("c").Equals(3)
	d := F("d").Equals(4)

	tests := []struct {
		name string
		got  Condition
		want Condition
	}{
		{
			name: "leaf and leaf",
			got:  a.And(b),
			want: &Connective{Kind: KindAnd, Conditions: []Condition{a, b}},
		},
		{
			name: "and appends leaf",
			got:  a.And(b).And(c),
			want: &Connective{Kind: KindAnd, Conditions: []Condition{a, b, c}},
		},
		{
			name: "leaf prepends to and",
			got:  a.And(b.And(c)),
			want: &Connective{Kind: KindAnd, Conditions: []Condition{a, b, c}},
		},
		{
			name: "and merges and",
			got:  a.And(b).And(c.And(d)),
			want: &Connective{Kind: KindAnd, Conditions: []Condition{a, b, c, d}},
		},
		{
			name: "or merges or",
			got:  a.Or(b).Or(c.Or(d)),
			want: &Connective{Kind: KindOr, Conditions: []Condition{a, b, c, d}},
		},
		{
			name: "mismatched kinds nest",
			got:  a.Or(b).And(c),
			want: &Connective{Kind: KindAnd, Conditions: []Condition{
				&Connective{Kind: KindOr, Conditions: []Condition{a, b}},
				c,
			}},
		},
		{
			name: "negation is a leaf",
			got:  a.Not().And(b),
			want: &Connective{Kind: KindAnd, Conditions: []Condition{&Negation{Condition: a}, b}},
		},
		{
			name: "package functions match methods",
			got:  And(Or(a, b), Not(c)),
			want: a.Or(b).And(c.Not()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestCondition_CombineDoesNotMutateOperands(t *testing.T) {
	ab := F("a").Equals(1).And(F("b").Equals(2))
	_ = ab.And(F("c").Equals(3))
	_ = ab.And(F("d").Equals(4))

	assert.Len(t, ab.(*Connective).Conditions, 2)

	x := ab.And(F("x").Equals(0))
	y := ab.And(F("y").Equals(0))
	assert.Equal(t, "(a = 1 AND b = 2 AND x = 0)", x.Debug(attrval.IntNumbers))
	assert.Equal(t, "(a = 1 AND b = 2 AND y = 0)", y.Debug(attrval.IntNumbers))
}

func TestCondition_Encode(t *testing.T) {
	tests := []struct {
		name       string
		cond       Condition
		want       string
		wantNames  map[string]string
		wantValues map[string]types.AttributeValue
	}{
		{
			name:       "equality",
			cond:       F("status").Equals("active"),
			want:       "#n0 = :v0",
			wantNames:  map[string]string{"#n0": "status"},
			wantValues: map[string]types.AttributeValue{":v0": &types.AttributeValueMemberS{Value: "active"}},
		},
		{
			name:      "flat and chain",
			cond:      F("a").Equals(1).And(F("b").Equals(2)).And(F("c").Equals(3).And(F("d").Equals(4))),
			want:      "#n0 = :v0 AND #n1 = :v1 AND #n2 = :v2 AND #n3 = :v3",
			wantNames: map[string]string{"#n0": "a", "#n1": "b", "#n2": "c", "#n3": "d"},
			wantValues: map[string]types.AttributeValue{
				":v0": &types.AttributeValueMemberN{Value: "1"},
				":v1": &types.AttributeValueMemberN{Value: "2"},
				":v2": &types.AttributeValueMemberN{Value: "3"},
				":v3": &types.AttributeValueMemberN{Value: "4"},
			},
		},
		{
			name: "nested or is parenthesized",
			cond: F("a").Equals(1).Or(F("b").Equals(2)).And(F("c").Equals(3)),
			want: "(#n0 = :v0 OR #n1 = :v1) AND #n2 = :v2",
		},
		{
			name: "nested and inside or",
			cond: F("a").Equals(1).Or(F("b").Equals(2).And(F("c").Equals(3))),
			want: "#n0 = :v0 OR (#n1 = :v1 AND #n2 = :v2)",
		},
		{
			name:      "negation",
			cond:      F("a").Exists().Not(),
			want:      "NOT (attribute_exists(#n0))",
			wantNames: map[string]string{"#n0": "a"},
		},
		{
			name: "negated group",
			cond: F("a").Equals(1).And(F("b").Equals(2)).Not(),
			want: "NOT (#n0 = :v0 AND #n1 = :v1)",
		},
		{
			name:       "begins_with on indexed path",
			cond:       F("a", 1).BeginsWith("foo"),
			want:       "begins_with(#n0[1], :v0)",
			wantNames:  map[string]string{"#n0": "a"},
			wantValues: map[string]types.AttributeValue{":v0": &types.AttributeValueMemberS{Value: "foo"}},
		},
		{
			name: "contains",
			cond: F("tags").Contains("new"),
			want: "contains(#n0, :v0)",
		},
		{
			name: "attribute_not_exists",
			cond: F("pk").NotExists(),
			want: "attribute_not_exists(#n0)",
		},
		{
			name:       "attribute_type",
			cond:       F("a").AttributeType(TypeStringSet),
			want:       "attribute_type(#n0, :v0)",
			wantValues: map[string]types.AttributeValue{":v0": &types.AttributeValueMemberS{Value: "SS"}},
		},
		{
			name:       "size comparison",
			cond:       F("tags").Size().GT(2),
			want:       "size(#n0) > :v0",
			wantValues: map[string]types.AttributeValue{":v0": &types.AttributeValueMemberN{Value: "2"}},
		},
		{
			name: "between",
			cond: F("n").Between(1, 5),
			want: "#n0 BETWEEN :v0 AND :v1",
		},
		{
			name: "in",
			cond: F("s").In("a", "b", "c"),
			want: "#n0 IN (:v0, :v1, :v2)",
		},
		{
			name:      "path operand",
			cond:      F("a").LTE(F("b")),
			want:      "#n0 <= #n1",
			wantNames: map[string]string{"#n0": "a", "#n1": "b"},
		},
		{
			name:      "identical literals are not deduplicated",
			cond:      F("a").Equals("x").And(F("a").NotEquals("x")),
			want:      "#n0 = :v0 AND #n0 <> :v1",
			wantNames: map[string]string{"#n0": "a"},
			wantValues: map[string]types.AttributeValue{
				":v0": &types.AttributeValueMemberS{Value: "x"},
				":v1": &types.AttributeValueMemberS{Value: "x"},
			},
		},
		{
			name: "every operator",
			cond: F("a").LT(1).Or(F("b").GTE(2)).Or(F("c").GT(3)),
			want: "#n0 < :v0 OR #n1 >= :v1 OR #n2 > :v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := NewParameters()
			got, err := tt.cond.Encode(params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			side := params.SideTable()
			if tt.wantNames != nil {
				assert.Equal(t, tt.wantNames, side.ExpressionAttributeNames)
			}
			if tt.wantValues != nil {
				assert.Equal(t, tt.wantValues, side.ExpressionAttributeValues)
			}
		})
	}
}

func TestCondition_PathOperandAllocatesNoValues(t *testing.T) {
	params := NewParameters()
	_, err := F("a").Equals(F("b")).Encode(params)
	require.NoError(t, err)

	assert.Nil(t, params.SideTable().ExpressionAttributeValues)
}

func TestCondition_EncodeErrors(t *testing.T) {
	tooMany := make([]any, MaxInOperands+1)
	for i := range tooMany {
		tooMany[i] = i
	}

	tests := []struct {
		name string
		cond Condition
	}{
		{"nan literal", F("a").Equals(math.NaN())},
		{"unsupported literal", F("a").Equals(func() {})},
		{"empty in", F("a").In()},
		{"in over limit", F("a").In(tooMany...)},
		{"error inside connective", F("ok").Equals(1).And(F("bad").GT(math.Inf(-1)))},
		{"error inside negation", F("a").Contains(attrval.StringSet{}).Not()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cond.Encode(NewParameters())
			require.Error(t, err)
			assert.True(t, IsInvalidValue(err), "got %v", err)
		})
	}
}

func TestCondition_NilOperandIsTypedError(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
	}{
		{"and with nil", And(F("a").Equals(1), nil)},
		{"or with nil", Or(nil, F("a").Equals(1))},
		{"not nil", Not(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cond.Encode(NewParameters())
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrCodeEmptyItem, ce.Code)
		})
	}
}

func TestCondition_InvalidValueNamesPath(t *testing.T) {
	_, err := F("price", 0).Equals(math.NaN()).Encode(NewParameters())
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "price.0", ce.Path)
	assert.ErrorIs(t, err, attrval.ErrInvalidNumber)
}

func TestCondition_InAtLimit(t *testing.T) {
	vals := make([]any, MaxInOperands)
	for i := range vals {
		vals[i] = i
	}
	params := NewParameters()
	_, err := F("a").In(vals...).Encode(params)
	require.NoError(t, err)
	assert.Len(t, params.SideTable().ExpressionAttributeValues, MaxInOperands)
}

func TestCondition_Debug(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want string
	}{
		{"and of bool and int", F("a").Equals(true).And(F("b").GT(1)), "(a = true AND b > 1)"},
		{"begins_with", F("a", 1).BeginsWith("foo"), "begins_with(a[1], 'foo')"},
		{"three term chain", F("a").Equals("a").And(F("b").Equals("b")).And(F("c").Equals("c")), "(a = 'a' AND b = 'b' AND c = 'c')"},
		{"nested or", F("a").Equals(1).Or(F("b").Equals(2)).And(F("c").Equals(3)), "((a = 1 OR b = 2) AND c = 3)"},
		{"negated leaf", F("a").Equals(1).Not(), "NOT (a = 1)"},
		{"negated group", F("a").Equals(1).Or(F("b").Equals(2)).Not(), "NOT (a = 1 OR b = 2)"},
		{"size", F("tags").Size().GTE(2), "size(tags) >= 2"},
		{"between", F("n").Between(1, 10), "n BETWEEN 1 AND 10"},
		{"in", F("s").In("x", "y"), "s IN ('x', 'y')"},
		{"exists", F("a", "b").Exists(), "attribute_exists(a.b)"},
		{"path operand", F("a").Equals(F("b", 0)), "a = b[0]"},
		{"set literal", F("a").Contains(attrval.StringSet{"e"}), "contains(a, {'e'})"},
		{"null literal", F("a").Equals(nil), "a = null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Debug(attrval.IntNumbers))
		})
	}
}

func TestCondition_DebugNumberHint(t *testing.T) {
	cond := F("price").GT(1.5)

	assert.Equal(t, "price > 1.5", cond.Debug(attrval.FloatNumbers))
	assert.Equal(t, "price > 1.5", cond.Debug(attrval.DecimalNumbers))
	assert.Equal(t, "price > 1.5", cond.Debug(nil))
}

func TestCondition_DebugUnencodableLiteral(t *testing.T) {
	got := F("a").Equals(math.NaN()).Debug(attrval.IntNumbers)
	assert.Contains(t, got, "a = %!(")
}

func TestCondition_EncodeIsDeterministic(t *testing.T) {
	cond := F("a").Equals(1).Or(F("b").In("x", "y")).And(F("c", 0).Exists().Not())

	p1 := NewParameters()
	s1, err := cond.Encode(p1)
	require.NoError(t, err)

	p2 := NewParameters()
	s2, err := cond.Encode(p2)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, p1.SideTable(), p2.SideTable())
}

func TestCondition_SharedAcrossGoroutines(t *testing.T) {
	cond := F("a").Equals(1).And(F("b").BeginsWith("x"))
	want, err := cond.Encode(NewParameters())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cond.Encode(NewParameters())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestCondition_SharedParametersAcrossExpressions(t *testing.T) {
	params := NewParameters()

	cond, err := F("a").Equals(1).Encode(params)
	require.NoError(t, err)
	filter, err := F("a").GT(2).And(F("b").Exists()).Encode(params)
	require.NoError(t, err)

	assert.Equal(t, "#n0 = :v0", cond)
	assert.Equal(t, "#n0 > :v1 AND attribute_exists(#n1)", filter)
}
