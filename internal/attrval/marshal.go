package attrval

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/apd/v3"
)

var (
	// ErrUnsupportedType is returned for Go values with no attribute value form.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptySet is returned for sets with no elements. DynamoDB has no empty sets.
	ErrEmptySet = errors.New("empty set")

	// ErrInvalidNumber is returned for NaN, infinities and malformed numeric text.
	ErrInvalidNumber = errors.New("invalid number")
)

// StringSet encodes as an SS attribute.
type StringSet []string

// NumberSet encodes as an NS attribute. Elements are any numeric literal
// accepted by Marshal.
type NumberSet []any

// BinarySet encodes as a BS attribute.
type BinarySet [][]byte

// Marshal encodes a Go literal as a DynamoDB attribute value.
//
// nil, string, bool, all integer kinds, finite floats, *big.Int, json.Number,
// apd.Decimal, []byte, the set types, []any and map[string]any are encoded
// directly. A types.AttributeValue is returned unchanged. Any other value
// (structs, typed slices and maps, byte arrays) goes through
// attributevalue.Marshal.
func Marshal(v any) (types.AttributeValue, error) {
	switch val := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case types.AttributeValue:
		return val, nil
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: val}, nil
	case StringSet:
		if len(val) == 0 {
			return nil, fmt.Errorf("string set: %w", ErrEmptySet)
		}
		return &types.AttributeValueMemberSS{Value: append([]string(nil), val...)}, nil
	case NumberSet:
		return marshalNumberSet(val)
	case BinarySet:
		if len(val) == 0 {
			return nil, fmt.Errorf("binary set: %w", ErrEmptySet)
		}
		return &types.AttributeValueMemberBS{Value: append([][]byte(nil), val...)}, nil
	case map[string]any:
		return marshalMap(val)
	case []any:
		return marshalList(val)
	}

	if n, ok, err := numberText(v); ok {
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberN{Value: n}, nil
	}

	return marshalReflect(v)
}

// MarshalItem encodes a map of attribute name to Go literal.
func MarshalItem(item map[string]any) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		av, err := Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

// numberText returns the DynamoDB numeric text for numeric Go values.
// ok is false when v is not numeric at all.
func numberText(v any) (text string, ok bool, err error) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int64:
		return strconv.FormatInt(n, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint64:
		return strconv.FormatUint(n, 10), true, nil
	case float32:
		return floatText(float64(n), 32)
	case float64:
		return floatText(n, 64)
	case *big.Int:
		if n == nil {
			return "", true, fmt.Errorf("nil *big.Int: %w", ErrInvalidNumber)
		}
		return n.String(), true, nil
	case json.Number:
		return decimalText(string(n))
	case apd.Decimal:
		return finiteDecimal(&n)
	case *apd.Decimal:
		if n == nil {
			return "", true, fmt.Errorf("nil *apd.Decimal: %w", ErrInvalidNumber)
		}
		return finiteDecimal(n)
	}
	return "", false, nil
}

func floatText(f float64, bits int) (string, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", true, fmt.Errorf("%v: %w", f, ErrInvalidNumber)
	}
	return strconv.FormatFloat(f, 'f', -1, bits), true, nil
}

func decimalText(s string) (string, bool, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return "", true, fmt.Errorf("%q: %w", s, ErrInvalidNumber)
	}
	return finiteDecimal(d)
}

func finiteDecimal(d *apd.Decimal) (string, bool, error) {
	if d.Form != apd.Finite {
		return "", true, fmt.Errorf("%s: %w", d.String(), ErrInvalidNumber)
	}
	return d.Text('f'), true, nil
}

func marshalNumberSet(set NumberSet) (types.AttributeValue, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("number set: %w", ErrEmptySet)
	}
	out := make([]string, len(set))
	for i, elem := range set {
		n, ok, err := numberText(elem)
		if !ok {
			return nil, fmt.Errorf("number set[%d]: %T: %w", i, elem, ErrUnsupportedType)
		}
		if err != nil {
			return nil, fmt.Errorf("number set[%d]: %w", i, err)
		}
		out[i] = n
	}
	return &types.AttributeValueMemberNS{Value: out}, nil
}

func marshalList(list []any) (types.AttributeValue, error) {
	out := make([]types.AttributeValue, len(list))
	for i, elem := range list {
		av, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = av
	}
	return &types.AttributeValueMemberL{Value: out}, nil
}

func marshalMap(m map[string]any) (types.AttributeValue, error) {
	out, err := MarshalItem(m)
	if err != nil {
		return nil, err
	}
	return &types.AttributeValueMemberM{Value: out}, nil
}

// marshalReflect dereferences pointers so their targets take the fast path
// above, and hands everything else (structs, typed slices and maps, named
// kinds) to the SDK's attributevalue encoder.
func marshalReflect(v any) (types.AttributeValue, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
		return Marshal(rv.Elem().Interface())
	}

	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%T: %w: %w", v, ErrUnsupportedType, err)
	}
	// Channels and funcs can come back with neither a value nor an error.
	if av == nil {
		return nil, fmt.Errorf("%T: %w", v, ErrUnsupportedType)
	}
	return av, nil
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler, so sets
// nested in typed containers keep their set type.
func (s StringSet) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return Marshal(s)
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (s NumberSet) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return Marshal(s)
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (s BinarySet) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return Marshal(s)
}
