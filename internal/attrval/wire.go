package attrval

import (
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Wire returns the DynamoDB JSON protocol form of an attribute value,
// e.g. {"S": "v"} or {"M": {"k": {"N": "1"}}}. Binary data is base64
// encoded as on the wire. The result is safe to pass to encoding/json.
func Wire(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": v.Value}
	case *types.AttributeValueMemberN:
		return map[string]any{"N": v.Value}
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": v.Value}
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": true}
	case *types.AttributeValueMemberB:
		return map[string]any{"B": base64.StdEncoding.EncodeToString(v.Value)}
	case *types.AttributeValueMemberSS:
		return map[string]any{"SS": stringsToAny(v.Value)}
	case *types.AttributeValueMemberNS:
		return map[string]any{"NS": stringsToAny(v.Value)}
	case *types.AttributeValueMemberBS:
		out := make([]any, len(v.Value))
		for i, p := range v.Value {
			out[i] = base64.StdEncoding.EncodeToString(p)
		}
		return map[string]any{"BS": out}
	case *types.AttributeValueMemberL:
		out := make([]any, len(v.Value))
		for i, elem := range v.Value {
			out[i] = Wire(elem)
		}
		return map[string]any{"L": out}
	case *types.AttributeValueMemberM:
		return map[string]any{"M": WireMap(v.Value)}
	default:
		return map[string]any{"NULL": true}
	}
}

// WireMap applies Wire to every value of an attribute map.
// A nil map stays nil.
func WireMap(m map[string]types.AttributeValue) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Wire(v)
	}
	return out
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
