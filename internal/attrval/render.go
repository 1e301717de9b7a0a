package attrval

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/apd/v3"
)

// NumberDecoder turns DynamoDB numeric text into a native Go number.
// It is the numeric type hint for debug rendering.
type NumberDecoder func(s string) (any, error)

// IntNumbers decodes numbers as int64, falling back to *big.Int for values
// outside the int64 range.
func IntNumbers(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer: %w", s, ErrInvalidNumber)
	}
	return b, nil
}

// FloatNumbers decodes numbers as float64.
func FloatNumbers(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, ErrInvalidNumber)
	}
	return f, nil
}

// DecimalNumbers decodes numbers as arbitrary-precision *apd.Decimal,
// which matches DynamoDB's 38-digit number semantics.
func DecimalNumbers(s string) (any, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, ErrInvalidNumber)
	}
	return d, nil
}

// Render produces the human-readable form of an attribute value used by
// debug output: quoted strings, bare numbers and booleans, {..} for sets
// and maps, [..] for lists.
//
// A nil decoder renders numbers as their raw text. Numbers the decoder
// rejects are rendered raw as well.
func Render(av types.AttributeValue, numbers NumberDecoder) string {
	var b strings.Builder
	render(&b, av, numbers)
	return b.String()
}

func render(b *strings.Builder, av types.AttributeValue, numbers NumberDecoder) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		b.WriteString(quote(v.Value))
	case *types.AttributeValueMemberN:
		b.WriteString(renderNumber(v.Value, numbers))
	case *types.AttributeValueMemberBOOL:
		b.WriteString(strconv.FormatBool(v.Value))
	case *types.AttributeValueMemberNULL:
		b.WriteString("null")
	case *types.AttributeValueMemberB:
		b.WriteString(renderBinary(v.Value))
	case *types.AttributeValueMemberSS:
		writeJoined(b, "{", "}", v.Value, quote)
	case *types.AttributeValueMemberNS:
		writeJoined(b, "{", "}", v.Value, func(s string) string { return renderNumber(s, numbers) })
	case *types.AttributeValueMemberBS:
		writeJoined(b, "{", "}", v.Value, renderBinary)
	case *types.AttributeValueMemberL:
		b.WriteByte('[')
		for i, elem := range v.Value {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, elem, numbers)
		}
		b.WriteByte(']')
	case *types.AttributeValueMemberM:
		keys := make([]string, 0, len(v.Value))
		for k := range v.Value {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(k))
			b.WriteString(": ")
			render(b, v.Value[k], numbers)
		}
		b.WriteByte('}')
	case nil:
		b.WriteString("null")
	default:
		b.WriteString("%!(" + fmt.Sprintf("%T", av) + ")")
	}
}

func writeJoined[T any](b *strings.Builder, open, close string, elems []T, f func(T) string) {
	b.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f(e))
	}
	b.WriteString(close)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func renderBinary(p []byte) string {
	return "b'" + base64.StdEncoding.EncodeToString(p) + "'"
}

func renderNumber(s string, numbers NumberDecoder) string {
	if numbers == nil {
		return s
	}
	n, err := numbers(s)
	if err != nil {
		return s
	}
	switch v := n.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
