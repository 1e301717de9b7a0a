package expr

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/ddbexpr/internal/attrval"
)

// Parameters allocates name and value placeholders for one request.
//
// Name placeholders (#n0, #n1, ...) are idempotent per attribute name.
// Value placeholders (:v0, :v1, ...) are always fresh; identical literals
// are never deduplicated. Both counters only grow.
//
// Parameters is not safe for concurrent use. Create one per request,
// encode every expression of that request against it, read SideTable,
// then discard it.
type Parameters struct {
	names     map[string]string // attribute name -> placeholder
	values    map[string]types.AttributeValue
	nextName  int
	nextValue int
}

// SideTable holds the placeholder mappings that accompany compiled
// expressions. Maps are nil when nothing was allocated, so they can be
// assigned directly to the SDK input fields of the same name.
type SideTable struct {
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
}

// NewParameters creates an empty allocator.
func NewParameters() *Parameters {
	return &Parameters{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

// Name returns the placeholder for attr, allocating one on first use.
func (p *Parameters) Name(attr string) string {
	if p.names == nil {
		p.names = make(map[string]string)
	}
	if ph, ok := p.names[attr]; ok {
		return ph
	}
	ph := "#n" + strconv.Itoa(p.nextName)
	p.nextName++
	p.names[attr] = ph
	return ph
}

// Value allocates a new placeholder for an already encoded value.
func (p *Parameters) Value(av types.AttributeValue) string {
	if p.values == nil {
		p.values = make(map[string]types.AttributeValue)
	}
	ph := ":v" + strconv.Itoa(p.nextValue)
	p.nextValue++
	p.values[ph] = av
	return ph
}

// Literal encodes v with attrval.Marshal and allocates a value placeholder.
// Nothing is allocated when encoding fails.
func (p *Parameters) Literal(v any) (string, error) {
	av, err := attrval.Marshal(v)
	if err != nil {
		return "", err
	}
	return p.Value(av), nil
}

// SideTable returns the accumulated mappings. Names are keyed by
// placeholder (the inverse of the allocation map), as DynamoDB expects.
func (p *Parameters) SideTable() SideTable {
	var st SideTable
	if len(p.names) > 0 {
		st.ExpressionAttributeNames = make(map[string]string, len(p.names))
		for name, ph := range p.names {
			st.ExpressionAttributeNames[ph] = name
		}
	}
	if len(p.values) > 0 {
		st.ExpressionAttributeValues = make(map[string]types.AttributeValue, len(p.values))
		for ph, av := range p.values {
			st.ExpressionAttributeValues[ph] = av
		}
	}
	return st
}

// IsEmpty reports whether the side table carries no mappings.
func (st SideTable) IsEmpty() bool {
	return len(st.ExpressionAttributeNames) == 0 && len(st.ExpressionAttributeValues) == 0
}
