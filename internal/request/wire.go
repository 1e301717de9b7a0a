package request

import (
	"github.com/roach88/ddbexpr/internal/attrval"
)

// Wire is the JSON form of a Compiled request. Attribute values use the
// protocol's tagged encoding ({"S": "v"}), and absent parts are omitted.
type Wire struct {
	Operation    string            `json:"operation"`
	Table        string            `json:"table"`
	Index        string            `json:"index,omitempty"`
	Key          map[string]any    `json:"key,omitempty"`
	Item         map[string]any    `json:"item,omitempty"`
	StartKey     map[string]any    `json:"start_key,omitempty"`
	KeyCondition string            `json:"key_condition,omitempty"`
	Condition    string            `json:"condition,omitempty"`
	Filter       string            `json:"filter,omitempty"`
	Update       string            `json:"update,omitempty"`
	Projection   string            `json:"projection,omitempty"`
	Names        map[string]string `json:"names,omitempty"`
	Values       map[string]any    `json:"values,omitempty"`
}

// Wire converts c to its JSON form.
func (c *Compiled) Wire() Wire {
	return Wire{
		Operation:    c.Operation,
		Table:        c.Table,
		Index:        c.Index,
		Key:          attrval.WireMap(c.Key),
		Item:         attrval.WireMap(c.Item),
		StartKey:     attrval.WireMap(c.StartKey),
		KeyCondition: c.KeyCondition,
		Condition:    c.Condition,
		Filter:       c.Filter,
		Update:       c.Update,
		Projection:   c.Projection,
		Names:        c.ExpressionAttributeNames,
		Values:       attrval.WireMap(c.ExpressionAttributeValues),
	}
}

// Expressions returns the non-empty expressions of w in protocol field
// order, labelled with their protocol field names.
func (w Wire) Expressions() []Labelled {
	var out []Labelled
	for _, e := range []Labelled{
		{"KeyConditionExpression", w.KeyCondition},
		{"UpdateExpression", w.Update},
		{"ConditionExpression", w.Condition},
		{"FilterExpression", w.Filter},
		{"ProjectionExpression", w.Projection},
	} {
		if e.Text != "" {
			out = append(out, e)
		}
	}
	return out
}

// Labelled is an expression string with its protocol field name.
type Labelled struct {
	Field string
	Text  string
}
