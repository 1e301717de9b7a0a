package expr

import "slices"

// KeyPart is one attribute of a multi-attribute partition key.
type KeyPart struct {
	Name  string
	Value any
}

// PartitionKey is the equality condition on a (possibly multi-attribute)
// partition key. It encodes as an AND chain of <name> = <value> in declared
// order.
//
// Combining a PartitionKey with a sort-key condition via And keeps the sort
// side whole: a sort condition that is already an AND group stays a
// parenthesized unit instead of being merged into the key chain.
//
//	MultiHashKey(pk1, pk2).And(SortKey("sk1").Equals("a").And(SortKey("sk2").GT(0)))
//	// #n0 = :v0 AND #n1 = :v1 AND (#n2 = :v2 AND #n3 > :v3)
type PartitionKey struct {
	parts []KeyPart
}

// HashKey builds the equality condition for a single-attribute partition key.
func HashKey(name string, value any) Condition {
	return &Comparison{Path: Path{root: name}, Operator: OpEqual, Value: value}
}

// MultiHashKey builds a partition-key condition over 1 to MaxKeyAttributes
// attributes. Any other count is a key-arity error, reported before any
// encoding happens.
func MultiHashKey(parts ...KeyPart) (*PartitionKey, error) {
	if len(parts) == 0 || len(parts) > MaxKeyAttributes {
		return nil, newKeyArityError("partition", len(parts))
	}
	for i, part := range parts {
		if part.Name == "" {
			return nil, newUnsupportedComponentError("partition key", i, part.Name)
		}
	}
	return &PartitionKey{parts: slices.Clone(parts)}, nil
}

// Parts returns the key attributes in declared order.
func (k *PartitionKey) Parts() []KeyPart {
	return slices.Clone(k.parts)
}

// comparisons returns a fresh slice of the per-attribute equality conditions.
func (k *PartitionKey) comparisons() []Condition {
	out := make([]Condition, len(k.parts))
	for i, part := range k.parts {
		out[i] = HashKey(part.Name, part.Value)
	}
	return out
}

// SortKeyAttr builds conditions on a sort key attribute. Only the operators
// that DynamoDB allows in key condition expressions are offered.
type SortKeyAttr struct {
	path Path
}

// SortKey returns the condition builder for the sort key attribute name.
func SortKey(name string) SortKeyAttr {
	return SortKeyAttr{path: Path{root: name}}
}

// MultiSortKey returns builders for a multi-attribute sort key of 1 to
// MaxKeyAttributes attributes, in declared order.
func MultiSortKey(names ...string) ([]SortKeyAttr, error) {
	if len(names) == 0 || len(names) > MaxKeyAttributes {
		return nil, newKeyArityError("sort", len(names))
	}
	out := make([]SortKeyAttr, len(names))
	for i, name := range names {
		if name == "" {
			return nil, newUnsupportedComponentError("sort key", i, name)
		}
		out[i] = SortKey(name)
	}
	return out, nil
}

// Name returns the sort key attribute name.
func (s SortKeyAttr) Name() string { return s.path.root }

func (s SortKeyAttr) Equals(v any) Condition          { return s.path.Equals(v) }
func (s SortKeyAttr) LT(v any) Condition              { return s.path.LT(v) }
func (s SortKeyAttr) LTE(v any) Condition             { return s.path.LTE(v) }
func (s SortKeyAttr) GT(v any) Condition              { return s.path.GT(v) }
func (s SortKeyAttr) GTE(v any) Condition             { return s.path.GTE(v) }
func (s SortKeyAttr) Between(low, high any) Condition { return s.path.Between(low, high) }
func (s SortKeyAttr) BeginsWith(prefix any) Condition { return s.path.BeginsWith(prefix) }
