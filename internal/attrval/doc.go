// Package attrval converts Go literals into DynamoDB attribute values.
//
// This is the typed-value layer used by the expression compiler whenever a
// literal becomes a value placeholder. It imports nothing internal, so expr,
// request and document can all depend on it.
//
// Key design constraints:
//   - Sets are explicit (StringSet, NumberSet, BinarySet); plain slices are lists
//   - Empty sets are rejected, not silently dropped
//   - NaN and infinities cannot be encoded as numbers
//   - Numbers keep their decimal text; apd.Decimal is accepted as-is
//   - Structs and typed containers go through the SDK attributevalue encoder
package attrval
