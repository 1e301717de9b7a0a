// Package request assembles DynamoDB request inputs from expression ASTs.
//
// Every operation compiles all of its expressions against one fresh
// expr.Parameters, so placeholders of a key condition and a filter never
// collide, and the merged side table is attached to the SDK input as is.
// Nothing here sends requests.
package request
