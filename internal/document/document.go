package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Document describes one DynamoDB request declaratively.
// Fields that an operation does not use must be left out.
type Document struct {
	// Operation is one of get, put, update, delete, condition_check,
	// query or scan.
	Operation string `yaml:"operation"`

	// Table is the target table name.
	Table string `yaml:"table"`

	// Index is the secondary index for query and scan.
	Index string `yaml:"index,omitempty"`

	// Key is the primary key for get, update, delete and condition_check.
	Key map[string]any `yaml:"key,omitempty"`

	// Item is the full item written by put.
	Item map[string]any `yaml:"item,omitempty"`

	// KeyCondition selects the partition (and optionally a sort range) for query.
	KeyCondition *KeyCondition `yaml:"key_condition,omitempty"`

	// Condition guards a write, or is the check of condition_check.
	Condition *Condition `yaml:"condition,omitempty"`

	// Filter discards items after a query or scan read them.
	Filter *Condition `yaml:"filter,omitempty"`

	// Update lists the mutations of an update operation in order.
	Update []Action `yaml:"update,omitempty"`

	// Projection lists the attribute paths to return.
	Projection []Path `yaml:"projection,omitempty"`

	ConsistentRead bool           `yaml:"consistent_read,omitempty"`
	Limit          int32          `yaml:"limit,omitempty"`
	ScanForward    *bool          `yaml:"scan_forward,omitempty"`
	ReturnValues   string         `yaml:"return_values,omitempty"`
	Select         string         `yaml:"select,omitempty"`
	StartKey       map[string]any `yaml:"start_key,omitempty"`
	Segment        int32          `yaml:"segment,omitempty"`
	TotalSegments  int32          `yaml:"total_segments,omitempty"`
}

// KeyCondition is the key condition of a query.
type KeyCondition struct {
	// Partition holds 1 to 4 partition key attributes, in key order.
	Partition []KeyValue `yaml:"partition"`

	// Sort holds conditions on 1 to 4 sort key attributes. They are
	// combined with AND and kept as one group after the partition terms.
	Sort []SortCondition `yaml:"sort,omitempty"`
}

// KeyValue is one partition key attribute.
type KeyValue struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// SortCondition is a sort key comparison.
type SortCondition struct {
	Name string `yaml:"name"`

	// Op is eq, lt, lte, gt, gte, between or begins_with.
	Op string `yaml:"op"`

	Value  any   `yaml:"value,omitempty"`
	Values []any `yaml:"values,omitempty"`
}

// Condition is a node of a condition tree. A node is either a connective
// (exactly one of And, Or, Not) or a predicate (Path plus Op).
type Condition struct {
	And []Condition `yaml:"and,omitempty"`
	Or  []Condition `yaml:"or,omitempty"`
	Not *Condition  `yaml:"not,omitempty"`

	Path Path   `yaml:"path,omitempty"`
	Op   string `yaml:"op,omitempty"`

	// Size compares size(path) instead of the attribute itself.
	Size bool `yaml:"size,omitempty"`

	// Type is the argument of the type op (S, N, SS, ...).
	Type string `yaml:"type,omitempty"`

	// Values are the operands of between and in.
	Values []any `yaml:"values,omitempty"`

	Operand `yaml:",inline"`
}

// Action is one mutation of an update.
type Action struct {
	// Action is set, set_if_not_exists, change, append, remove, add or delete.
	Action string `yaml:"action"`
	Path   Path   `yaml:"path"`

	Operand `yaml:",inline"`
}

// Operand is the right-hand side of a predicate or action. At most one
// field is set; none means the literal null.
type Operand struct {
	Value     any      `yaml:"value,omitempty"`
	Ref       Path     `yaml:"ref,omitempty"`
	StringSet []string `yaml:"string_set,omitempty"`
	NumberSet []any    `yaml:"number_set,omitempty"`
}

// Path is an attribute path: a root name followed by map keys (strings)
// and list indices (integers). A single string is a root-only path; it is
// never split on dots.
type Path []any

// UnmarshalYAML accepts a scalar or a sequence.
func (p *Path) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*p = Path{name}
		return nil
	}
	var parts []any
	if err := node.Decode(&parts); err != nil {
		return err
	}
	*p = parts
	return nil
}

// FieldError reports a problem at a location inside a document.
type FieldError struct {
	// Field is the dotted location, e.g. "condition.and[1].op".
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Load reads a document, choosing the decoder by file extension:
// .yaml, .yml and .json are decoded as YAML, .cue is evaluated as CUE.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported document extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path))
	}
}

// ParseYAML decodes a YAML (or JSON) document. Unknown fields are rejected.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &doc, nil
}

// ParseCUE evaluates a CUE document. The value must be concrete; it is
// exported to JSON and decoded like a YAML document, so both formats
// share field names and validation.
func ParseCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	js, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return ParseYAML(js)
}

// formatCUEError keeps the first CUE error together with its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	fe := &FieldError{Field: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		fe.Pos = positions[0]
	}
	return fe
}
