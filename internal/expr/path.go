package expr

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Path is an immutable reference to a (possibly nested) attribute.
//
// A path is a root attribute name followed by components. A string
// component descends into a map key; an integer component indexes into a
// list. Paths compare by value (Equal, Key) and never depend on allocator
// state.
type Path struct {
	root  string
	parts []component
}

type component struct {
	name    string
	index   int
	isIndex bool
}

// NewPath builds a path from a root name and components. Each component
// must be a string (map key) or a non-negative Go integer (list index).
func NewPath(root string, parts ...any) (Path, error) {
	if root == "" {
		return Path{}, newEmptyRootError()
	}

	var comps []component
	for i, part := range parts {
		c, ok := toComponent(part)
		if !ok {
			return Path{}, newUnsupportedComponentError(root, i, part)
		}
		comps = append(comps, c)
	}
	return Path{root: root, parts: comps}, nil
}

// F builds a path and panics if a component is unsupported.
// It is intended for literal paths in code, like regexp.MustCompile.
func F(root string, parts ...any) Path {
	p, err := NewPath(root, parts...)
	if err != nil {
		panic(err)
	}
	return p
}

func toComponent(part any) (component, bool) {
	switch v := part.(type) {
	case string:
		return component{name: v}, true
	case int:
		return signedIndex(int64(v))
	case int8:
		return signedIndex(int64(v))
	case int16:
		return signedIndex(int64(v))
	case int32:
		return signedIndex(int64(v))
	case int64:
		return signedIndex(v)
	case uint:
		return unsignedIndex(uint64(v))
	case uint8:
		return unsignedIndex(uint64(v))
	case uint16:
		return unsignedIndex(uint64(v))
	case uint32:
		return unsignedIndex(uint64(v))
	case uint64:
		return unsignedIndex(v)
	case uintptr:
		return unsignedIndex(uint64(v))
	}
	return component{}, false
}

func signedIndex(n int64) (component, bool) {
	if n < 0 {
		return component{}, false
	}
	return unsignedIndex(uint64(n))
}

// unsignedIndex rejects indices that do not fit in an int.
func unsignedIndex(n uint64) (component, bool) {
	if n > math.MaxInt {
		return component{}, false
	}
	return component{index: int(n), isIndex: true}, true
}

// Root returns the top-level attribute name.
func (p Path) Root() string {
	return p.root
}

// Field returns a new path descending into map key name.
func (p Path) Field(name string) Path {
	return Path{root: p.root, parts: append(slices.Clip(p.parts), component{name: name})}
}

// Index returns a new path indexing list element i. Negative indices panic.
func (p Path) Index(i int) Path {
	if i < 0 {
		panic(fmt.Sprintf("expr: negative list index %d", i))
	}
	return Path{root: p.root, parts: append(slices.Clip(p.parts), component{index: i, isIndex: true})}
}

// Encode renders the path with name placeholders allocated from params.
// List indices are embedded literally: F("foo", 0, "bar") -> "#n0[0].#n1".
func (p Path) Encode(params *Parameters) string {
	return p.render(params.Name)
}

// Debug renders the path with raw names: "foo[0].bar".
func (p Path) Debug() string {
	return p.render(func(s string) string { return s })
}

func (p Path) render(name func(string) string) string {
	segs := []string{name(p.root)}
	for _, c := range p.parts {
		if c.isIndex {
			segs[len(segs)-1] += "[" + strconv.Itoa(c.index) + "]"
			continue
		}
		segs = append(segs, name(c.name))
	}
	return strings.Join(segs, ".")
}

// String joins the root and every component with ".", indices in decimal:
// F("foo", 1, "bar").String() == "foo.1.bar".
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(p.root)
	for _, c := range p.parts {
		b.WriteByte('.')
		if c.isIndex {
			b.WriteString(strconv.Itoa(c.index))
		} else {
			b.WriteString(c.name)
		}
	}
	return b.String()
}

// Key returns an unambiguous identity string, usable as a map key.
// Two paths have the same Key iff they are Equal.
func (p Path) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(p.root))
	for _, c := range p.parts {
		b.WriteByte('/')
		if c.isIndex {
			b.WriteString(strconv.Itoa(c.index))
		} else {
			b.WriteString(strconv.Quote(c.name))
		}
	}
	return b.String()
}

// Equal reports whether both paths have the same component sequence.
func (p Path) Equal(other Path) bool {
	return p.root == other.root && slices.Equal(p.parts, other.parts)
}

// IsZero reports whether p is the zero Path.
func (p Path) IsZero() bool {
	return p.root == "" && len(p.parts) == 0
}
