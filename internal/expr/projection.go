package expr

import (
	"slices"
	"strings"
)

// Projection is an ordered list of attribute paths to return.
// Duplicates are kept; each position is encoded on its own.
type Projection struct {
	paths []Path
}

// Project builds a projection over paths.
func Project(paths ...Path) Projection {
	return Projection{paths: slices.Clone(paths)}
}

// And returns a new projection with paths appended.
func (pr Projection) And(paths ...Path) Projection {
	return Projection{paths: slices.Concat(pr.paths, paths)}
}

// Paths returns the projected paths in order.
func (pr Projection) Paths() []Path {
	return slices.Clone(pr.paths)
}

// IsEmpty reports whether pr projects nothing.
func (pr Projection) IsEmpty() bool {
	return len(pr.paths) == 0
}

// Encode joins the encoded paths with ",". Name placeholders are shared
// with everything else encoded against params.
func (pr Projection) Encode(params *Parameters) string {
	parts := make([]string, len(pr.paths))
	for i, p := range pr.paths {
		parts[i] = p.Encode(params)
	}
	return strings.Join(parts, ",")
}

// Debug joins the raw paths with ",".
func (pr Projection) Debug() string {
	parts := make([]string, len(pr.paths))
	for i, p := range pr.paths {
		parts[i] = p.Debug()
	}
	return strings.Join(parts, ",")
}
