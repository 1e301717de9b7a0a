package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ddbexpr/internal/expr"
	"github.com/roach88/ddbexpr/internal/request"
)

// createTestStore opens a fresh store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// compileTestGet compiles a get request against table with a string key.
func compileTestGet(t *testing.T, table, key string) *request.Compiled {
	t.Helper()
	op := &request.Get{
		Table:      table,
		Key:        map[string]any{"pk": key},
		Projection: expr.Project(expr.F("name"), expr.F("tags", 0)),
	}
	c, err := op.Compile()
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return c
}
