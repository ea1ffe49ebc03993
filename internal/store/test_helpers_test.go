package store

import (
	"fmt"
	"path/filepath"
	"testing"
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

// createTestMaterialization returns a record with minimal required fields.
func createTestMaterialization(name, hash string) Materialization {
	return Materialization{
		Name:          name,
		Source:        fmt.Sprintf("testdata/%s.yaml", name),
		RootKind:      "Lambda",
		ResultType:    "func(int) int",
		Hash:          hash,
		CanonicalJSON: `{"kind":"Lambda"}`,
		NodeCount:     4,
		VariableCount: 1,
	}
}
