package db

import (
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated write/read pool pair in t.TempDir() and
// registers cleanup.
func OpenTestSQLite(t *testing.T) *Pools {
	t.Helper()

	pools, err := OpenPools(filepath.Join(t.TempDir(), "test.sqlite"), 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = pools.Close() })

	return pools
}
