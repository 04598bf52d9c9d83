package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestStore opens a store file under t.TempDir and closes it on cleanup.
func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Save", FileName)
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

// columnsOf lists a table's column names in declaration order.
func columnsOf(t *testing.T, s *Store, table string) []string {
	t.Helper()

	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	return columns
}

// schemaObject reports whether sqlite_master holds an object of kind named name.
func schemaObject(t *testing.T, s *Store, kind, name string) bool {
	t.Helper()

	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
	).Scan(&n)
	require.NoError(t, err)
	return n == 1
}
