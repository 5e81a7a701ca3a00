package store

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParseMigrations_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0002_index.sql": {Data: []byte("CREATE INDEX x ON t(a);")},
		"sql/0001_init.sql":  {Data: []byte("CREATE TABLE t(a int);")},
		"sql/README.md":      {Data: []byte("ignored")},
		"sql/embed.go":       {Data: []byte("package x")},
	}
	migs, err := NewMigrator(fsys, "sql").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "init", migs[0].Name)
	require.Equal(t, 2, migs[1].Version)
}

func TestParseMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_a.sql": {Data: []byte("SELECT 1;")},
		"sql/0001_b.sql": {Data: []byte("SELECT 2;")},
	}
	_, err := NewMigrator(fsys, "sql").ParseMigrations()
	require.Error(t, err)
}

func TestOpenAdapter_Unknown(t *testing.T) {
	_, err := OpenAdapter(context.Background(), AdapterConfig{Name: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not registered")
}
