package repository

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	mindguide "github.com/set-night/mindguide"
)

func TestMigrationSourceEmbedded(t *testing.T) {
	sub, err := fs.Sub(mindguide.MigrationsFS, "migrations")
	require.NoError(t, err)

	d, err := MigrationSource(sub)
	require.NoError(t, err)
	defer d.Close()

	first, err := d.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)
}

func TestMigrationSourceRejectsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_init.up.sql":   {Data: []byte("CREATE TABLE a (id INT);")},
		"000001_init.down.sql": {Data: []byte("DROP TABLE a;")},
		"000002_extra.up.sql":  {Data: []byte("CREATE TABLE b (id INT);")},
	}

	_, err := MigrationSource(fsys)
	require.ErrorContains(t, err, "migration 2 has no down script")
}
