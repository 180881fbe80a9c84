package database

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"file:/tmp/v.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		DSN("/tmp/v.sqlite"))

	assert.Equal(t,
		"file:/tmp/a%3Fb%23c%25d/my%20v.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		DSN("/tmp/a?b#c%d/my v.sqlite"))
}

func TestOpen_PathWithURIMetacharacters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("'?' is not allowed in windows file names")
	}
	path := filepath.Join(t.TempDir(), "we?ird#dir 100%", "vault.sqlite")
	ctx := context.Background()

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx, `CREATE TABLE marker (id INTEGER)`)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_CreatesFileWithPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "vault.sqlite")
	ctx := context.Background()

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	st, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
	}

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
