// Package database opens the SQLite file that backs the vault.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/saverpwd/internal/filex"
)

// pragmas are applied by the driver to every new connection.
var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// DSN builds the modernc.org/sqlite data source name for path. The path is
// percent-encoded, so '?', '#' and '%' in directory names survive URI parsing.
func DSN(path string) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString((&url.URL{Path: path}).EscapedPath())
	for i, p := range pragmas {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// Open opens (creating if needed) the vault database at path. The parent
// directory is created with 0700 and the file is restricted to 0600.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open database: empty path")
	}
	if _, err := filex.EnsurePrivateDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("open database: create parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := filex.RestrictFile(path); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: set permissions: %w", err)
	}
	return db, nil
}
