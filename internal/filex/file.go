// Package filex creates the owner-only directories and files the vault and
// its logs live in.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	PrivateDirPerm  os.FileMode = 0o700
	PrivateFilePerm os.FileMode = 0o600
)

// EnsurePrivateDir creates dir (and missing parents) with PrivateDirPerm and
// returns its absolute path. Relative paths are resolved against the working directory.
func EnsurePrivateDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("ensure dir: empty path")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, PrivateDirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// RestrictFile sets PrivateFilePerm on an existing file.
func RestrictFile(path string) error {
	if err := os.Chmod(path, PrivateFilePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}
