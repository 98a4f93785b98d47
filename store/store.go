// Package store implements the file-backed persistence half of C11:
// versioned biography snapshots and bank/agenda content, one directory per
// user. Path confinement and the validateID/path() pattern are grounded on
// the teacher's session/file_store.go.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidUserID is returned when a user id could escape the store root
// via path separators or relative components.
var ErrInvalidUserID = errors.New("store: invalid user id")

func validateUserID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, "/\\") ||
		strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}

// userDir returns the confined per-user directory under root, creating it
// if necessary.
func userDir(root, userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	dir := filepath.Join(root, userID)
	dir = filepath.Clean(dir)
	rootClean := filepath.Clean(root)
	if !strings.HasPrefix(dir, rootClean+string(filepath.Separator)) && dir != rootClean {
		return "", fmt.Errorf("%w: %q resolves outside store root", ErrInvalidUserID, userID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// PurgeUserData removes a user's entire persisted state directory under
// root (spec §6 `--restart` flag: "purge user data first"). It is a no-op
// if the directory does not exist.
func PurgeUserData(root, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	dir := filepath.Join(filepath.Clean(root), userID)
	return os.RemoveAll(dir)
}

// writeFileAtomic writes data to path by first writing a sibling temp file
// and renaming it into place, so a crash mid-write never leaves a
// truncated snapshot (spec §4.3: "save atomically writes a JSON
// snapshot").
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
