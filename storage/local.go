package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs as files in a directory. It exists for development and
// for single host installs.
type Local struct {
	dir string
}

func NewLocal(root, container string) (*Local, error) {
	dir := filepath.Join(root, container)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("unable to create upload directory %s: %w", dir, err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) StoreFile(ctx context.Context, r io.Reader, b Blob) (string, error) {
	if err := checkName(b.Name); err != nil {
		return "", err
	}

	// Write next to the target and rename so a failed upload never leaves a
	// truncated blob behind.
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("unable to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("unable to write %s: %w", b.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("unable to sync %s: %w", b.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("unable to close %s: %w", b.Name, err)
	}

	target := filepath.Join(l.dir, b.Name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("unable to move %s into place: %w", b.Name, err)
	}
	return target, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
