package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore implements Blob on the local filesystem, one file per key.
type DiskStore struct {
	root string
}

// NewDisk creates a disk-backed store rooted at root, creating the
// directory if needed.
func NewDisk(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Get retrieves the bytes stored under key.
func (d *DiskStore) Get(key string) ([]byte, error) {
	path, err := d.keyPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// Put stores data under key atomically using temp file + rename, so a
// concurrent reader never observes a partial write.
func (d *DiskStore) Put(key string, data []byte) error {
	path, err := d.keyPath(key)
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file on failure
		return fmt.Errorf("renaming blob: %w", err)
	}

	return nil
}

// Exists reports whether key has stored bytes.
func (d *DiskStore) Exists(key string) bool {
	path, err := d.keyPath(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// keyPath maps a key to its file path, rejecting keys that would
// escape the store root.
func (d *DiskStore) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid store key: %q", key)
	}
	return filepath.Join(d.root, key), nil
}
