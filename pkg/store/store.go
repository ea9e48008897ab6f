// Package store persists upload artifacts under opaque string keys.
package store

import (
	"errors"

	"github.com/binsift/binsift/pkg/types"
)

// ErrNotFound is returned by Get for keys with no stored bytes.
var ErrNotFound = errors.New("blob not found")

// Blob is the capability interface the extraction core depends on. It
// abstracts the storage layout so the core never touches filesystem
// paths directly.
type Blob interface {
	// Get retrieves the bytes stored under key.
	Get(key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(key string, data []byte) error

	// Exists reports whether key has stored bytes.
	Exists(key string) bool
}

// Artifact keys derived from a source ID. Every artifact of one upload
// shares the same ID with a distinguishing suffix.

// RawKey is the key holding the original uploaded bytes.
func RawKey(id types.SourceID) string {
	return id.Hex() + ".raw"
}

// ManifestKey is the key holding the serialized extraction manifest.
func ManifestKey(id types.SourceID) string {
	return id.Hex() + ".manifest"
}

// ArchiveKey is the key holding completed archive bytes.
func ArchiveKey(id types.SourceID) string {
	return id.Hex() + ".archive"
}

// Config for store initialization.
type Config struct {
	// Root is the on-disk storage directory. Empty means an in-memory
	// store (useful for testing).
	Root string
}

// New creates a Blob store for the given config.
func New(cfg Config) (Blob, error) {
	if cfg.Root == "" {
		return NewMemory(), nil
	}
	return NewDisk(cfg.Root)
}
