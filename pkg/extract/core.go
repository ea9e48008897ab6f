// Package extract orchestrates the carving service: uploads are carved
// and persisted, selections are re-carved and packaged into archives.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/binsift/binsift/pkg/archiver"
	"github.com/binsift/binsift/pkg/carver"
	"github.com/binsift/binsift/pkg/index"
	"github.com/binsift/binsift/pkg/signature"
	"github.com/binsift/binsift/pkg/store"
	"github.com/binsift/binsift/pkg/types"
)

var (
	// ErrMissingInput means an upload carried no bytes.
	ErrMissingInput = errors.New("no input provided")

	// ErrUnknownSource means no stored artifacts exist for a source ID.
	ErrUnknownSource = errors.New("unknown source")
)

// Core wraps the carver, blob store and catalog index for service
// operations. Operations on distinct source IDs are independent and may
// run concurrently.
type Core struct {
	carver *carver.Carver
	blobs  store.Blob
	index  *index.Index
	logger DebugLogger
}

// Config for core initialization.
type Config struct {
	// Catalog overrides the builtin signature catalog.
	Catalog []signature.Signature

	// Blobs is the artifact store. Required.
	Blobs store.Blob

	// Index is the upload catalog. Optional; nil disables indexing.
	Index *index.Index

	// Logger receives diagnostics. Optional.
	Logger DebugLogger
}

// NewCore creates a Core.
func NewCore(cfg Config) (*Core, error) {
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NoopLogger{}
	}

	return &Core{
		carver: carver.New(cfg.Catalog),
		blobs:  cfg.Blobs,
		index:  cfg.Index,
		logger: logger,
	}, nil
}

// Carver exposes the core's carver for direct library use.
func (c *Core) Carver() *carver.Carver {
	return c.carver
}

// Upload persists an uploaded blob, carves it, and persists the
// resulting manifest. Raw bytes and manifest are one logical step:
// if either write fails the upload is reported failed.
func (c *Core) Upload(originalName string, content []byte) (*types.Manifest, error) {
	if len(content) == 0 {
		return nil, ErrMissingInput
	}

	id := types.ComputeSourceID(content)
	c.logger.Log("upload %s: %d bytes (%s)", id, len(content), originalName)

	carved := c.carver.Carve(content)
	manifest := types.NewManifest(id, originalName, len(content), carved)

	if err := c.blobs.Put(store.RawKey(id), content); err != nil {
		return nil, fmt.Errorf("storing raw bytes: %w", err)
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := c.blobs.Put(store.ManifestKey(id), manifestJSON); err != nil {
		return nil, fmt.Errorf("storing manifest: %w", err)
	}

	if c.index != nil {
		if err := c.index.AddSource(manifest); err != nil {
			return nil, fmt.Errorf("indexing source: %w", err)
		}
	}

	c.logger.Log("upload %s: %d files carved", id, len(carved))
	return manifest, nil
}

// Manifest retrieves the stored manifest for a source.
func (c *Core) Manifest(id types.SourceID) (*types.Manifest, error) {
	data, err := c.blobs.Get(store.ManifestKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest types.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}
	return &manifest, nil
}

// Archive re-carves the stored source, resolves indices, and builds a
// zip archive, streaming progress events on the returned channel. The
// channel closes after the terminal complete or error event.
//
// ErrUnknownSource is returned up front, before any event is produced.
// Failures after streaming begins surface as a terminal error event.
// If ctx is canceled, event delivery stops but the in-flight build runs
// to completion; persisted artifacts remain valid for a later download.
func (c *Core) Archive(ctx context.Context, id types.SourceID, indices []int) (<-chan archiver.Event, error) {
	if !c.blobs.Exists(store.RawKey(id)) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}

	events := make(chan archiver.Event)
	emit := func(ev archiver.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
			// Consumer is gone; keep building, drop delivery.
		}
	}

	go func() {
		defer close(events)

		raw, err := c.blobs.Get(store.RawKey(id))
		if err != nil {
			c.logger.Log("archive %s: reading raw bytes failed: %v", id, err)
			emit(archiver.Errorf("reading source bytes: %v", err))
			return
		}

		persist := func(res types.ArchiveResult, data []byte) error {
			if err := c.blobs.Put(store.ArchiveKey(id), data); err != nil {
				return fmt.Errorf("storing archive: %w", err)
			}
			if c.index != nil {
				if err := c.index.AddArchive(res); err != nil {
					return fmt.Errorf("indexing archive: %w", err)
				}
			}
			return nil
		}

		pipeline := archiver.NewPipeline(c.carver.Carve, persist, emit)
		if _, _, err := pipeline.Run(id, raw, indices); err != nil {
			c.logger.Log("archive %s: %v", id, err)
			return
		}
		c.logger.Log("archive %s: completed", id)
	}()

	return events, nil
}

// OpenArchive retrieves completed archive bytes for a source.
func (c *Core) OpenArchive(id types.SourceID) ([]byte, error) {
	data, err := c.blobs.Get(store.ArchiveKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
		}
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return data, nil
}

// Sources lists recorded uploads from the catalog index.
func (c *Core) Sources() ([]index.SourceRecord, error) {
	if c.index == nil {
		return nil, fmt.Errorf("no index configured")
	}
	return c.index.ListSources()
}
