// Package binsift provides a file-carving library for binary blobs.
//
// Binsift scans arbitrary binary content for known file-format
// signatures and carves out the embedded sub-files it finds.
//
// # Basic Usage
//
// Create an extractor with the builtin signature catalog and carve
// content:
//
//	extractor, err := binsift.NewExtractor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	carved := extractor.Carve(firmwareBytes)
//	for _, f := range carved {
//	    fmt.Printf("%s at offset %d (%d bytes)\n", f.Name, f.Offset, f.Size)
//	}
//
// # With a Custom Catalog
//
// Load signatures from YAML and carve with those instead:
//
//	catalog, err := binsift.LoadCatalogFromFile("/path/to/signatures.yaml")
//	if err != nil {
//	    return err
//	}
//	extractor, err := binsift.NewExtractor(binsift.WithCatalog(catalog))
package binsift

import (
	"fmt"
	"os"

	"github.com/binsift/binsift/pkg/carver"
	"github.com/binsift/binsift/pkg/signature"
	"github.com/binsift/binsift/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/binsift/binsift" without subpackages.
type (
	// CarvedFile is a single carved candidate file.
	CarvedFile = types.CarvedFile

	// Manifest describes the full carve result of one input.
	Manifest = types.Manifest

	// SourceID is the content-derived identifier of an input.
	SourceID = types.SourceID

	// Signature pairs a short format tag with its magic-byte prefix.
	Signature = signature.Signature
)

// Extractor carves embedded files out of binary content.
type Extractor struct {
	carver *carver.Carver
	config *extractorConfig
}

// extractorConfig holds extractor configuration.
type extractorConfig struct {
	catalog        []Signature
	window         int
	fallbackExtent int
}

// Option configures an Extractor.
type Option func(*extractorConfig)

// WithCatalog uses a custom signature catalog instead of the builtin one.
func WithCatalog(catalog []Signature) Option {
	return func(c *extractorConfig) {
		c.catalog = catalog
	}
}

// WithWindow caps how far ahead of an anchor the carver looks for the
// next signature before falling back to a fixed extent.
func WithWindow(n int) Option {
	return func(c *extractorConfig) {
		c.window = n
	}
}

// WithFallbackExtent sets the extent carved for anchors with no
// delimiting signature inside the window.
func WithFallbackExtent(n int) Option {
	return func(c *extractorConfig) {
		c.fallbackExtent = n
	}
}

// NewExtractor creates a new Extractor with the given options.
//
// By default, the extractor:
//   - Uses the builtin signature catalog
//   - Looks ahead 10 MiB for a delimiting signature
//   - Carves 1 MiB when no delimiter is found
func NewExtractor(opts ...Option) (*Extractor, error) {
	config := &extractorConfig{}
	for _, opt := range opts {
		opt(config)
	}

	var carverOpts []carver.Option
	if config.window != 0 {
		if config.window <= 0 {
			return nil, fmt.Errorf("window must be positive")
		}
		carverOpts = append(carverOpts, carver.WithWindow(config.window))
	}
	if config.fallbackExtent != 0 {
		if config.fallbackExtent <= 0 {
			return nil, fmt.Errorf("fallback extent must be positive")
		}
		carverOpts = append(carverOpts, carver.WithFallbackExtent(config.fallbackExtent))
	}

	return &Extractor{
		carver: carver.New(config.catalog, carverOpts...),
		config: config,
	}, nil
}

// Carve scans content and returns the carved candidate files. The
// result is a pure function of the content and the catalog: carving the
// same bytes twice yields identical records.
func (e *Extractor) Carve(content []byte) []CarvedFile {
	return e.carver.Carve(content)
}

// CarveFile reads and carves a file.
//
// Example:
//
//	carved, err := extractor.CarveFile("/path/to/firmware.bin")
func (e *Extractor) CarveFile(path string) ([]CarvedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return e.Carve(content), nil
}

// Manifest carves content and wraps the result in a manifest keyed by
// the content's source ID.
func (e *Extractor) Manifest(originalName string, content []byte) *Manifest {
	carved := e.Carve(content)
	return types.NewManifest(types.ComputeSourceID(content), originalName, len(content), carved)
}

// Catalog returns a copy of the signature catalog in use.
func (e *Extractor) Catalog() []Signature {
	return e.carver.Catalog()
}

// ComputeSourceID returns the content-derived identifier for data.
func ComputeSourceID(data []byte) SourceID {
	return types.ComputeSourceID(data)
}

// LoadCatalogFromFile loads a signature catalog from a YAML file.
// Use this with WithCatalog to create an extractor with custom
// signatures.
func LoadCatalogFromFile(path string) ([]Signature, error) {
	return signature.LoadCatalogFile(path)
}

// BuiltinCatalog returns the builtin signature catalog.
// This can be used to inspect available signatures or build a subset.
func BuiltinCatalog() []Signature {
	return signature.Catalog()
}
