// Package carver locates embedded sub-files inside arbitrary binary
// blobs by scanning for known file-format signatures.
package carver

import (
	"bytes"
	"fmt"

	"github.com/cloudflare/ahocorasick"

	"github.com/binsift/binsift/pkg/signature"
	"github.com/binsift/binsift/pkg/types"
)

const (
	// DefaultWindow bounds how far past an anchor the carver searches
	// for the next signature before giving up on delimiting.
	DefaultWindow = 10 << 20 // 10 MiB

	// DefaultFallbackExtent is the extent given to a candidate when no
	// terminating signature occurs inside the window.
	DefaultFallbackExtent = 1 << 20 // 1 MiB
)

// FallbackName and FallbackTag label the single whole-input record
// returned when no signature matches anywhere.
const (
	FallbackName = "binary_data.bin"
	FallbackTag  = "bin"
)

// Carver scans byte buffers against a fixed signature catalog. It is
// immutable after construction and safe for concurrent use.
type Carver struct {
	catalog        []signature.Signature
	patterns       [][]byte
	pre            *ahocorasick.Matcher
	window         int
	fallbackExtent int
}

// Option configures a Carver.
type Option func(*Carver)

// WithWindow overrides the forward search window. Intended for tests;
// production carving uses DefaultWindow.
func WithWindow(n int) Option {
	return func(c *Carver) {
		c.window = n
	}
}

// WithFallbackExtent overrides the fallback candidate extent.
func WithFallbackExtent(n int) Option {
	return func(c *Carver) {
		c.fallbackExtent = n
	}
}

// New creates a Carver over the given catalog. A nil or empty catalog
// means the builtin one. Catalog order is preserved: it decides record
// order when several magics match at one offset.
func New(catalog []signature.Signature, opts ...Option) *Carver {
	if len(catalog) == 0 {
		catalog = signature.Catalog()
	}

	c := &Carver{
		catalog:        catalog,
		window:         DefaultWindow,
		fallbackExtent: DefaultFallbackExtent,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.patterns = make([][]byte, len(catalog))
	for i, sig := range catalog {
		c.patterns[i] = sig.Magic
	}
	c.pre = ahocorasick.NewMatcher(c.patterns)

	return c
}

// Catalog returns the carver's signature catalog in scan order.
func (c *Carver) Catalog() []signature.Signature {
	out := make([]signature.Signature, len(c.catalog))
	copy(out, c.catalog)
	return out
}

// anchor is one signature occurrence found during the scan pass.
type anchor struct {
	offset int
	sig    int // catalog index
}

// Carve scans input and returns every candidate sub-file, ordered by
// offset and then catalog order. Carving is a pure function of the
// input and the catalog: identical input always yields the identical
// sequence, so manifest indices stay valid across re-extraction.
//
// Records borrow their Data from input; callers must not mutate it.
func (c *Carver) Carve(input []byte) []types.CarvedFile {
	anchors := c.scan(input)
	if len(anchors) == 0 {
		return []types.CarvedFile{{
			Name:   FallbackName,
			Tag:    FallbackTag,
			Offset: 0,
			Size:   len(input),
			Data:   input,
		}}
	}

	files := make([]types.CarvedFile, 0, len(anchors))
	for k, a := range anchors {
		end := c.delimit(input, anchors, k)
		data := input[a.offset:end]
		tag := c.catalog[a.sig].Tag
		files = append(files, types.CarvedFile{
			Name:   fmt.Sprintf("extracted_%s.%s", types.FingerprintHead(data), tag),
			Tag:    tag,
			Offset: a.offset,
			Size:   len(data),
			Data:   data,
		})
	}
	return files
}

// scan finds every (offset, signature) occurrence in input. An offset
// can anchor several records when more than one magic matches there;
// overlapping candidates are intentional, containers nest.
//
// The Aho-Corasick pre-pass only narrows the catalog to signatures
// that occur somewhere in input. The per-offset loop below is what
// defines observable behavior.
func (c *Carver) scan(input []byte) []anchor {
	active := c.presentSignatures(input)
	if len(active) == 0 {
		return nil
	}

	var anchors []anchor
	for i := 0; i < len(input); i++ {
		for _, s := range active {
			magic := c.catalog[s].Magic
			if i+len(magic) <= len(input) && bytes.Equal(input[i:i+len(magic)], magic) {
				anchors = append(anchors, anchor{offset: i, sig: s})
			}
		}
	}
	return anchors
}

// presentSignatures returns catalog indices whose magic occurs at least
// once in input, in catalog order. Comparing by magic bytes rather than
// matcher hit index keeps duplicate-magic catalog entries alive.
func (c *Carver) presentSignatures(input []byte) []int {
	hits := c.pre.Match(input)
	if len(hits) == 0 {
		return nil
	}

	found := make(map[string]bool, len(hits))
	for _, h := range hits {
		found[string(c.patterns[h])] = true
	}

	active := make([]int, 0, len(c.catalog))
	for i, sig := range c.catalog {
		if found[string(sig.Magic)] {
			active = append(active, i)
		}
	}
	return active
}

// delimit resolves the end offset of the candidate anchored at
// anchors[k]: the first signature occurrence after the matched magic
// and within the window, else a fixed fallback extent.
func (c *Carver) delimit(input []byte, anchors []anchor, k int) int {
	a := anchors[k]
	searchFrom := a.offset + len(c.catalog[a.sig].Magic)

	limit := a.offset + c.window
	if limit > len(input) {
		limit = len(input)
	}

	// Anchors are sorted by offset, so the first one at or past
	// searchFrom terminates this candidate.
	for _, next := range anchors[k+1:] {
		if next.offset < searchFrom {
			continue
		}
		if next.offset >= limit {
			break
		}
		return next.offset
	}

	end := a.offset + c.fallbackExtent
	if end > len(input) {
		end = len(input)
	}
	return end
}
