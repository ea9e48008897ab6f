// Package signature holds the catalog of file-format magic numbers the
// carver anchors on.
package signature

// Signature pairs a magic-number prefix with the extension tag given to
// files carved at that anchor.
type Signature struct {
	Tag   string
	Magic []byte
}

// builtin is the default catalog. Order matters: when several magics
// match at one offset, catalog order decides which record comes first.
var builtin = []Signature{
	{Tag: "png", Magic: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	{Tag: "gif", Magic: []byte("GIF89a")},
	{Tag: "gif", Magic: []byte("GIF87a")},
	{Tag: "jpg", Magic: []byte{0xff, 0xd8, 0xff}},
	{Tag: "zip", Magic: []byte("PK\x03\x04")},
	{Tag: "pdf", Magic: []byte("%PDF")},
	{Tag: "exe", Magic: []byte("MZ")},
	{Tag: "gz", Magic: []byte{0x1f, 0x8b}},
	{Tag: "bmp", Magic: []byte("BM")},
	// RIFF covers WAV, AVI and other RIFF containers generically.
	{Tag: "wav", Magic: []byte("RIFF")},
}

// Catalog returns the builtin signature catalog in scan order. The
// returned slice is a copy; callers may append custom entries freely.
func Catalog() []Signature {
	out := make([]Signature, len(builtin))
	copy(out, builtin)
	return out
}
