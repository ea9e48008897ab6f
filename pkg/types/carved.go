package types

// CarvedFile is one candidate sub-file recovered from a source blob.
// It borrows its Data slice from the scanned input and is never mutated
// after the carver produces it.
type CarvedFile struct {
	Name   string `json:"name"`
	Tag    string `json:"type"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Data   []byte `json:"-"`
}

// ManifestEntry describes one carved file without its raw bytes.
type ManifestEntry struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Offset int    `json:"offset"`
	Tag    string `json:"type"`
}

// Manifest describes everything discovered in one uploaded source.
// Created at upload time and never mutated; a re-upload of the same
// bytes produces an identical manifest.
type Manifest struct {
	SourceID       SourceID        `json:"source_id"`
	OriginalName   string          `json:"original_name"`
	TotalSize      int             `json:"total_size"`
	ExtractedCount int             `json:"extracted_count"`
	Files          []ManifestEntry `json:"files"`
}

// NewManifest builds a manifest for a carved source.
func NewManifest(id SourceID, originalName string, totalSize int, carved []CarvedFile) *Manifest {
	entries := make([]ManifestEntry, len(carved))
	for i, f := range carved {
		entries[i] = ManifestEntry{
			Name:   f.Name,
			Size:   f.Size,
			Offset: f.Offset,
			Tag:    f.Tag,
		}
	}
	return &Manifest{
		SourceID:       id,
		OriginalName:   originalName,
		TotalSize:      totalSize,
		ExtractedCount: len(entries),
		Files:          entries,
	}
}

// ArchiveResult records a completed archive build for a source.
type ArchiveResult struct {
	SourceID SourceID `json:"source_id"`
	ByteSize int64    `json:"byte_size"`
}
