// Package index keeps a queryable sqlite catalog of uploaded sources
// and completed archives. The blob store owns the bytes; the index only
// answers "what has been uploaded and archived here".
package index

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/binsift/binsift/pkg/types"
)

// Index is a sqlite-backed upload catalog.
type Index struct {
	db *sql.DB
}

// SourceRecord summarizes one uploaded source.
type SourceRecord struct {
	SourceID     types.SourceID `json:"source_id"`
	OriginalName string         `json:"original_name"`
	TotalSize    int64          `json:"total_size"`
	FileCount    int            `json:"file_count"`
}

// Open creates or opens a catalog at path. Use ":memory:" for an
// in-memory catalog (useful for testing).
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Index{db: db}, nil
}

// AddSource records an upload. Re-uploading the same source replaces
// the previous record (last-writer-wins).
func (x *Index) AddSource(m *types.Manifest) error {
	_, err := x.db.Exec(`
		INSERT OR REPLACE INTO sources (id, original_name, total_size, file_count)
		VALUES (?, ?, ?, ?)
	`,
		m.SourceID,
		m.OriginalName,
		int64(m.TotalSize),
		m.ExtractedCount,
	)
	if err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}
	return nil
}

// SourceExists checks whether an upload has been recorded.
func (x *Index) SourceExists(id types.SourceID) (bool, error) {
	var count int
	err := x.db.QueryRow("SELECT COUNT(*) FROM sources WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking source existence: %w", err)
	}
	return count > 0, nil
}

// ListSources retrieves every recorded upload, most recent id order not
// guaranteed; callers sort if they care.
func (x *Index) ListSources() ([]SourceRecord, error) {
	rows, err := x.db.Query(`
		SELECT id, original_name, total_size, file_count
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var records []SourceRecord
	for rows.Next() {
		var rec SourceRecord
		if err := rows.Scan(&rec.SourceID, &rec.OriginalName, &rec.TotalSize, &rec.FileCount); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return records, nil
}

// AddArchive records a completed archive build, replacing any previous
// result for the same source (last-writer-wins).
func (x *Index) AddArchive(res types.ArchiveResult) error {
	_, err := x.db.Exec(`
		INSERT OR REPLACE INTO archives (source_id, byte_size)
		VALUES (?, ?)
	`,
		res.SourceID,
		res.ByteSize,
	)
	if err != nil {
		return fmt.Errorf("inserting archive: %w", err)
	}
	return nil
}

// GetArchive retrieves the archive result for a source. Returns nil
// with no error when no archive has been built.
func (x *Index) GetArchive(id types.SourceID) (*types.ArchiveResult, error) {
	var res types.ArchiveResult
	err := x.db.QueryRow(`
		SELECT source_id, byte_size FROM archives WHERE source_id = ?
	`, id).Scan(&res.SourceID, &res.ByteSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	return &res, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}
