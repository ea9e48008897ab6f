package index

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// createSchema creates the catalog tables if they don't exist.
func createSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createSourcesTable(db); err != nil {
		return fmt.Errorf("creating sources table: %w", err)
	}

	if err := createArchivesTable(db); err != nil {
		return fmt.Errorf("creating archives table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	return nil
}

func createSourcesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY NOT NULL,
			original_name TEXT NOT NULL,
			total_size INTEGER NOT NULL,
			file_count INTEGER NOT NULL
		)
	`)
	return err
}

func createArchivesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS archives (
			source_id TEXT PRIMARY KEY NOT NULL REFERENCES sources(id),
			byte_size INTEGER NOT NULL
		)
	`)
	return err
}
