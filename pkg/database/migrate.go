package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed schema.sql
var schema string

// SchemaVersion is stored in PRAGMA user_version once the schema is applied.
const SchemaVersion = 1

// Migrate applies the journal schema when the file is older than
// SchemaVersion. Re-running it on an up-to-date file is a no-op.
func Migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	log.Printf("[db] schema migrated %d -> %d", current, SchemaVersion)
	return nil
}
