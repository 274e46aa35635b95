package migration

import "database/sql"

// MigrationInterface is one idempotent schema change. Implementations record
// themselves in migrations.migrations and skip when already applied.
type MigrationInterface interface {
	UpMigration(db *sql.DB) error
}
