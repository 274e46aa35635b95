package walmart

import (
	"database/sql"
	"fmt"

	"gowalmart_seller/internal/walmart/storage"
	"gowalmart_seller/pkg/dbconnect/migration"
	"gowalmart_seller/pkg/logger"
)

// Migrations returns everything the sync command needs, in order.
func Migrations(log logger.Logger, streams []string) []migration.MigrationInterface {
	applied := []migration.MigrationInterface{&CreateWalmartSchema{}}
	for _, stream := range streams {
		applied = append(applied, &CreateStreamTable{Stream: stream, Log: log})
	}
	return append(applied, &CreateSyncRunsTable{Log: log})
}

type CreateWalmartSchema struct{}

func (m *CreateWalmartSchema) UpMigration(db *sql.DB) error {
	query := `
	CREATE SCHEMA IF NOT EXISTS walmart;`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create schema walmart: %w", err)
	}
	return nil
}

// CreateStreamTable creates the raw record table of one stream.
type CreateStreamTable struct {
	Stream string
	Log    logger.Logger
}

func (m *CreateStreamTable) UpMigration(db *sql.DB) error {
	table, query, err := streamTableDDL(m.Stream)
	if err != nil {
		return err
	}
	if ok, err := checkAndSkipMigration(db, m.Log, table); err != nil {
		return err
	} else if ok {
		return nil
	}
	if err := executeAndMarkMigration(db, query, table); err != nil {
		return err
	}
	m.Log.Log("Migration '%s' completed successfully.", table)
	return nil
}

func streamTableDDL(stream string) (string, string, error) {
	table, err := storage.Table(stream)
	if err != nil {
		return "", "", err
	}
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		pk TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		synced_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS %[2]s_synced_at_idx ON %[1]s (synced_at);`, table, stream)
	return table, query, nil
}

type CreateSyncRunsTable struct {
	Log logger.Logger
}

func (m *CreateSyncRunsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, m.Log, "walmart.sync_runs"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS walmart.sync_runs (
		run_id UUID NOT NULL,
		stream VARCHAR(255) NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		records BIGINT NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, stream)
	);`
	if err := executeAndMarkMigration(db, query, "walmart.sync_runs"); err != nil {
		return err
	}
	m.Log.Log("Migration 'walmart.sync_runs' completed successfully.")
	return nil
}

func checkAndSkipMigration(db *sql.DB, log logger.Logger, migrationName string) (bool, error) {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", migrationName).Scan(&migrationExists)
	if err != nil {
		return migrationExists, fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Debug("Migration '%s' already completed. Skipping.", migrationName)
	}
	return migrationExists, nil
}

func executeAndMarkMigration(db *sql.DB, query string, migrationName string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start migration '%s': %w", migrationName, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to execute migration '%s': %w", migrationName, err)
	}
	_, err = tx.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", migrationName)
	if err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", migrationName, err)
	}
	return tx.Commit()
}
