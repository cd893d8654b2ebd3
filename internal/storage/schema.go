package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    backend TEXT NOT NULL,
    seed INTEGER NOT NULL,
    seconds INTEGER NOT NULL,
    rate REAL NOT NULL,
    elapsed_ns INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    config_yaml TEXT
);

-- one row per monitored group, in monitor order
CREATE TABLE IF NOT EXISTS run_groups (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    group_id INTEGER NOT NULL,
    size INTEGER NOT NULL,
    total INTEGER NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS counts (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    group_name TEXT NOT NULL,
    neuron INTEGER NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, group_name, neuron)
);

CREATE TABLE IF NOT EXISTS reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_a INTEGER REFERENCES runs(id) ON DELETE SET NULL,
    run_b INTEGER REFERENCES runs(id) ON DELETE SET NULL,
    equivalent INTEGER NOT NULL,
    summary_json TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the tables if they do not exist and records the version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
