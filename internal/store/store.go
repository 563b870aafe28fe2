package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
// 2 - Added end_time index on schedules
// 3 - Retirement sequence on schedules, per-account retired cursor
const currentSchemaVersion = 3

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store provides durable storage for the ledger, proposals, and reward
// schedules.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The pool is limited to one connection: SQLite has a single writer, and
// an in-memory database exists only on the connection that created it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// The harness uses it for final-state assertions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Query executes a read-only query outside any transaction.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}
	if version < 3 {
		if err := migrateToV3(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV2 adds the schedule end_time index for databases created at v1.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_schedules_end ON schedules(end_time, id)`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// migrateToV3 adds the retirement columns used for bounded reward
// settlement and drops the end_time index they replace.
func migrateToV3(db *sql.DB) error {
	columns := []struct{ table, column, decl string }{
		{"ledger_state", "retired_count", "INTEGER NOT NULL DEFAULT 0"},
		{"accounts", "retired_cursor", "INTEGER NOT NULL DEFAULT 0"},
		{"schedules", "retired_seq", "INTEGER NOT NULL DEFAULT 0"},
	}
	for _, c := range columns {
		if err := addColumn(db, c.table, c.column, c.decl); err != nil {
			return fmt.Errorf("migrate to v3: %w", err)
		}
	}
	// Schedules already off the queue at upgrade time are retired in id order.
	_, err := db.Exec(`
		UPDATE schedules SET retired_seq = (
			SELECT COUNT(*) FROM schedules s2
			WHERE s2.id <= schedules.id
			  AND s2.id NOT IN (SELECT schedule_id FROM schedule_queue)
		)
		WHERE retired_seq = 0 AND id NOT IN (SELECT schedule_id FROM schedule_queue)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v3: number retired schedules: %w", err)
	}
	_, err = db.Exec(`
		UPDATE ledger_state SET retired_count = (SELECT COALESCE(MAX(retired_seq), 0) FROM schedules)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v3: retired count: %w", err)
	}
	for _, stmt := range []string{
		`DROP INDEX IF EXISTS idx_schedules_end`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_retired ON schedules(retired_seq)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v3: %w", err)
		}
	}
	return nil
}

// addColumn adds a column unless the table already has it. Fresh databases
// get every column from the schema.
func addColumn(db *sql.DB, table, column, decl string) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
