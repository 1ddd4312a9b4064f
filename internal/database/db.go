package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode: the odds ingester writes while we read
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Migrate creates the odds tables when they do not exist yet. The odds
// ingestion process owns the data; this service only needs the schema in
// place so a fresh deployment can serve empty snapshots instead of erroring.
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS win_odds_ticks (
			race_code    TEXT NOT NULL,
			horse_number INTEGER NOT NULL,
			odds         INTEGER NOT NULL,
			observed_at  TEXT NOT NULL,
			PRIMARY KEY (race_code, horse_number, observed_at)
		)`,
		`CREATE TABLE IF NOT EXISTS place_odds_ticks (
			race_code    TEXT NOT NULL,
			horse_number INTEGER NOT NULL,
			odds         INTEGER NOT NULL,
			observed_at  TEXT NOT NULL,
			PRIMARY KEY (race_code, horse_number, observed_at)
		)`,
		`CREATE TABLE IF NOT EXISTS win_odds_final (
			race_code    TEXT NOT NULL,
			horse_number INTEGER NOT NULL,
			odds         INTEGER NOT NULL,
			PRIMARY KEY (race_code, horse_number)
		)`,
		`CREATE TABLE IF NOT EXISTS place_odds_final (
			race_code    TEXT NOT NULL,
			horse_number INTEGER NOT NULL,
			odds         INTEGER NOT NULL,
			PRIMARY KEY (race_code, horse_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_win_odds_ticks_race ON win_odds_ticks (race_code, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_place_odds_ticks_race ON place_odds_ticks (race_code, observed_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
