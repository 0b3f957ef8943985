// internal/database/schema.go
// Database schema and migration logic for BrightWorld News
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const Schema = `
-- Settings table
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT,
    type TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Articles table
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    guid TEXT UNIQUE NOT NULL,
    headline TEXT NOT NULL,
    summary TEXT,
    source_url TEXT NOT NULL,
    source_name TEXT NOT NULL,
    image_url TEXT,
    published_at TIMESTAMP,
    fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    category TEXT,
    region TEXT,
    hopefulness_score INTEGER,
    is_rated BOOLEAN NOT NULL DEFAULT 0,
    rating_failed BOOLEAN NOT NULL DEFAULT 0,
    excluded_reason TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

const Indexes = `
-- Article indexes
CREATE INDEX IF NOT EXISTS idx_articles_guid ON articles(guid);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_score ON articles(is_rated, hopefulness_score DESC);
CREATE INDEX IF NOT EXISTS idx_articles_rating_failed ON articles(rating_failed) WHERE rating_failed = 1;
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category) WHERE category IS NOT NULL;`

// DB represents our database connection and operations
type DB struct {
	*sql.DB
}

// Configuration for the database
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns the default database configuration
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// NewDB creates a new database connection with optimized settings
func NewDB(dbPath string, cfg Config) (*DB, error) {
	// Add query parameters to optimize SQLite performance
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=ON&_synchronous=NORMAL",
		dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &DB{db}, nil
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(`
        PRAGMA journal_mode=WAL;
        PRAGMA synchronous=NORMAL;
        PRAGMA cache_size=10000;
        PRAGMA temp_store=MEMORY;
    `); err != nil {
		return fmt.Errorf("error setting pragmas: %w", err)
	}

	// Start transaction for table creation
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing schema: %w", err)
	}

	// Check and add columns if missing (upgrades from older databases)
	columnUpdates := []struct {
		table, column, definition string
	}{
		{"articles", "category", "TEXT"},
		{"articles", "region", "TEXT"},
		{"articles", "excluded_reason", "TEXT"},
	}

	for _, col := range columnUpdates {
		exists, err := columnExists(db, col.table, col.column)
		if err != nil {
			return fmt.Errorf("error checking column %s.%s: %w", col.table, col.column, err)
		}
		if !exists {
			_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				col.table, col.column, col.definition))
			if err != nil {
				return fmt.Errorf("error adding column %s.%s: %w", col.table, col.column, err)
			}
		}
	}

	// Create indexes after tables are committed
	if _, err := db.Exec(Indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}

	// Initialize default settings
	if err := insertDefaultSettings(db); err != nil {
		return fmt.Errorf("error inserting default settings: %w", err)
	}

	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func insertDefaultSettings(db *sql.DB) error {
	defaults := []struct {
		key, value, valueType string
	}{
		{"rating_threshold", "65", "int"},
		{"retention_days", "7", "int"},
		{"timezone", "UTC", "string"},
	}

	for _, s := range defaults {
		_, err := db.Exec(
			`INSERT INTO settings (key, value, type)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO NOTHING`,
			s.key, s.value, s.valueType,
		)
		if err != nil {
			return fmt.Errorf("error inserting default setting %s: %w", s.key, err)
		}
	}
	return nil
}
