package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Driver names as registered by github.com/jackc/pgx/v5/stdlib and modernc.org/sqlite.
// Callers import the driver package they need.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Open connects to a database and verifies the connection.
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("openDB: open %s database: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		// a single writer; also keeps ":memory:" databases on one connection
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: verify %s connection: %w", driver, err)
	}

	return db, nil
}

// Select picks the backend from the configuration: a Postgres URL wins over a
// SQLite path. ok is false when neither is set.
func Select(databaseURL, dbPath string) (driver, dsn string, ok bool) {
	if s := strings.TrimSpace(databaseURL); s != "" {
		return DriverPostgres, s, true
	}
	if s := strings.TrimSpace(dbPath); s != "" {
		return DriverSQLite, s, true
	}
	return "", "", false
}
