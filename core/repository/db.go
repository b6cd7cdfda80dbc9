package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names registered by lib/pq and modernc.org/sqlite
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps a database connection and remembers which dialect it speaks
type DB struct {
	*sql.DB
	driver string
}

// NewDB opens a database. postgres:// and postgresql:// URLs use lib/pq;
// anything else is treated as a SQLite file path.
func NewDB(databaseURL string) (*DB, error) {
	driver := DriverSQLite
	dsn := databaseURL
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		driver = DriverPostgres
	} else {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return &DB{DB: sqlDB, driver: driver}, nil
}

// Driver returns the database/sql driver name in use
func (db *DB) Driver() string {
	return db.driver
}

// Migrate creates the schema if it does not exist
func (db *DB) Migrate(ctx context.Context) error {
	blobType := "BYTEA"
	if db.driver == DriverSQLite {
		blobType = "BLOB"
	}

	query := `
		CREATE TABLE IF NOT EXISTS datasets (
			filename           TEXT PRIMARY KEY,
			file_size          BIGINT NOT NULL,
			row_count          INTEGER NOT NULL,
			column_count       INTEGER NOT NULL,
			missing_percentage DOUBLE PRECISION NOT NULL,
			uploaded_at        TEXT NOT NULL,
			content            ` + blobType + `
		)
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate datasets table: %w", err)
	}
	return nil
}

// rebind rewrites $N placeholders to ? for SQLite
func (db *DB) rebind(query string) string {
	if db.driver != DriverSQLite {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if _, err := strconv.Atoi(query[i+1 : j]); err != nil {
			b.WriteByte(query[i])
			continue
		}
		b.WriteByte('?')
		i = j - 1
	}
	return b.String()
}
