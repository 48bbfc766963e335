package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// memoryDSN opens a private in-memory SQLite database.
const memoryDSN = ":memory:"

// InitializeSQLite opens the SQLite result database at dbPath, creating
// its directory, and applies the schema. The pool holds one connection,
// which also keeps an in-memory database alive.
func InitializeSQLite(ctx context.Context, dbPath string) (*DB, error) {
	dsn := memoryDSN
	if dbPath != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	out := &DB{DB: db, Dialect: DialectSQLite}
	if err := out.applySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Debug("Database: SQLite ready", "path", dbPath)
	return out, nil
}
