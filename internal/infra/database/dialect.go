// Package database opens the result database and applies its schema.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/lib/pq"               // Register PostgreSQL driver
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	_ "modernc.org/sqlite"              // Pure Go SQLite driver
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ErrUnsupportedDriver is returned when a driver name has no dialect.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialect describes the SQL differences between the supported drivers.
type Dialect string

const (
	DialectSQLite    Dialect = "sqlite"
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectSQLServer Dialect = "sqlserver"
)

// ParseDialect maps a driver name to its dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(driver))); d {
	case DialectSQLite, DialectPostgres, DialectMySQL, DialectSQLServer:
		return d, nil
	case "postgresql", "pq":
		return DialectPostgres, nil
	case "mssql":
		return DialectSQLServer, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// DriverName returns the database/sql driver name.
func (d Dialect) DriverName() string {
	return string(d)
}

// Rebind rewrites "?" placeholders into the dialect's form: $N for
// postgres, @pN for sqlserver. Queries must not contain literal '?'.
func (d Dialect) Rebind(query string) string {
	var prefix string
	switch d {
	case DialectPostgres:
		prefix = "$"
	case DialectSQLServer:
		prefix = "@p"
	default:
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(prefix)
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Schema returns the schema statements of the dialect, one per element.
func (d Dialect) Schema() ([]string, error) {
	data, err := schemaFS.ReadFile("schema/" + string(d) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return splitStatements(string(data)), nil
}

// splitStatements drops comment lines and splits on semicolons that end
// a line. MySQL rejects multi-statement Exec by default.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";\n") {
		stmt = strings.TrimSuffix(strings.TrimSpace(stmt), ";")
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// DB is a result database connection with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the result database and applies the schema. For
// sqlite the dsn is a file path or ":memory:".
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		return InitializeSQLite(ctx, dsn)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	out := &DB{DB: db, Dialect: dialect}
	if err := out.applySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Database: Connected", "driver", dialect)
	return out, nil
}

func (db *DB) applySchema(ctx context.Context) error {
	stmts, err := db.Dialect.Schema()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema: %w", err)
		}
	}
	return nil
}
