package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitializeSQLite tests that the schema is applied to a new file.
func TestInitializeSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "results.db")

	db, err := InitializeSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DialectSQLite, db.Dialect)
	for _, table := range []string{"sweeps", "records", "runs"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

// TestInitializeSQLite_Idempotent tests reopening an existing database.
func TestInitializeSQLite_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")

	db, err := InitializeSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), "sqlite", dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

// TestParseDialect tests driver name mapping.
func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", DialectSQLite, false},
		{"Postgres", DialectPostgres, false},
		{"postgresql", DialectPostgres, false},
		{"mysql", DialectMySQL, false},
		{"mssql", DialectSQLServer, false},
		{"sqlserver", DialectSQLServer, false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedDriver)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDialect_Rebind tests placeholder rewriting.
func TestDialect_Rebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, DialectSQLite.Rebind(q))
	assert.Equal(t, q, DialectMySQL.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", DialectPostgres.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE b = @p1 AND c = @p2", DialectSQLServer.Rebind(q))
}

// TestDialect_Schema tests that every dialect has three table statements.
func TestDialect_Schema(t *testing.T) {
	for _, d := range []Dialect{DialectSQLite, DialectPostgres, DialectMySQL, DialectSQLServer} {
		t.Run(string(d), func(t *testing.T) {
			stmts, err := d.Schema()
			require.NoError(t, err)

			var tables int
			for _, stmt := range stmts {
				assert.NotContains(t, stmt, "--")
				if strings.Contains(stmt, "CREATE TABLE") {
					tables++
				}
			}
			assert.Equal(t, 3, tables)
		})
	}
}
