package logstore

import "fmt"

// Dialect abstracts the SQL differences between SQLite and PostgreSQL.
type Dialect interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// Placeholder returns the parameter placeholder for a 1-indexed position.
	Placeholder(position int) string

	// SupportsLastInsertID reports whether Result.LastInsertId works.
	SupportsLastInsertID() bool

	// ReturningClause returns the RETURNING suffix for INSERT, or "".
	ReturningClause(column string) string

	// PrimaryKey returns the column definition of an auto-incrementing id.
	PrimaryKey() string

	// InitStatements run once after the connection is opened.
	InitStatements() []string
}

// DialectType identifies a Dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the Dialect for t. Unknown types fall back to SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return postgresDialect{}
	}
	return sqliteDialect{}
}

// sqliteDialect targets the modernc.org/sqlite driver.
type sqliteDialect struct{}

func (sqliteDialect) DriverName() string {
	return "sqlite"
}

func (sqliteDialect) Placeholder(int) string {
	return "?"
}

func (sqliteDialect) SupportsLastInsertID() bool {
	return true
}

func (sqliteDialect) ReturningClause(string) string {
	return ""
}

func (sqliteDialect) PrimaryKey() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (sqliteDialect) InitStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

// postgresDialect targets the lib/pq driver.
type postgresDialect struct{}

func (postgresDialect) DriverName() string {
	return "postgres"
}

func (postgresDialect) Placeholder(pos int) string {
	return fmt.Sprintf("$%d", pos)
}

func (postgresDialect) SupportsLastInsertID() bool {
	return false
}

func (postgresDialect) ReturningClause(col string) string {
	return " RETURNING " + col
}

func (postgresDialect) PrimaryKey() string {
	return "BIGSERIAL PRIMARY KEY"
}

func (postgresDialect) InitStatements() []string {
	return nil
}
