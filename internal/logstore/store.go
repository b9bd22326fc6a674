// Package logstore persists console log lines to SQLite or PostgreSQL so
// they can be reviewed after the session ends.
package logstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cyberegoorg/consoleproxy"
)

// recordTimeout bounds a single insert made from a log subscriber.
const recordTimeout = 2 * time.Second

// Config selects and locates the database.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string
}

// Entry is one stored console log line.
type Entry struct {
	ID         int64
	Session    string
	Level      string
	Origin     string
	Message    string
	ReceivedAt time.Time
}

// Query filters Recent. Zero values match everything.
type Query struct {
	Session string
	Level   string
	Limit   int
}

// Store is a console log history backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the configured database and creates the schema if needed.
func Open(cfg Config) (*Store, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.DriverName() {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres DSN is required")
		}
		dsn = cfg.PostgresDSN
	default:
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect.DriverName() == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) migrate() error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS console_logs (
			id %s,
			session TEXT NOT NULL,
			level TEXT NOT NULL,
			origin TEXT NOT NULL,
			message TEXT NOT NULL,
			received_at BIGINT NOT NULL
		)`, s.dialect.PrimaryKey()),
		`CREATE INDEX IF NOT EXISTS idx_console_logs_session ON console_logs(session)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Record stores one entry and returns its id. A zero ReceivedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}

	query := fmt.Sprintf(
		"INSERT INTO console_logs (session, level, origin, message, received_at) VALUES (%s, %s, %s, %s, %s)%s",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
		s.dialect.Placeholder(4), s.dialect.Placeholder(5), s.dialect.ReturningClause("id"),
	)
	args := []any{e.Session, e.Level, e.Origin, e.Message, e.ReceivedAt.UnixNano()}

	if !s.dialect.SupportsLastInsertID() {
		var id int64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("record log entry: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("record log entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record log entry: %w", err)
	}
	return id, nil
}

// Recent returns the newest entries matching q, oldest first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Session != "" {
		args = append(args, q.Session)
		where = append(where, "session = "+s.dialect.Placeholder(len(args)))
	}
	if q.Level != "" {
		args = append(args, q.Level)
		where = append(where, "level = "+s.dialect.Placeholder(len(args)))
	}

	query := "SELECT id, session, level, origin, message, received_at FROM console_logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += " LIMIT " + s.dialect.Placeholder(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			nano int64
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.Level, &e.Origin, &e.Message, &nano); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.ReceivedAt = time.Unix(0, nano)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM console_logs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count log entries: %w", err)
	}
	return n, nil
}

// Subscriber returns a log subscriber that records every console log line
// under the given session. Insert failures are logged and otherwise ignored.
func (s *Store) Subscriber(session string, logger *slog.Logger) consoleproxy.LogFunc {
	return func(level, where, msg string) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		_, err := s.Record(ctx, Entry{
			Session: session,
			Level:   level,
			Origin:  where,
			Message: msg,
		})
		if err != nil {
			logger.Warn("failed to store console log line", "error", err)
		}
	}
}
