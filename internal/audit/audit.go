package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one processed request in the audit log.
type Entry struct {
	ID            int64
	Timestamp     time.Time
	UserID        string
	Query         string
	ToolsUsed     string
	ContextSource string
	Duration      time.Duration
	Success       bool
	Error         string
}

// Logger records every processed request in a local SQLite database.
// Logging is best effort: a write failure must never fail the request that
// produced it.
type Logger struct {
	db *sql.DB
}

// NewLogger opens (or creates) the audit database at dbPath.
func NewLogger(dbPath string) (*Logger, error) {
	if strings.HasPrefix(dbPath, "~/") {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, dbPath[2:])
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := &Logger{db: db}
	if err := logger.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return logger, nil
}

func (l *Logger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS request_audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		user_id TEXT,
		query TEXT NOT NULL,
		tools_used TEXT,
		context_source TEXT,
		duration_ms INTEGER,
		success BOOLEAN,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON request_audit(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_user_id ON request_audit(user_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Log records one processed request.
func (l *Logger) Log(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO request_audit (
			timestamp, user_id, query, tools_used, context_source,
			duration_ms, success, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		entry.Timestamp,
		entry.UserID,
		entry.Query,
		entry.ToolsUsed,
		entry.ContextSource,
		entry.Duration.Milliseconds(),
		entry.Success,
		entry.Error,
	)
	return err
}

// Recent returns the newest entries, most recent first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, timestamp, user_id, query, tools_used, context_source, duration_ms, success, error
		FROM request_audit ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.Query, &e.ToolsUsed, &e.ContextSource, &durationMs, &e.Success, &e.Error); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (l *Logger) Close() error {
	return l.db.Close()
}
