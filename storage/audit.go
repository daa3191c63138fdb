package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"blendassist/config"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// AuditEntry is one Send recorded in the execution journal.
type AuditEntry struct {
	ID            string
	CreatedAt     time.Time
	Backend       string
	Task          string
	Reply         string
	FailureKind   string // empty when the model call succeeded
	FailureDetail string
	Executed      bool
	ExecError     string // empty when execution succeeded or was skipped
	Scene         string
}

// ResponseOK reports whether the model call produced text.
func (e AuditEntry) ResponseOK() bool {
	return e.FailureKind == ""
}

// AuditJournal records every request and execution outcome in <data_dir>/audit.db.
type AuditJournal struct {
	db *sql.DB
}

func NewAuditJournal(dataDir string) (*AuditJournal, error) {
	dbPath := filepath.Join(dataDir, "audit.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	journal := &AuditJournal{db: db}

	if err := journal.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] audit journal opened at %s", dbPath)
	}

	return journal, nil
}

func (aj *AuditJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		backend TEXT NOT NULL,
		task TEXT NOT NULL,
		reply TEXT NOT NULL DEFAULT '',
		failure_kind TEXT NOT NULL DEFAULT '',
		failure_detail TEXT NOT NULL DEFAULT '',
		executed INTEGER NOT NULL DEFAULT 0,
		exec_error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	if _, err := aj.db.Exec(schema); err != nil {
		return err
	}

	if err := aj.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// migrateSchema adds columns introduced after the first release
func (aj *AuditJournal) migrateSchema() error {
	hasScene, err := aj.columnExists("runs", "scene")
	if err != nil {
		return fmt.Errorf("failed to check for scene column: %w", err)
	}

	switch {
	case !hasScene:
		if _, err := aj.db.Exec(`ALTER TABLE runs ADD COLUMN scene TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add scene column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (aj *AuditJournal) columnExists(tableName, columnName string) (bool, error) {
	rows, err := aj.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var defaultValue interface{}
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// Record stores entry, assigning an ID and timestamp when missing, and returns the ID.
func (aj *AuditJournal) Record(entry AuditEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO runs (id, created_at, backend, task, reply, failure_kind, failure_detail, executed, exec_error, scene)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := aj.db.Exec(query,
		entry.ID,
		entry.CreatedAt,
		entry.Backend,
		entry.Task,
		entry.Reply,
		entry.FailureKind,
		entry.FailureDetail,
		entry.Executed,
		entry.ExecError,
		entry.Scene,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	return entry.ID, nil
}

const auditColumns = `id, created_at, backend, task, reply, failure_kind, failure_detail, executed, exec_error, scene`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (AuditEntry, error) {
	var e AuditEntry
	err := row.Scan(
		&e.ID,
		&e.CreatedAt,
		&e.Backend,
		&e.Task,
		&e.Reply,
		&e.FailureKind,
		&e.FailureDetail,
		&e.Executed,
		&e.ExecError,
		&e.Scene,
	)
	return e, err
}

// Get returns the entry with id, or nil when it does not exist.
func (aj *AuditJournal) Get(id string) (*AuditEntry, error) {
	row := aj.db.QueryRow(`SELECT `+auditColumns+` FROM runs WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Recent returns up to limit entries, newest first.
func (aj *AuditJournal) Recent(limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		return []AuditEntry{}, nil
	}

	rows, err := aj.db.Query(`SELECT `+auditColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the number of recorded runs.
func (aj *AuditJournal) Count() (int, error) {
	var n int
	err := aj.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

func (aj *AuditJournal) Close() error {
	if aj.db != nil {
		return aj.db.Close()
	}
	return nil
}
