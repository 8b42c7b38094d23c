// Package history keeps a local journal of store operations (uploads,
// publishes, cancellations, rollout changes) in a SQLite database, so a
// release pipeline can see what was done to an item and with what result.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Operation names recorded in the journal.
const (
	OpUpload  = "upload"
	OpPublish = "publish"
	OpCancel  = "cancel"
	OpDeploy  = "deploy"
)

// Outcomes for operations whose response carries no state of its own.
// OutcomeError also marks calls that failed before the store answered.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 20

// dirPerms matches the credentials directory: the journal names items.
const dirPerms = 0o700

const (
	sqlInsertOperation = `INSERT INTO operations
		(id, item_id, operation, outcome, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	sqlListOperations = `SELECT id, item_id, operation, outcome, detail, recorded_at
		FROM operations
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?`

	sqlListItemOperations = `SELECT id, item_id, operation, outcome, detail, recorded_at
		FROM operations
		WHERE item_id = ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?`
)

// Entry is one journaled operation.
type Entry struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal is the sole writer to the history database.
type Journal struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (or creates) the journal at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return nil, fmt.Errorf("history: creating directory for %s: %w", path, err)
	}

	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: opening database %s: %w", path, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("history journal opened", slog.String("db_path", path))

	return &Journal{
		db:      db,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Record stores e, assigning an ID and timestamp when they are unset.
// It returns the stored entry.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.Operation == "" {
		return Entry{}, errors.New("history: operation must not be empty")
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	if e.RecordedAt.IsZero() {
		e.RecordedAt = j.nowFunc()
	}

	_, err := j.db.ExecContext(ctx, sqlInsertOperation,
		e.ID, e.ItemID, e.Operation, e.Outcome, e.Detail, e.RecordedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("history: recording %s of %s: %w", e.Operation, e.ItemID, err)
	}

	j.logger.Debug("operation recorded",
		slog.String("id", e.ID),
		slog.String("item_id", e.ItemID),
		slog.String("operation", e.Operation),
		slog.String("outcome", e.Outcome),
	)

	return e, nil
}

// List returns up to limit entries, newest first. An empty itemID lists
// entries for every item.
func (j *Journal) List(ctx context.Context, itemID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)

	if itemID == "" {
		rows, err = j.db.QueryContext(ctx, sqlListOperations, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, sqlListItemOperations, itemID, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("history: listing operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e          Entry
			recordedAt int64
		)

		if err := rows.Scan(&e.ID, &e.ItemID, &e.Operation, &e.Outcome, &e.Detail, &recordedAt); err != nil {
			return nil, fmt.Errorf("history: scanning operation row: %w", err)
		}

		e.RecordedAt = time.Unix(0, recordedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating operation rows: %w", err)
	}

	return entries, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("history: closing database: %w", err)
	}

	return nil
}
