// Package ledger records provisioning activity in a local SQLite
// database: which items were created in which workspace, and how each
// platform job run ended. The ledger is optional; a nil *Ledger accepts
// every call as a no-op so callers never need to branch on whether
// bookkeeping is enabled.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/platform"
)

// ItemRecord is one provisioned item as stored in the ledger.
type ItemRecord struct {
	WorkspaceID   string
	WorkspaceName string
	ItemID        string
	Kind          string
	DisplayName   string
	SourceItemID  string
	CreatedAt     time.Time
}

// JobRecord is one finished platform job run as stored in the ledger.
type JobRecord struct {
	JobInstanceID string
	WorkspaceID   string
	ItemID        string
	Kind          string
	Status        string
	FailureReason string
	RecordedAt    time.Time
}

// Ledger writes provisioning records to SQLite.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates if needed) the ledger database at path and
// ensures required tables exist.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// Basic health check + apply a few safe pragmas.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db, now: time.Now}, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS provisioned_items (
  item_id        TEXT PRIMARY KEY,
  workspace_id   TEXT NOT NULL,
  workspace_name TEXT NOT NULL,
  item_kind      TEXT NOT NULL,
  display_name   TEXT NOT NULL,
  source_item_id TEXT,
  created_at     TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS job_runs (
  job_instance_id TEXT PRIMARY KEY,
  workspace_id    TEXT NOT NULL,
  item_id         TEXT NOT NULL,
  job_kind        TEXT NOT NULL,
  status          TEXT NOT NULL,
  failure_reason  TEXT,
  recorded_at     TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS provisioned_items_workspace_idx ON provisioned_items(workspace_id, item_kind);`,
		`CREATE INDEX IF NOT EXISTS job_runs_workspace_idx ON job_runs(workspace_id, status);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap ledger: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database. Safe on a nil ledger.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// RecordItem stores one provisioned item. sourceItemID names the item it
// was cloned from, empty for items created from templates.
func (l *Ledger) RecordItem(ctx context.Context, ws platform.Workspace, item platform.Item, sourceItemID string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO provisioned_items
		 (item_id, workspace_id, workspace_name, item_kind, display_name, source_item_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, ws.ID, ws.DisplayName, string(item.Kind), item.DisplayName,
		sourceItemID, l.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record item %q: %w", item.DisplayName, err)
	}
	return nil
}

// RecordJob stores the terminal state of one platform job run.
func (l *Ledger) RecordJob(ctx context.Context, job jobs.Job) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO job_runs
		 (job_instance_id, workspace_id, item_id, job_kind, status, failure_reason, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.InstanceID, job.WorkspaceID, job.ItemID, string(job.Kind),
		string(job.Status), job.FailureReason, l.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record job %s: %w", job.InstanceID, err)
	}
	return nil
}

// Items returns the provisioned items of a workspace, oldest first.
func (l *Ledger) Items(ctx context.Context, workspaceID string) ([]ItemRecord, error) {
	if l == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT item_id, workspace_id, workspace_name, item_kind, display_name,
		        COALESCE(source_item_id, ''), created_at
		 FROM provisioned_items WHERE workspace_id = ? ORDER BY created_at, item_id`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query provisioned items: %w", err)
	}
	defer rows.Close()

	var records []ItemRecord
	for rows.Next() {
		var rec ItemRecord
		var createdAt string
		if err := rows.Scan(&rec.ItemID, &rec.WorkspaceID, &rec.WorkspaceName,
			&rec.Kind, &rec.DisplayName, &rec.SourceItemID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan provisioned item: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Jobs returns the recorded job runs of a workspace, oldest first.
func (l *Ledger) Jobs(ctx context.Context, workspaceID string) ([]JobRecord, error) {
	if l == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT job_instance_id, workspace_id, item_id, job_kind, status,
		        COALESCE(failure_reason, ''), recorded_at
		 FROM job_runs WHERE workspace_id = ? ORDER BY recorded_at, job_instance_id`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		var recordedAt string
		if err := rows.Scan(&rec.JobInstanceID, &rec.WorkspaceID, &rec.ItemID,
			&rec.Kind, &rec.Status, &rec.FailureReason, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan job run: %w", err)
		}
		rec.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
