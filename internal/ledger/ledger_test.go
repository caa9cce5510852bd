package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/platform"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordAndListItems(t *testing.T) {
	t.Parallel()
	l := openTestLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	ws := platform.Workspace{ID: "ws1", DisplayName: "tenant"}
	items := []platform.Item{
		{ID: "lh1", DisplayName: "sales", Kind: platform.KindLakehouse},
		{ID: "nb1", DisplayName: "setup", Kind: platform.KindNotebook},
	}
	if err := l.RecordItem(ctx, ws, items[0], ""); err != nil {
		t.Fatalf("RecordItem: %v", err)
	}
	if err := l.RecordItem(ctx, ws, items[1], "src-nb"); err != nil {
		t.Fatalf("RecordItem: %v", err)
	}

	records, err := l.Items(ctx, "ws1")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ItemID != "lh1" || records[1].ItemID != "nb1" {
		t.Fatalf("wrong order: %q then %q", records[0].ItemID, records[1].ItemID)
	}
	if records[1].SourceItemID != "src-nb" {
		t.Fatalf("source item not stored: %q", records[1].SourceItemID)
	}
	if records[0].CreatedAt.IsZero() {
		t.Fatal("created_at not round-tripped")
	}

	other, err := l.Items(ctx, "ws2")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for other workspace, got %d", len(other))
	}
}

func TestRecordItemIsIdempotent(t *testing.T) {
	t.Parallel()
	l := openTestLedger(t)
	ctx := context.Background()

	ws := platform.Workspace{ID: "ws1", DisplayName: "tenant"}
	item := platform.Item{ID: "lh1", DisplayName: "sales", Kind: platform.KindLakehouse}
	for i := 0; i < 3; i++ {
		if err := l.RecordItem(ctx, ws, item, ""); err != nil {
			t.Fatalf("RecordItem: %v", err)
		}
	}

	records, err := l.Items(ctx, "ws1")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after re-recording, got %d", len(records))
	}
}

func TestRecordAndListJobs(t *testing.T) {
	t.Parallel()
	l := openTestLedger(t)
	ctx := context.Background()

	job := jobs.Job{
		InstanceID:    "ji-1",
		WorkspaceID:   "ws1",
		ItemID:        "nb1",
		Kind:          jobs.KindRunNotebook,
		Status:        jobs.StatusFailed,
		FailureReason: "syntax error",
	}
	if err := l.RecordJob(ctx, job); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}

	records, err := l.Jobs(ctx, "ws1")
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != string(jobs.StatusFailed) {
		t.Fatalf("status = %q", records[0].Status)
	}
	if records[0].FailureReason != "syntax error" {
		t.Fatalf("failure reason = %q", records[0].FailureReason)
	}
}

func TestNilLedgerIsNoOp(t *testing.T) {
	t.Parallel()
	var l *Ledger
	ctx := context.Background()

	if err := l.RecordItem(ctx, platform.Workspace{}, platform.Item{}, ""); err != nil {
		t.Fatalf("RecordItem on nil ledger: %v", err)
	}
	if err := l.RecordJob(ctx, jobs.Job{}); err != nil {
		t.Fatalf("RecordJob on nil ledger: %v", err)
	}
	if items, err := l.Items(ctx, "ws1"); err != nil || items != nil {
		t.Fatalf("Items on nil ledger: %v, %v", items, err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close on nil ledger: %v", err)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ws := platform.Workspace{ID: "ws1", DisplayName: "tenant"}
	if err := l.RecordItem(ctx, ws, platform.Item{ID: "lh1", DisplayName: "sales", Kind: platform.KindLakehouse}, ""); err != nil {
		t.Fatalf("RecordItem: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()

	records, err := l.Items(ctx, "ws1")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(records))
	}
}
