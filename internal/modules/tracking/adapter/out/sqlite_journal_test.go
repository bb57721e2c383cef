package out

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bnkchallenge/internal/modules/tracking/domain"
	"bnkchallenge/internal/platform/sqlitedb"
)

func TestSQLiteJournalRecordAndList(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "nested", "bnk.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	journal, err := NewSQLiteJournal(ctx, db)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.SessionRecord{
		{SessionID: "a", MissionID: "m-1", State: domain.StateCancelled, AccumulatedDwell: 12 * time.Second, Samples: 12, StartedAt: start, EndedAt: start.Add(time.Minute)},
		{SessionID: "b", MissionID: "m-2", State: domain.StateCompleted, AccumulatedDwell: domain.RequiredDwell, Samples: 60, Reward: 100, CoinBalance: 28346, StartedAt: start, EndedAt: start.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if err := journal.Record(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.SessionID, err)
		}
	}

	got, err := journal.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].SessionID != "b" || got[1].SessionID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].AccumulatedDwell != domain.RequiredDwell || got[0].CoinBalance != 28346 || !got[0].EndedAt.Equal(start.Add(2*time.Minute)) {
		t.Fatalf("unexpected row: %+v", got[0])
	}

	limited, err := journal.List(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one row, got %d (%v)", len(limited), err)
	}

	// Re-recording a session updates it in place.
	records[0].State = domain.StateCompleted
	if err := journal.Record(ctx, records[0]); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	got, _ = journal.List(ctx, 0)
	if len(got) != 2 || got[1].State != domain.StateCompleted {
		t.Fatalf("expected upsert, got %+v", got)
	}
}
