package checkin

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAppendIdempotent(t *testing.T) {
	ledger := NewLedger(NewMemoryRepository())
	ctx := context.Background()
	rec := Record{SessionID: "s1", StudentID: "2020001", Status: StatusPresent, Timestamp: time.Now()}

	if err := ledger.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Append(ctx, rec); err != nil {
		t.Fatalf("second append should be a no-op, got %v", err)
	}
	recs, _ := ledger.ListBySession(ctx, "s1")
	if len(recs) != 1 {
		t.Errorf("got %d records, want 1", len(recs))
	}
}

func TestAppendConcurrentSameKey(t *testing.T) {
	ledger := NewLedger(NewMemoryRepository())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := Record{SessionID: "s1", StudentID: "2020001", Status: StatusPresent, Timestamp: time.Now()}
			if err := ledger.Append(ctx, rec); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	recs, _ := ledger.ListBySession(ctx, "s1")
	if len(recs) != 1 {
		t.Errorf("got %d records under concurrent appends, want 1", len(recs))
	}
}

func TestConcurrentDistinctStudents(t *testing.T) {
	ledger := NewLedger(NewMemoryRepository())
	ctx := context.Background()

	ids := []string{"2020001", "2020002", "2020003", "2020004"}
	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(studentID string) {
				defer wg.Done()
				rec := Record{SessionID: "s1", StudentID: studentID, Status: StatusPresent, Timestamp: time.Now()}
				if err := ledger.Append(ctx, rec); err != nil {
					t.Error(err)
				}
			}(id)
		}
	}
	wg.Wait()

	recs, _ := ledger.ListBySession(ctx, "s1")
	if len(recs) != len(ids) {
		t.Errorf("got %d records, want %d", len(recs), len(ids))
	}
}

func TestHasRecordAndIPQuery(t *testing.T) {
	ledger := NewLedger(NewMemoryRepository())
	ctx := context.Background()

	rec := Record{SessionID: "s1", StudentID: "2020001", IPAddress: "10.0.0.1", Status: StatusPresent}
	if err := ledger.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}

	has, err := ledger.HasRecord(ctx, "s1", "2020001")
	if err != nil || !has {
		t.Errorf("HasRecord = %v, %v; want true", has, err)
	}
	has, _ = ledger.HasRecord(ctx, "s1", "2020002")
	if has {
		t.Error("HasRecord true for student who never checked in")
	}

	// Same identifier, other student: hit.
	found, err := ledger.FindByIPExcluding(ctx, "s1", "10.0.0.1", "2020002")
	if err != nil || found == nil {
		t.Errorf("FindByIPExcluding = %v, %v; want the existing record", found, err)
	}
	// Same student is excluded from the match.
	found, _ = ledger.FindByIPExcluding(ctx, "s1", "10.0.0.1", "2020001")
	if found != nil {
		t.Error("FindByIPExcluding matched the excluded student")
	}
	// Other sessions are out of scope.
	found, _ = ledger.FindByIPExcluding(ctx, "s2", "10.0.0.1", "2020002")
	if found != nil {
		t.Error("FindByIPExcluding leaked across sessions")
	}
}
