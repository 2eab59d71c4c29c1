package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/markdave123-py/Studia/internal/core"
)

func TestRecordUsageDebitsAndRejectsOverdraft(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	users := NewUserService(store, 5, discardLogger())
	if _, err := users.Ensure(ctx, "u1", "u1@example.com"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	seedMaterial(t, store, "m1", "up-gone", "u1")
	ledger := NewUsageService(store, discardLogger())

	rec, err := ledger.RecordUsage(ctx, "u1", "m1", 3)
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if rec.CreditsUsed != 3 || rec.MaterialID != "m1" || rec.ID == "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	u, _ := users.Get(ctx, "u1")
	if u.Credits != 2 {
		t.Fatalf("want 2 credits left, got %d", u.Credits)
	}

	_, err = ledger.RecordUsage(ctx, "u1", "m1", 3)
	var ice *core.InsufficientCreditsError
	if !errors.As(err, &ice) || ice.Required != 3 || ice.Available != 2 {
		t.Fatalf("want InsufficientCreditsError{3,2}, got %v", err)
	}
	if !errors.Is(err, core.ErrInsufficientCredits) {
		t.Fatalf("error should match ErrInsufficientCredits")
	}
	u, _ = users.Get(ctx, "u1")
	if u.Credits != 2 {
		t.Fatalf("balance changed after rejected usage: %d", u.Credits)
	}

	recs, err := ledger.ListUsage(ctx, "u1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListUsage: %v %+v", err, recs)
	}
}

func TestRecordUsageValidation(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	if _, err := NewUserService(store, 10, discardLogger()).Ensure(ctx, "u1", ""); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	ledger := NewUsageService(store, discardLogger())

	for _, credits := range []int{0, -1} {
		if _, err := ledger.RecordUsage(ctx, "u1", "m1", credits); !errors.Is(err, core.ErrInvalidInput) {
			t.Fatalf("credits=%d: want ErrInvalidInput, got %v", credits, err)
		}
	}

	var nf *core.ResourceNotFoundError
	_, err := ledger.RecordUsage(ctx, "ghost", "m1", 1)
	if !errors.As(err, &nf) || nf.Resource != "user" {
		t.Fatalf("want missing user, got %v", err)
	}
	_, err = ledger.RecordUsage(ctx, "u1", "missing", 1)
	if !errors.As(err, &nf) || nf.Resource != "study_material" {
		t.Fatalf("want missing material, got %v", err)
	}

	recs, _ := ledger.ListUsage(ctx, "u1")
	if len(recs) != 0 {
		t.Fatalf("failed usage must not leave records, got %d", len(recs))
	}
}

func TestRecordUsageRejectsOtherUsersMaterial(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	users := NewUserService(store, 5, discardLogger())
	for _, id := range []string{"alice", "bob"} {
		if _, err := users.Ensure(ctx, id, ""); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	seedMaterial(t, store, "alice-m", "up", "alice")
	ledger := NewUsageService(store, discardLogger())

	_, err := ledger.RecordUsage(ctx, "bob", "alice-m", 2)
	var nf *core.ResourceNotFoundError
	if !errors.As(err, &nf) || nf.Resource != "study_material" || nf.ID != "alice-m" {
		t.Fatalf("want material not found for a foreign owner, got %v", err)
	}

	bob, _ := users.Get(ctx, "bob")
	if bob.Credits != 5 {
		t.Fatalf("foreign usage debited credits: %d", bob.Credits)
	}
	if recs, _ := ledger.ListUsage(ctx, "bob"); len(recs) != 0 {
		t.Fatalf("foreign usage left %d records", len(recs))
	}
}

func TestRecordUsageConcurrentNeverOverdraws(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	users := NewUserService(store, 5, discardLogger())
	if _, err := users.Ensure(ctx, "u1", ""); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	seedMaterial(t, store, "m1", "up", "u1")
	ledger := NewUsageService(store, discardLogger())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ledger.RecordUsage(ctx, "u1", "m1", 2)
		}()
	}
	wg.Wait()

	u, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	recs, _ := ledger.ListUsage(ctx, "u1")
	if u.Credits < 0 || u.Credits != 5-2*len(recs) {
		t.Fatalf("ledger out of balance: credits=%d records=%d", u.Credits, len(recs))
	}
}
