package core_test

import (
	"context"
	"testing"

	"lotledger/internal/core"
)

func TestRateCreateAndFindActive(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewRateService(pool)

	r, err := svc.Create(ctx, core.RateLoading, core.RateInput{
		LocationID: 1, ItemID: 1, UnitID: 1, Rate: d("7.25"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !r.Rate.Equal(d("7.25")) {
		t.Errorf("rate = %s, want 7.25", r.Rate)
	}

	got, err := svc.FindActive(ctx, core.RateLoading, 1, 1)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if !got.Equal(d("7.25")) {
		t.Errorf("FindActive = %s, want 7.25", got)
	}

	// no rate recorded yields zero, not an error
	none, err := svc.FindActive(ctx, core.RateLoading, 2, 1)
	if err != nil {
		t.Fatalf("FindActive (none): %v", err)
	}
	if !none.IsZero() {
		t.Errorf("FindActive with no rate = %s, want 0", none)
	}
}

func TestRateCreate_DuplicateKeyConflict(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewRateService(pool)

	// seed already holds an active unloading rate for (1, 1, 1)
	_, err := svc.Create(ctx, core.RateUnloading, core.RateInput{
		LocationID: 1, ItemID: 1, UnitID: 1, Rate: d("9"),
	})
	if core.KindOf(err) != core.KindConflict {
		t.Fatalf("got %v, want Conflict", err)
	}
}

func TestInterestRate_Upsert(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewRateService(pool)

	if _, err := svc.SetInterestRate(ctx, 1, d("12")); err != nil {
		t.Fatalf("SetInterestRate: %v", err)
	}
	// a second set replaces, it does not conflict
	if _, err := svc.SetInterestRate(ctx, 1, d("14")); err != nil {
		t.Fatalf("SetInterestRate (replace): %v", err)
	}

	ir, err := svc.GetInterestRate(ctx, 1)
	if err != nil {
		t.Fatalf("GetInterestRate: %v", err)
	}
	if !ir.Rate.Equal(d("14")) {
		t.Errorf("interest rate = %s, want 14", ir.Rate)
	}

	var active int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM interest_rates WHERE location_id = 1 AND is_active = true",
	).Scan(&active); err != nil {
		t.Fatalf("count: %v", err)
	}
	if active != 1 {
		t.Errorf("active interest rows = %d, want 1", active)
	}
}
