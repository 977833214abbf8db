package core_test

import (
	"context"
	"testing"

	"lotledger/internal/core"
)

func TestLoanCreate_WithRepayments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	loans := core.NewLoanService(pool)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	ln, err := loans.Create(ctx, core.LoanInput{
		PurchaseID: p.ID,
		LoanDt:     "2024-02-15",
		LoanAmount: d("10000"),
		Interest:   d("500"),
		Repayments: []core.RepaymentInput{
			{RepaymentType: "PRINCIPAL", RepaymentDt: "2024-03-01", Amount: d("2000")},
			{RepaymentType: "BOTH", RepaymentDt: "2024-04-10", Amount: d("1000")},
			{RepaymentType: "BOTH", RepaymentDt: "2024-05-01", Amount: d("0")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !ln.PayRecd.Equal(d("3000")) {
		t.Errorf("payRecd = %s, want 3000", ln.PayRecd)
	}
	if !ln.NetDues.Equal(d("7500")) { // 10000 + 500 - 3000
		t.Errorf("netDues = %s, want 7500", ln.NetDues)
	}
	if ln.RepaymentDt == nil || *ln.RepaymentDt != "2024-04-10" {
		t.Errorf("repaymentDt = %v, want 2024-04-10", ln.RepaymentDt)
	}
	// the zero-amount entry is not persisted
	if len(ln.Repayments) != 2 {
		t.Errorf("repayments = %d, want 2", len(ln.Repayments))
	}
}

func TestLoanCreate_MissingPurchase(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	loans := core.NewLoanService(pool)

	_, err := loans.Create(context.Background(), core.LoanInput{
		PurchaseID: 9999, LoanDt: "2024-02-15", LoanAmount: d("1000"),
	})
	if core.KindOf(err) != core.KindNotFound {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestLoanUpdate_ReplacesRepaymentsWholesale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	loans := core.NewLoanService(pool)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	ln, err := loans.Create(ctx, core.LoanInput{
		PurchaseID: p.ID,
		LoanDt:     "2024-02-15",
		LoanAmount: d("10000"),
		Repayments: []core.RepaymentInput{
			{RepaymentType: "BOTH", RepaymentDt: "2024-03-01", Amount: d("2000")},
			{RepaymentType: "BOTH", RepaymentDt: "2024-03-15", Amount: d("1500")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Only the repayments set is submitted: the loan body must survive the
	// rewrite untouched.
	updated, err := loans.Update(ctx, ln.ID, core.LoanPatch{
		Repayments: []core.RepaymentInput{
			{RepaymentType: "BOTH", RepaymentDt: "2024-06-01", Amount: d("4000")},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !updated.LoanAmount.Equal(d("10000")) {
		t.Errorf("loanAmount = %s, want 10000 (kept from stored loan)", updated.LoanAmount)
	}
	if updated.LoanDt != "2024-02-15" {
		t.Errorf("loanDt = %s, want 2024-02-15 (kept from stored loan)", updated.LoanDt)
	}
	// the old repayment set is gone, not merged
	if len(updated.Repayments) != 1 {
		t.Fatalf("repayments = %d, want 1", len(updated.Repayments))
	}
	if !updated.PayRecd.Equal(d("4000")) {
		t.Errorf("payRecd = %s, want 4000", updated.PayRecd)
	}
	if !updated.NetDues.Equal(d("6000")) {
		t.Errorf("netDues = %s, want 6000", updated.NetDues)
	}
	if updated.RepaymentDt == nil || *updated.RepaymentDt != "2024-06-01" {
		t.Errorf("repaymentDt = %v, want 2024-06-01", updated.RepaymentDt)
	}

	// replaced rows are retired, not hard-deleted
	var inactive int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM loan_repayments WHERE loan_id = $1 AND is_active = false",
		ln.ID,
	).Scan(&inactive); err != nil {
		t.Fatalf("count retired repayments: %v", err)
	}
	if inactive != 2 {
		t.Errorf("retired repayments = %d, want 2", inactive)
	}
}

func TestLoanUpdate_WithoutRepaymentsKeepsSet(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	loans := core.NewLoanService(pool)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	ln, err := loans.Create(ctx, core.LoanInput{
		PurchaseID: p.ID,
		LoanDt:     "2024-02-15",
		LoanAmount: d("10000"),
		Repayments: []core.RepaymentInput{
			{RepaymentType: "BOTH", RepaymentDt: "2024-03-01", Amount: d("2000")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A nil Repayments slice adjusts the loan body only.
	amount := d("12000")
	interest := d("300")
	updated, err := loans.Update(ctx, ln.ID, core.LoanPatch{
		LoanAmount: &amount,
		Interest:   &interest,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Repayments) != 1 {
		t.Errorf("repayments = %d, want 1 (set untouched)", len(updated.Repayments))
	}
	if !updated.NetDues.Equal(d("10300")) { // 12000 + 300 - 2000
		t.Errorf("netDues = %s, want 10300", updated.NetDues)
	}
}

func TestLoanDelete_RetiresRepayments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	loans := core.NewLoanService(pool)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	ln, err := loans.Create(ctx, core.LoanInput{
		PurchaseID: p.ID,
		LoanDt:     "2024-02-15",
		LoanAmount: d("5000"),
		Repayments: []core.RepaymentInput{
			{RepaymentType: "BOTH", RepaymentDt: "2024-03-01", Amount: d("1000")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := loans.Delete(ctx, ln.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := loans.Get(ctx, ln.ID); core.KindOf(err) != core.KindNotFound {
		t.Errorf("deleted loan still readable: %v", err)
	}

	var active int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM loan_repayments WHERE loan_id = $1 AND is_active = true",
		ln.ID,
	).Scan(&active); err != nil {
		t.Fatalf("count repayments: %v", err)
	}
	if active != 0 {
		t.Errorf("active repayments after delete = %d, want 0", active)
	}
}

func TestLoanGetAll_ScopedByLocationAndYear(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	loans := core.NewLoanService(pool)

	in := seedPurchase(t, purchases, 2024, "AG-1")
	out := seedPurchase(t, purchases, 2023, "AG-2")

	for _, pid := range []int{in.ID, out.ID} {
		if _, err := loans.Create(ctx, core.LoanInput{
			PurchaseID: pid, LoanDt: "2024-02-15", LoanAmount: d("1000"),
		}); err != nil {
			t.Fatalf("seed loan: %v", err)
		}
	}

	got, err := loans.GetAll(ctx, 1, 2024)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d loans, want 1", len(got))
	}
	if got[0].PurchaseID != in.ID {
		t.Errorf("loan purchase = %d, want %d", got[0].PurchaseID, in.ID)
	}
}
