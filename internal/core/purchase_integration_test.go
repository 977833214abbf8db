package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"lotledger/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE lot_transfers, loan_repayments, loans, sales, lot_processings, purchases,
		               rent_rates, loading_rates, unloading_rates, taiyari_rates, interest_rates,
		               suppliers, items, units, users, locations
		RESTART IDENTITY CASCADE;

		INSERT INTO locations (id, name, code) VALUES
		(1, 'Kanpur', 'KNP'),
		(2, 'Agra', 'AGR');

		INSERT INTO suppliers (id, location_id, name, mobile_no) VALUES
		(1, 1, 'Ramesh Traders', '9000000001'),
		(2, 1, 'Suresh & Sons', '9000000002'),
		(3, 2, 'Mahesh Bhandar', '9000000003');

		INSERT INTO items (id, name, code) VALUES (1, 'Potato', 'POT');
		INSERT INTO units (id, name, code) VALUES (1, 'Bag', 'BAG'), (2, 'Quintal', 'QTL');

		INSERT INTO unloading_rates (location_id, item_id, unit_id, rate) VALUES (1, 1, 1, 12.50);
		INSERT INTO taiyari_rates   (location_id, item_id, unit_id, rate) VALUES (1, 1, 1, 8.00);
		INSERT INTO rent_rates      (location_id, item_id, unit_id, rate) VALUES (1, 1, 1, 95.00);

		SELECT setval('locations_id_seq', 10);
		SELECT setval('suppliers_id_seq', 10);
		SELECT setval('items_id_seq', 10);
		SELECT setval('units_id_seq', 10);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// seedPurchase creates a purchase at location 1 with known figures.
func seedPurchase(t *testing.T, svc core.PurchaseService, year int, agreementNo string) *core.Purchase {
	t.Helper()
	p, err := svc.Create(context.Background(), core.PurchaseInput{
		LocationID:    1,
		Year:          year,
		BillDate:      "2024-02-01",
		SupplierID:    1,
		ItemID:        1,
		AgreementNo:   agreementNo,
		NoOfPacket:    100,
		GrWt:          decimal.RequireFromString("50.000"),
		Cutting:       decimal.RequireFromString("2.000"),
		Rate:          decimal.RequireFromString("100"),
		LoadingLabour: decimal.RequireFromString("200"),
	})
	if err != nil {
		t.Fatalf("seed purchase %s: %v", agreementNo, err)
	}
	return p
}

func TestPurchaseCreate_DerivedFields(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)

	p := seedPurchase(t, svc, 2024, "AG-1")

	if !p.NetWt.Equal(d("48.000")) {
		t.Errorf("netWt = %s, want 48.000", p.NetWt)
	}
	if !p.Amount.Equal(d("4800")) {
		t.Errorf("amount = %s, want 4800", p.Amount)
	}
	if !p.TotalCost.Equal(d("5000")) {
		t.Errorf("totalCost = %s, want 5000", p.TotalCost)
	}
	if p.LotNo != "AG-1/100" {
		t.Errorf("lotNo = %q, want AG-1/100", p.LotNo)
	}
	if p.BillNo != "2024-1" {
		t.Errorf("billNo = %q, want 2024-1", p.BillNo)
	}
	if p.Supplier == nil || p.Supplier.Name != "Ramesh Traders" {
		t.Errorf("supplier join missing or wrong: %+v", p.Supplier)
	}
}

func TestPurchaseCreate_RequiredFields(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	valid := func() core.PurchaseInput {
		return core.PurchaseInput{
			LocationID:  1,
			Year:        2024,
			BillDate:    "2024-02-01",
			SupplierID:  1,
			ItemID:      1,
			AgreementNo: "AG-1",
			NoOfPacket:  10,
			GrWt:        d("5"),
			Rate:        d("90"),
		}
	}

	cases := []struct {
		name   string
		mutate func(*core.PurchaseInput)
	}{
		{"missing location", func(in *core.PurchaseInput) { in.LocationID = 0 }},
		{"missing year", func(in *core.PurchaseInput) { in.Year = 0 }},
		{"missing bill date", func(in *core.PurchaseInput) { in.BillDate = "" }},
		{"missing supplier", func(in *core.PurchaseInput) { in.SupplierID = 0 }},
		{"missing item", func(in *core.PurchaseInput) { in.ItemID = 0 }},
		{"missing agreement no", func(in *core.PurchaseInput) { in.AgreementNo = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			tc.mutate(&in)
			if _, err := svc.Create(ctx, in); core.KindOf(err) != core.KindBadRequest {
				t.Errorf("got %v, want BadRequest", err)
			}
		})
	}
}

func TestPurchaseCreate_BillNoSequence(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	seedPurchase(t, svc, 2024, "AG-1")
	p2 := seedPurchase(t, svc, 2024, "AG-2")
	if p2.BillNo != "2024-2" {
		t.Errorf("second billNo = %q, want 2024-2", p2.BillNo)
	}

	// A different year numbers independently.
	next, err := svc.GenerateBillNo(ctx, 1, 2025)
	if err != nil {
		t.Fatalf("GenerateBillNo: %v", err)
	}
	if next != "2025-1" {
		t.Errorf("2025 billNo = %q, want 2025-1", next)
	}
}

func TestPurchaseCreate_DuplicateAgreementConflict(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	seedPurchase(t, svc, 2024, "AG-1")

	_, err := svc.Create(ctx, core.PurchaseInput{
		LocationID:  1,
		Year:        2024,
		BillDate:    "2024-02-02",
		SupplierID:  2,
		ItemID:      1,
		AgreementNo: "AG-1",
		NoOfPacket:  10,
		GrWt:        d("5"),
		Rate:        d("90"),
	})
	if core.KindOf(err) != core.KindConflict {
		t.Fatalf("duplicate agreement: got %v, want Conflict", err)
	}

	// The same agreement number is fine in another year.
	if _, err := svc.Create(ctx, core.PurchaseInput{
		LocationID:  1,
		Year:        2025,
		BillDate:    "2025-02-02",
		SupplierID:  1,
		ItemID:      1,
		AgreementNo: "AG-1",
		NoOfPacket:  10,
		GrWt:        d("5"),
		Rate:        d("90"),
	}); err != nil {
		t.Fatalf("same agreement in other year should succeed: %v", err)
	}
}

func TestPurchaseUpdate_RecomputesDerived(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	p := seedPurchase(t, svc, 2024, "AG-1")

	newRate := d("120")
	newPkt := 80
	updated, err := svc.Update(ctx, p.ID, core.PurchasePatch{
		Rate:       &newRate,
		NoOfPacket: &newPkt,
	}, core.LocationScope(1))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !updated.Amount.Equal(d("5760")) { // 48 * 120
		t.Errorf("amount = %s, want 5760", updated.Amount)
	}
	if !updated.TotalCost.Equal(d("5960")) {
		t.Errorf("totalCost = %s, want 5960", updated.TotalCost)
	}
	if updated.LotNo != "AG-1/80" {
		t.Errorf("lotNo = %q, want AG-1/80", updated.LotNo)
	}
}

func TestPurchaseGetByID_ScopeIsolation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	p := seedPurchase(t, svc, 2024, "AG-1")

	// A caller pinned to another location cannot see it.
	if _, err := svc.GetByID(ctx, p.ID, core.LocationScope(2)); core.KindOf(err) != core.KindNotFound {
		t.Errorf("cross-location read: got %v, want NotFound", err)
	}
	// The owning location and a super admin can.
	if _, err := svc.GetByID(ctx, p.ID, core.LocationScope(1)); err != nil {
		t.Errorf("own-location read failed: %v", err)
	}
	if _, err := svc.GetByID(ctx, p.ID, core.AdminScope()); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
}

func TestPurchaseDelete_SoftAndInvisible(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	p := seedPurchase(t, svc, 2024, "AG-1")
	if err := svc.Delete(ctx, p.ID, core.LocationScope(1)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, p.ID, core.AdminScope()); core.KindOf(err) != core.KindNotFound {
		t.Errorf("deleted purchase still readable: %v", err)
	}

	// The agreement number is free again for this (location, year).
	if _, err := svc.Create(ctx, core.PurchaseInput{
		LocationID:  1,
		Year:        2024,
		BillDate:    "2024-03-01",
		SupplierID:  1,
		ItemID:      1,
		AgreementNo: "AG-1",
		NoOfPacket:  10,
		GrWt:        d("5"),
		Rate:        d("90"),
	}); err != nil {
		t.Fatalf("re-using agreement of deleted purchase should succeed: %v", err)
	}
}

func TestPurchaseGetAvailableYears(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPurchaseService(pool)
	ctx := context.Background()

	seedPurchase(t, svc, 2023, "AG-1")
	seedPurchase(t, svc, 2024, "AG-2")
	seedPurchase(t, svc, 2024, "AG-3")

	years, err := svc.GetAvailableYears(ctx, 1)
	if err != nil {
		t.Fatalf("GetAvailableYears: %v", err)
	}
	if len(years) != 2 || years[0] != 2024 || years[1] != 2023 {
		t.Errorf("years = %v, want [2024 2023]", years)
	}
}

func TestPurchaseDeleteByYear_Cascade(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	sales := core.NewSaleService(pool)
	processing := core.NewProcessingService(pool)
	loans := core.NewLoanService(pool)

	p := seedPurchase(t, purchases, 2024, "AG-1")
	keep := seedPurchase(t, purchases, 2023, "AG-K")

	if _, err := sales.Create(ctx, core.SaleInput{
		PurchaseID: p.ID, SaleDt: "2024-03-01", SalePkt: 10,
		SaleWt: d("5"), Rate: d("150"),
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	if _, err := processing.CreateOrAccumulate(ctx, core.ProcessingEntry{
		PurchaseID: p.ID, ProcessingDate: "2024-02-15", NikashiPkt: 5,
	}); err != nil {
		t.Fatalf("seed processing: %v", err)
	}
	if _, err := loans.Create(ctx, core.LoanInput{
		PurchaseID: p.ID, LoanDt: "2024-02-20", LoanAmount: d("1000"),
		Repayments: []core.RepaymentInput{
			{RepaymentType: "BOTH", RepaymentDt: "2024-03-10", Amount: d("300")},
		},
	}); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	deleted, err := purchases.DeleteByYear(ctx, 1, 2024)
	if err != nil {
		t.Fatalf("DeleteByYear: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	// Hard delete: no rows remain, active or not.
	for _, q := range []string{
		"SELECT COUNT(*) FROM purchases WHERE year = 2024",
		"SELECT COUNT(*) FROM sales",
		"SELECT COUNT(*) FROM lot_processings",
		"SELECT COUNT(*) FROM loans",
		"SELECT COUNT(*) FROM loan_repayments",
	} {
		var n int
		if err := pool.QueryRow(ctx, q).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Errorf("%s = %d, want 0", q, n)
		}
	}

	// The other year is untouched.
	if _, err := purchases.GetByID(ctx, keep.ID, core.AdminScope()); err != nil {
		t.Errorf("2023 purchase should survive: %v", err)
	}
}

func TestPurchaseDeleteByYear_RollbackOnFailure(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	sales := core.NewSaleService(pool)
	processing := core.NewProcessingService(pool)
	loans := core.NewLoanService(pool)

	p := seedPurchase(t, purchases, 2024, "AG-1")
	if _, err := sales.Create(ctx, core.SaleInput{
		PurchaseID: p.ID, SaleDt: "2024-03-01", SalePkt: 10,
		SaleWt: d("5"), Rate: d("150"),
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	if _, err := processing.CreateOrAccumulate(ctx, core.ProcessingEntry{
		PurchaseID: p.ID, ProcessingDate: "2024-02-15", NikashiPkt: 5,
	}); err != nil {
		t.Fatalf("seed processing: %v", err)
	}
	if _, err := loans.Create(ctx, core.LoanInput{
		PurchaseID: p.ID, LoanDt: "2024-02-20", LoanAmount: d("1000"),
		Repayments: []core.RepaymentInput{
			{RepaymentType: "BOTH", RepaymentDt: "2024-03-10", Amount: d("300")},
		},
	}); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	// Block the final cascade step. The child rows are deleted first inside
	// the transaction, so a failure here must undo all of them.
	if _, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION reject_purchase_delete() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'purchase delete rejected';
		END
		$$ LANGUAGE plpgsql;
		DROP TRIGGER IF EXISTS purchases_reject_delete ON purchases;
		CREATE TRIGGER purchases_reject_delete
			BEFORE DELETE ON purchases
			FOR EACH ROW EXECUTE FUNCTION reject_purchase_delete();
	`); err != nil {
		t.Fatalf("install delete block: %v", err)
	}
	defer pool.Exec(ctx, `
		DROP TRIGGER IF EXISTS purchases_reject_delete ON purchases;
		DROP FUNCTION IF EXISTS reject_purchase_delete();
	`)

	if _, err := purchases.DeleteByYear(ctx, 1, 2024); err == nil {
		t.Fatal("DeleteByYear should fail while purchase deletes are blocked")
	}

	// Every row the cascade touched before failing is back.
	for _, q := range []string{
		"SELECT COUNT(*) FROM purchases WHERE year = 2024",
		"SELECT COUNT(*) FROM sales",
		"SELECT COUNT(*) FROM lot_processings",
		"SELECT COUNT(*) FROM loans",
		"SELECT COUNT(*) FROM loan_repayments",
	} {
		var n int
		if err := pool.QueryRow(ctx, q).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 1 {
			t.Errorf("%s = %d, want 1", q, n)
		}
	}
	if _, err := purchases.GetByID(ctx, p.ID, core.AdminScope()); err != nil {
		t.Errorf("purchase should survive the failed cascade: %v", err)
	}
}
