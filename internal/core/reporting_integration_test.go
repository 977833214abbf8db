package core_test

import (
	"context"
	"testing"

	"lotledger/internal/core"
)

func TestDashboardStats(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	sales := core.NewSaleService(pool)
	reporting := core.NewReportingService(pool)

	// two lots in scope, one in another year
	p1 := seedPurchase(t, purchases, 2024, "AG-1") // 100 pkt, 48 wt, 5000 cost
	seedPurchase(t, purchases, 2024, "AG-2")
	seedPurchase(t, purchases, 2023, "AG-OLD")

	if _, err := sales.Create(ctx, core.SaleInput{
		PurchaseID: p1.ID, SaleDt: "2024-03-01", SalePkt: 30,
		SaleWt: d("15"), Rate: d("200"),
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	loc, year := 1, 2024
	stats, err := reporting.GetStats(ctx, &loc, &year)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	if stats.Purchase.Bags != 200 || !stats.Purchase.Weight.Equal(d("96")) || !stats.Purchase.Amount.Equal(d("10000")) {
		t.Errorf("purchase block = %+v, want 200 bags / 96 wt / 10000", stats.Purchase)
	}
	if stats.Sales.Bags != 30 || !stats.Sales.Weight.Equal(d("15")) || !stats.Sales.Amount.Equal(d("3000")) {
		t.Errorf("sales block = %+v, want 30 bags / 15 wt / 3000", stats.Sales)
	}
	if stats.Stock.Bags != 170 || !stats.Stock.Weight.Equal(d("81")) {
		t.Errorf("stock block = %+v, want 170 bags / 81 wt", stats.Stock)
	}

	// nil filters roll up every location and year
	all, err := reporting.GetStats(ctx, nil, nil)
	if err != nil {
		t.Fatalf("GetStats all: %v", err)
	}
	if all.Purchase.Bags != 300 {
		t.Errorf("all-scope bags = %d, want 300", all.Purchase.Bags)
	}
}
