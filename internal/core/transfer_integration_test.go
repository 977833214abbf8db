package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"lotledger/internal/core"
)

func TestTransfer_FirstTransferFromSupplier(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	transfers := core.NewTransferService(pool, purchases)

	// supplier 1, rate 100, netWt 48, loadingLabour 200
	p := seedPurchase(t, purchases, 2024, "AG-1")

	after, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
		TransferPartyID: 2,
		NewRate:         d("120"),
		NetWt:           d("50"),
		TransferDate:    "2024-04-01",
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if after.PurchasedForID == nil || *after.PurchasedForID != 2 {
		t.Errorf("purchasedForId = %v, want 2", after.PurchasedForID)
	}
	if !after.Rate.Equal(d("120")) {
		t.Errorf("rate = %s, want 120", after.Rate)
	}
	if !after.Amount.Equal(d("6000")) { // transferWt 50 * 120
		t.Errorf("amount = %s, want 6000", after.Amount)
	}
	if !after.TotalCost.Equal(d("6200")) {
		t.Errorf("totalCost = %s, want 6200", after.TotalCost)
	}

	page, err := transfers.History(ctx, 1, 2024, 1, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if page.TotalItems != 1 || len(page.Data) != 1 {
		t.Fatalf("history = %d items, want 1", page.TotalItems)
	}
	rec := page.Data[0]
	// never transferred before: previous owner is the original seller
	if rec.PreviousOwnerID != 1 {
		t.Errorf("previousOwnerId = %d, want 1", rec.PreviousOwnerID)
	}
	if rec.NewOwnerID != 2 {
		t.Errorf("newOwnerId = %d, want 2", rec.NewOwnerID)
	}
	if !rec.PreviousRate.Equal(d("100")) || !rec.NewRate.Equal(d("120")) {
		t.Errorf("rates = %s -> %s, want 100 -> 120", rec.PreviousRate, rec.NewRate)
	}
	if rec.TransferDate != "2024-04-01" {
		t.Errorf("transferDate = %q, want 2024-04-01", rec.TransferDate)
	}
	if rec.PreviousOwner == nil || rec.PreviousOwner.Name != "Ramesh Traders" {
		t.Errorf("previousOwner join missing: %+v", rec.PreviousOwner)
	}
}

func TestTransfer_SecondTransferFromCurrentOwner(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	transfers := core.NewTransferService(pool, purchases)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	if _, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
		TransferPartyID: 2, NewRate: d("120"), TransferDate: "2024-04-01",
	}); err != nil {
		t.Fatalf("first transfer: %v", err)
	}
	if _, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
		TransferPartyID: 1, NewRate: d("130"), TransferDate: "2024-05-01",
	}); err != nil {
		t.Fatalf("second transfer: %v", err)
	}

	page, err := transfers.History(ctx, 1, 2024, 1, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if page.TotalItems != 2 {
		t.Fatalf("history = %d items, want 2", page.TotalItems)
	}
	// newest first; its previous owner is the party of the first transfer
	latest := page.Data[0]
	if latest.PreviousOwnerID != 2 || latest.NewOwnerID != 1 {
		t.Errorf("latest owners = %d -> %d, want 2 -> 1", latest.PreviousOwnerID, latest.NewOwnerID)
	}
	if !latest.PreviousRate.Equal(d("120")) {
		t.Errorf("latest previousRate = %s, want 120", latest.PreviousRate)
	}
}

func TestTransfer_DefaultsWeightFromPurchase(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	transfers := core.NewTransferService(pool, purchases)
	p := seedPurchase(t, purchases, 2024, "AG-1") // netWt 48

	after, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
		TransferPartyID: 2, NewRate: d("120"),
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !after.Amount.Equal(d("5760")) { // 48 * 120
		t.Errorf("amount = %s, want 5760", after.Amount)
	}
}

func TestTransfer_Validation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	transfers := core.NewTransferService(pool, purchases)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	if _, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
		NewRate: d("120"),
	}); core.KindOf(err) != core.KindBadRequest {
		t.Errorf("missing party: got %v, want BadRequest", err)
	}
	if _, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
		TransferPartyID: 2, NewRate: d("0"),
	}); core.KindOf(err) != core.KindBadRequest {
		t.Errorf("zero rate: got %v, want BadRequest", err)
	}
	if _, err := transfers.Transfer(ctx, 9999, core.TransferInput{
		TransferPartyID: 2, NewRate: d("120"),
	}); core.KindOf(err) != core.KindNotFound {
		t.Errorf("missing purchase: got %v, want NotFound", err)
	}
}

func TestTransferHistory_Pagination(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	purchases := core.NewPurchaseService(pool)
	transfers := core.NewTransferService(pool, purchases)
	p := seedPurchase(t, purchases, 2024, "AG-1")

	parties := []int{2, 1, 2, 1, 2}
	for i, party := range parties {
		if _, err := transfers.Transfer(ctx, p.ID, core.TransferInput{
			TransferPartyID: party,
			NewRate:         d("100").Add(decimal.NewFromInt(int64(i + 1))),
		}); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	page, err := transfers.History(ctx, 1, 2024, 1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if page.TotalItems != 5 || page.TotalPages != 3 || page.CurrentPage != 1 {
		t.Errorf("page = %d/%d items %d, want 5 items over 3 pages", page.CurrentPage, page.TotalPages, page.TotalItems)
	}
	if len(page.Data) != 2 {
		t.Errorf("page size = %d, want 2", len(page.Data))
	}

	last, err := transfers.History(ctx, 1, 2024, 3, 2)
	if err != nil {
		t.Fatalf("History page 3: %v", err)
	}
	if len(last.Data) != 1 {
		t.Errorf("last page size = %d, want 1", len(last.Data))
	}
}
