package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SupplierRef is the joined supplier shape embedded in purchase reads.
type SupplierRef struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	MobileNo *string `json:"mobileNo,omitempty"`
}

// ItemRef is the joined item shape embedded in purchase reads.
type ItemRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// LocationRef is the joined location shape embedded in admin purchase reads.
type LocationRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Purchase is one bill of goods received at a location in a fiscal year.
// netWt, amount, totalCost and lotNo are derived — they are recomputed on
// every write and never settable independently.
type Purchase struct {
	ID             int             `json:"id"`
	LocationID     int             `json:"locationId"`
	Year           int             `json:"year"`
	BillDate       string          `json:"billDate"`
	BillNo         string          `json:"billNo"`
	SupplierID     int             `json:"supplierId"`
	PurchasedForID *int            `json:"purchasedForId"`
	ItemID         int             `json:"itemId"`
	AgreementNo    string          `json:"agreementNo"`
	LotNo          string          `json:"lotNo"`
	NoOfPacket     int             `json:"noOfPacket"`
	GrWt           decimal.Decimal `json:"grWt"`
	Cutting        decimal.Decimal `json:"cutting"`
	NetWt          decimal.Decimal `json:"netWt"`
	Rate           decimal.Decimal `json:"rate"`
	Amount         decimal.Decimal `json:"amount"`
	LoadingLabour  decimal.Decimal `json:"loadingLabour"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`

	Supplier     *SupplierRef `json:"supplier,omitempty"`
	PurchasedFor *SupplierRef `json:"purchasedFor,omitempty"`
	Item         *ItemRef     `json:"item,omitempty"`
	Location     *LocationRef `json:"location,omitempty"`
	Sales        []Sale       `json:"sales,omitempty"`
}

// PurchaseInput holds the caller-supplied fields for creating a purchase.
// BillNo is optional; when empty the next number for (location, year) is
// generated. Cutting and LoadingLabour default to zero.
type PurchaseInput struct {
	LocationID    int             `json:"locationId"`
	Year          int             `json:"year"`
	BillDate      string          `json:"billDate"`
	BillNo        string          `json:"billNo"`
	SupplierID    int             `json:"supplierId"`
	ItemID        int             `json:"itemId"`
	AgreementNo   string          `json:"agreementNo"`
	NoOfPacket    int             `json:"noOfPacket"`
	GrWt          decimal.Decimal `json:"grWt"`
	Cutting       decimal.Decimal `json:"cutting"`
	Rate          decimal.Decimal `json:"rate"`
	LoadingLabour decimal.Decimal `json:"loadingLabour"`
}

// PurchasePatch is a partial update; nil fields keep their current values.
// Derived fields are recomputed from the merged result.
type PurchasePatch struct {
	BillDate      *string          `json:"billDate"`
	BillNo        *string          `json:"billNo"`
	SupplierID    *int             `json:"supplierId"`
	ItemID        *int             `json:"itemId"`
	AgreementNo   *string          `json:"agreementNo"`
	NoOfPacket    *int             `json:"noOfPacket"`
	GrWt          *decimal.Decimal `json:"grWt"`
	Cutting       *decimal.Decimal `json:"cutting"`
	Rate          *decimal.Decimal `json:"rate"`
	LoadingLabour *decimal.Decimal `json:"loadingLabour"`
}

// PurchaseService owns the purchase ledger: creation with derived fields,
// bill-number generation per (location, year), scoped reads and the
// year-deletion cascade.
type PurchaseService interface {
	Create(ctx context.Context, input PurchaseInput) (*Purchase, error)
	Update(ctx context.Context, id int, patch PurchasePatch, scope Scope) (*Purchase, error)
	Delete(ctx context.Context, id int, scope Scope) error
	GetAll(ctx context.Context, locationID int, year *int) ([]Purchase, error)
	GetAllAdmin(ctx context.Context, year *int) ([]Purchase, error)
	GetByID(ctx context.Context, id int, scope Scope) (*Purchase, error)
	GenerateBillNo(ctx context.Context, locationID, year int) (string, error)
	GetAvailableYears(ctx context.Context, locationID int) ([]int, error)
	// DeleteByYear hard-deletes every purchase for (location, year) together
	// with its loan repayments, loans, sales and processing records, in one
	// transaction. Returns the number of purchases removed.
	DeleteByYear(ctx context.Context, locationID, year int) (int, error)
}

// LotNoFor derives the lot number shown on gate passes: agreementNo/noOfPacket.
func LotNoFor(agreementNo string, noOfPacket int) string {
	return fmt.Sprintf("%s/%d", agreementNo, noOfPacket)
}

// PurchaseFigures computes the derived money/weight fields of a purchase:
// netWt = grWt - cutting, amount = netWt * rate (net weight is what is paid
// for, not gross), totalCost = amount + loadingLabour.
func PurchaseFigures(grWt, cutting, rate, loadingLabour decimal.Decimal) (netWt, amount, totalCost decimal.Decimal) {
	netWt = grWt.Sub(cutting)
	amount = netWt.Mul(rate)
	totalCost = amount.Add(loadingLabour)
	return netWt, amount, totalCost
}

// NextBillNo returns the next bill number for a fiscal year given the bill
// numbers already recorded for (location, year). Numbers are `year-N`; the
// numeric suffix after the last dash is scanned and the maximum incremented.
// When the year holds only a single legacy bill numbered 1000 or above,
// numbering restarts at `year-1` — the manual renumbering convention carried
// over from the paper registers.
func NextBillNo(year int, existing []string) string {
	var suffixes []int
	for _, billNo := range existing {
		idx := strings.LastIndex(billNo, "-")
		if idx < 0 {
			continue
		}
		n, err := strconv.Atoi(billNo[idx+1:])
		if err != nil {
			continue
		}
		suffixes = append(suffixes, n)
	}

	if len(suffixes) == 0 {
		return fmt.Sprintf("%d-1", year)
	}
	if len(suffixes) == 1 && suffixes[0] >= 1000 {
		return fmt.Sprintf("%d-1", year)
	}

	max := suffixes[0]
	for _, n := range suffixes[1:] {
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%d-%d", year, max+1)
}
