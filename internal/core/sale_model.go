package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one sale transaction against a purchase lot. amount,
// totalExpOnSales and netResult are derived on every write.
type Sale struct {
	ID              int              `json:"id"`
	PurchaseID      int              `json:"purchaseId"`
	SaleDt          string           `json:"saleDt"`
	Party           *string          `json:"party"`
	NikashiPkt      int              `json:"nikashiPkt"`
	TayariPkt       int              `json:"tayariPkt"`
	Charri          int              `json:"charri"`
	SalePkt         int              `json:"salePkt"`
	SaleWt          decimal.Decimal  `json:"saleWt"`
	Rate            decimal.Decimal  `json:"rate"`
	Amount          decimal.Decimal  `json:"amount"`
	UnloadingLabour decimal.Decimal  `json:"unloadingLabour"`
	TayaroLabour    decimal.Decimal  `json:"tayaroLabour"`
	ColdStorageRent decimal.Decimal  `json:"coldStorageRent"`
	NewBags         decimal.Decimal  `json:"newBags"`
	Sutli           decimal.Decimal  `json:"sutli"`
	PktCollection   decimal.Decimal  `json:"pktCollection"`
	RaffuChipri     decimal.Decimal  `json:"raffuChipri"`
	TotalExpOnSales decimal.Decimal  `json:"totalExpOnSales"`
	NetResult       decimal.Decimal  `json:"netResult"`
	Shortage        *decimal.Decimal `json:"shortage"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt"`

	Purchase *Purchase `json:"purchase,omitempty"`
}

// SaleInput holds caller-supplied fields for a new sale. Expense fields are
// taken as submitted; a missing or zero expense stays zero.
type SaleInput struct {
	PurchaseID      int              `json:"purchaseId"`
	SaleDt          string           `json:"saleDt"`
	Party           string           `json:"party"`
	NikashiPkt      int              `json:"nikashiPkt"`
	TayariPkt       int              `json:"tayariPkt"`
	Charri          int              `json:"charri"`
	SalePkt         int              `json:"salePkt"`
	SaleWt          decimal.Decimal  `json:"saleWt"`
	Rate            decimal.Decimal  `json:"rate"`
	UnloadingLabour decimal.Decimal  `json:"unloadingLabour"`
	TayaroLabour    decimal.Decimal  `json:"tayaroLabour"`
	ColdStorageRent decimal.Decimal  `json:"coldStorageRent"`
	NewBags         decimal.Decimal  `json:"newBags"`
	Sutli           decimal.Decimal  `json:"sutli"`
	PktCollection   decimal.Decimal  `json:"pktCollection"`
	RaffuChipri     decimal.Decimal  `json:"raffuChipri"`
	Shortage        *decimal.Decimal `json:"shortage"`
}

// SalePatch is a partial sale update; derived fields are recomputed from the
// merged result.
type SalePatch struct {
	SaleDt          *string          `json:"saleDt"`
	Party           *string          `json:"party"`
	NikashiPkt      *int             `json:"nikashiPkt"`
	TayariPkt       *int             `json:"tayariPkt"`
	Charri          *int             `json:"charri"`
	SalePkt         *int             `json:"salePkt"`
	SaleWt          *decimal.Decimal `json:"saleWt"`
	Rate            *decimal.Decimal `json:"rate"`
	UnloadingLabour *decimal.Decimal `json:"unloadingLabour"`
	TayaroLabour    *decimal.Decimal `json:"tayaroLabour"`
	ColdStorageRent *decimal.Decimal `json:"coldStorageRent"`
	NewBags         *decimal.Decimal `json:"newBags"`
	Sutli           *decimal.Decimal `json:"sutli"`
	PktCollection   *decimal.Decimal `json:"pktCollection"`
	RaffuChipri     *decimal.Decimal `json:"raffuChipri"`
	Shortage        *decimal.Decimal `json:"shortage"`
}

// PurchaseWithSales is a purchase with its sales, loans and processing records
// attached plus the aggregate remaining-stock and shortage figures the UI
// shows per lot.
type PurchaseWithSales struct {
	Purchase
	Loans       []Loan          `json:"loans"`
	Processings []LotProcessing `json:"lotProcessings"`

	SoldWt       decimal.Decimal `json:"soldWt"`
	SoldPkt      int             `json:"soldPkt"`
	RemainingWt  decimal.Decimal `json:"remainingWt"`
	RemainingPkt int             `json:"remainingPkt"`
	Shortage     decimal.Decimal `json:"shortage"`

	ItemUnloadingRate decimal.Decimal `json:"itemUnloadingRate"`
	ItemTaiyariRate   decimal.Decimal `json:"itemTaiyariRate"`
	ItemRentRate      decimal.Decimal `json:"itemRentRate"`
}

// AvailablePurchase is the pick-a-lot shape for sale entry: lots with stock
// remaining, plus pre-fill defaults copied from the lot's first recorded sale.
type AvailablePurchase struct {
	ID           int             `json:"id"`
	AgreementNo  string          `json:"agreementNo"`
	LotNo        string          `json:"lotNo"`
	Item         string          `json:"item"`
	ItemID       int             `json:"itemId"`
	Supplier     string          `json:"supplier"`
	TotalPkt     int             `json:"totalPkt"`
	TotalWt      decimal.Decimal `json:"totalWt"`
	SoldPkt      int             `json:"soldPkt"`
	SoldWt       decimal.Decimal `json:"soldWt"`
	RemainingPkt int             `json:"remainingPkt"`
	RemainingWt  decimal.Decimal `json:"remainingWt"`

	ExistingNikashiPkt    int             `json:"existingNikashiPkt"`
	ExistingTayariPkt     int             `json:"existingTayariPkt"`
	ExistingCharri        int             `json:"existingCharri"`
	ExistingNewBags       decimal.Decimal `json:"existingNewBags"`
	ExistingSutli         decimal.Decimal `json:"existingSutli"`
	ExistingPktCollection decimal.Decimal `json:"existingPktCollection"`
	ExistingRaffuChipri   decimal.Decimal `json:"existingRaffuChipri"`

	ItemUnloadingRate decimal.Decimal `json:"itemUnloadingRate"`
	ItemTaiyariRate   decimal.Decimal `json:"itemTaiyariRate"`
	ItemRentRate      decimal.Decimal `json:"itemRentRate"`
}

// SaleService owns the sale ledger and the purchase/sale reconciliation reads.
type SaleService interface {
	Create(ctx context.Context, input SaleInput) (*Sale, error)
	Update(ctx context.Context, id int, patch SalePatch) (*Sale, error)
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*Sale, error)
	GetAll(ctx context.Context, locationID, year int) ([]Sale, error)
	GetPurchasesWithSales(ctx context.Context, locationID, year int) ([]PurchaseWithSales, error)
	GetAvailablePurchases(ctx context.Context, locationID, year int) ([]AvailablePurchase, error)
}

// SaleFigures computes the derived sale fields: amount = saleWt * rate,
// totalExpOnSales = sum of the seven expense components, and
// netResult = amount - totalExpOnSales.
func SaleFigures(saleWt, rate decimal.Decimal, expenses ...decimal.Decimal) (amount, totalExp, netResult decimal.Decimal) {
	amount = saleWt.Mul(rate)
	for _, e := range expenses {
		totalExp = totalExp.Add(e)
	}
	netResult = amount.Sub(totalExp)
	return amount, totalExp, netResult
}

// ShortagePercent computes the weight-loss percentage between a lot's gross
// intake weight and its cumulative sold weight: (grWt - soldWt) / grWt * 100.
// Zero gross weight yields zero.
func ShortagePercent(grWt, soldWt decimal.Decimal) decimal.Decimal {
	if grWt.IsZero() {
		return decimal.Zero
	}
	return grWt.Sub(soldWt).Div(grWt).Mul(decimal.NewFromInt(100))
}
