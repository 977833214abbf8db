package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LotProcessing is the running aggregate of in-warehouse handling for one
// purchase: at most one active record per purchase, grown in place by each
// submission. totalExps is always the sum of the eight cost components.
type LotProcessing struct {
	ID             int             `json:"id"`
	PurchaseID     int             `json:"purchaseId"`
	ProcessingDate *string         `json:"processingDate"`
	NikashiPkt     int             `json:"nikashiPkt"`
	PurchaseCost   decimal.Decimal `json:"purchaseCost"`
	NikashiLabour  decimal.Decimal `json:"nikashiLabour"`
	TayariLabour   decimal.Decimal `json:"tayariLabour"`
	Rent           decimal.Decimal `json:"rent"`
	NewBags        decimal.Decimal `json:"newBags"`
	Sutli          decimal.Decimal `json:"sutli"`
	PktCollection  decimal.Decimal `json:"pktCollection"`
	RaffuChippi    decimal.Decimal `json:"raffuChippi"`
	TotalExps      decimal.Decimal `json:"totalExps"`
	TayariPkt      int             `json:"tayariPkt"`
	TayariWt       decimal.Decimal `json:"tayariWt"`
	CharriPkt      int             `json:"charriPkt"`
	CharriWt       decimal.Decimal `json:"charriWt"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ProcessingEntry is one processing submission for a purchase. Entries for a
// purchase that already has an active record are folded into it.
type ProcessingEntry struct {
	PurchaseID     int             `json:"purchaseId"`
	ProcessingDate string          `json:"processingDate"`
	NikashiPkt     int             `json:"nikashiPkt"`
	PurchaseCost   decimal.Decimal `json:"purchaseCost"`
	NikashiLabour  decimal.Decimal `json:"nikashiLabour"`
	TayariLabour   decimal.Decimal `json:"tayariLabour"`
	Rent           decimal.Decimal `json:"rent"`
	NewBags        decimal.Decimal `json:"newBags"`
	Sutli          decimal.Decimal `json:"sutli"`
	PktCollection  decimal.Decimal `json:"pktCollection"`
	RaffuChippi    decimal.Decimal `json:"raffuChippi"`
	TayariPkt      int             `json:"tayariPkt"`
	TayariWt       decimal.Decimal `json:"tayariWt"`
	CharriPkt      int             `json:"charriPkt"`
	CharriWt       decimal.Decimal `json:"charriWt"`
}

// ProcessingPatch is a direct field overwrite used for corrections. Unlike
// Apply it does not accumulate.
type ProcessingPatch struct {
	ProcessingDate *string          `json:"processingDate"`
	NikashiPkt     *int             `json:"nikashiPkt"`
	PurchaseCost   *decimal.Decimal `json:"purchaseCost"`
	NikashiLabour  *decimal.Decimal `json:"nikashiLabour"`
	TayariLabour   *decimal.Decimal `json:"tayariLabour"`
	Rent           *decimal.Decimal `json:"rent"`
	NewBags        *decimal.Decimal `json:"newBags"`
	Sutli          *decimal.Decimal `json:"sutli"`
	PktCollection  *decimal.Decimal `json:"pktCollection"`
	RaffuChippi    *decimal.Decimal `json:"raffuChippi"`
	TayariPkt      *int             `json:"tayariPkt"`
	TayariWt       *decimal.Decimal `json:"tayariWt"`
	CharriPkt      *int             `json:"charriPkt"`
	CharriWt       *decimal.Decimal `json:"charriWt"`
}

// Apply folds a submission into the running aggregate: every quantity and
// cost component is added onto the stored cumulative value, except
// purchaseCost which is overwritten only when the entry carries one.
// totalExps is recomputed and processingDate advanced to the entry's date.
func (lp *LotProcessing) Apply(e ProcessingEntry) {
	lp.NikashiPkt += e.NikashiPkt
	if !e.PurchaseCost.IsZero() {
		lp.PurchaseCost = e.PurchaseCost
	}
	lp.NikashiLabour = lp.NikashiLabour.Add(e.NikashiLabour)
	lp.TayariLabour = lp.TayariLabour.Add(e.TayariLabour)
	lp.Rent = lp.Rent.Add(e.Rent)
	lp.NewBags = lp.NewBags.Add(e.NewBags)
	lp.Sutli = lp.Sutli.Add(e.Sutli)
	lp.PktCollection = lp.PktCollection.Add(e.PktCollection)
	lp.RaffuChippi = lp.RaffuChippi.Add(e.RaffuChippi)
	lp.TayariPkt += e.TayariPkt
	lp.TayariWt = lp.TayariWt.Add(e.TayariWt)
	lp.CharriPkt += e.CharriPkt
	lp.CharriWt = lp.CharriWt.Add(e.CharriWt)
	lp.TotalExps = lp.ComponentTotal()
	if e.ProcessingDate != "" {
		d := e.ProcessingDate
		lp.ProcessingDate = &d
	}
}

// ComponentTotal sums the eight cost components.
func (lp *LotProcessing) ComponentTotal() decimal.Decimal {
	total := lp.PurchaseCost
	for _, c := range []decimal.Decimal{
		lp.NikashiLabour, lp.TayariLabour, lp.Rent, lp.NewBags,
		lp.Sutli, lp.PktCollection, lp.RaffuChippi,
	} {
		total = total.Add(c)
	}
	return total
}

// ProcessingService owns the lot-processing ledger. CreateOrAccumulate is the
// system's only merge-on-write operation and is serialized per purchase.
type ProcessingService interface {
	CreateOrAccumulate(ctx context.Context, entry ProcessingEntry) (*LotProcessing, error)
	Update(ctx context.Context, id int, patch ProcessingPatch) (*LotProcessing, error)
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*LotProcessing, error)
	ListByPurchase(ctx context.Context, purchaseID int) ([]LotProcessing, error)
}
