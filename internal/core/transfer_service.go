package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LotTransfer is one entry in the append-only transfer log. Rows are never
// updated or deleted.
type LotTransfer struct {
	ID              int             `json:"id"`
	PurchaseID      int             `json:"purchaseId"`
	PreviousOwnerID int             `json:"previousOwnerId"`
	NewOwnerID      int             `json:"newOwnerId"`
	PreviousRate    decimal.Decimal `json:"previousRate"`
	NewRate         decimal.Decimal `json:"newRate"`
	TransferDate    string          `json:"transferDate"`
	NoOfPacket      int             `json:"noOfPacket"`
	NetWt           decimal.Decimal `json:"netWt"`
	LocationID      int             `json:"locationId"`
	Year            int             `json:"year"`
	CreatedAt       time.Time       `json:"createdAt"`

	PreviousOwner *SupplierRef `json:"previousOwner,omitempty"`
	NewOwner      *SupplierRef `json:"newOwner,omitempty"`
	LotNo         *string      `json:"lotNo,omitempty"`
}

// TransferInput carries an ownership/rate change for a purchase.
type TransferInput struct {
	TransferPartyID int             `json:"transferPartyId"`
	NewRate         decimal.Decimal `json:"newRate"`
	NetWt           decimal.Decimal `json:"netWt"`
	TransferDate    string          `json:"transferDate"`
}

// TransferPage is one page of transfer history, newest first.
type TransferPage struct {
	TotalItems  int           `json:"totalItems"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Data        []LotTransfer `json:"data"`
}

// TransferService mutates a purchase's owner and rate and keeps the audit
// log of every such change.
type TransferService interface {
	Transfer(ctx context.Context, purchaseID int, input TransferInput) (*Purchase, error)
	History(ctx context.Context, locationID, year, page, limit int) (*TransferPage, error)
}

type transferService struct {
	pool      *pgxpool.Pool
	purchases PurchaseService
}

// NewTransferService constructs a TransferService backed by PostgreSQL.
func NewTransferService(pool *pgxpool.Pool, purchases PurchaseService) TransferService {
	return &transferService{pool: pool, purchases: purchases}
}

// Transfer reassigns the purchase's beneficial owner and rate, reprices the
// lot and appends an audit row, all in one transaction. The previous owner is
// the current purchasedFor party, falling back to the original seller when
// the lot was never transferred.
func (s *transferService) Transfer(ctx context.Context, purchaseID int, input TransferInput) (*Purchase, error) {
	if input.TransferPartyID == 0 {
		return nil, BadRequestf("transferPartyId is required")
	}
	if !input.NewRate.IsPositive() {
		return nil, BadRequestf("newRate must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		supplierID     int
		purchasedForID *int
		rate           decimal.Decimal
		netWt          decimal.Decimal
		loadingLabour  decimal.Decimal
		noOfPacket     int
		locationID     int
		year           int
	)
	err = tx.QueryRow(ctx, `
		SELECT supplier_id, purchased_for_id, rate, net_wt, loading_labour,
		       no_of_packet, location_id, year
		FROM purchases
		WHERE id = $1 AND is_active = true
		FOR UPDATE`,
		purchaseID,
	).Scan(&supplierID, &purchasedForID, &rate, &netWt, &loadingLabour,
		&noOfPacket, &locationID, &year)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("purchase not found")
		}
		return nil, fmt.Errorf("lock purchase %d: %w", purchaseID, err)
	}

	previousOwnerID := supplierID
	if purchasedForID != nil {
		previousOwnerID = *purchasedForID
	}

	transferWt := netWt
	if input.NetWt.IsPositive() {
		transferWt = input.NetWt
	}
	amount := transferWt.Mul(input.NewRate)
	totalCost := amount.Add(loadingLabour)

	transferDate := input.TransferDate
	if transferDate == "" {
		transferDate = time.Now().Format("2006-01-02")
	}

	_, err = tx.Exec(ctx, `
		UPDATE purchases
		SET purchased_for_id = $1, rate = $2, amount = $3, total_cost = $4
		WHERE id = $5`,
		input.TransferPartyID, input.NewRate, amount, totalCost, purchaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("reprice purchase %d: %w", purchaseID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lot_transfers (purchase_id, previous_owner_id, new_owner_id,
		            previous_rate, new_rate, transfer_date, no_of_packet, net_wt,
		            location_id, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		purchaseID, previousOwnerID, input.TransferPartyID,
		rate, input.NewRate, transferDate, noOfPacket, transferWt,
		locationID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("record lot transfer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lot transfer: %w", err)
	}
	return s.purchases.GetByID(ctx, purchaseID, AdminScope())
}

// History returns one page of the location's transfer log for a year, newest
// first, with owner names and the lot number joined in.
func (s *transferService) History(ctx context.Context, locationID, year, page, limit int) (*TransferPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM lot_transfers WHERE location_id = $1 AND year = $2",
		locationID, year,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count lot transfers: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.purchase_id, t.previous_owner_id, t.new_owner_id,
		       t.previous_rate, t.new_rate, t.transfer_date::text,
		       t.no_of_packet, t.net_wt, t.location_id, t.year, t.created_at,
		       po.id, po.name, po.mobile_no,
		       no_.id, no_.name, no_.mobile_no,
		       p.lot_no
		FROM lot_transfers t
		JOIN suppliers po ON po.id = t.previous_owner_id
		JOIN suppliers no_ ON no_.id = t.new_owner_id
		JOIN purchases p ON p.id = t.purchase_id
		WHERE t.location_id = $1 AND t.year = $2
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3 OFFSET $4`,
		locationID, year, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list lot transfers: %w", err)
	}
	defer rows.Close()

	data := []LotTransfer{}
	for rows.Next() {
		var t LotTransfer
		var po, no SupplierRef
		var lotNo string
		err := rows.Scan(
			&t.ID, &t.PurchaseID, &t.PreviousOwnerID, &t.NewOwnerID,
			&t.PreviousRate, &t.NewRate, &t.TransferDate,
			&t.NoOfPacket, &t.NetWt, &t.LocationID, &t.Year, &t.CreatedAt,
			&po.ID, &po.Name, &po.MobileNo,
			&no.ID, &no.Name, &no.MobileNo,
			&lotNo,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lot transfer: %w", err)
		}
		t.PreviousOwner = &po
		t.NewOwner = &no
		t.LotNo = &lotNo
		data = append(data, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &TransferPage{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Data:        data,
	}, nil
}
