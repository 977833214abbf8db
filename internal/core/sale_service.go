package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type saleService struct {
	pool *pgxpool.Pool
}

// NewSaleService constructs a SaleService backed by PostgreSQL.
func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

const saleColumns = `
	sa.id, sa.purchase_id, sa.sale_dt::text, sa.party,
	sa.nikashi_pkt, sa.tayari_pkt, sa.charri, sa.sale_pkt,
	sa.sale_wt, sa.rate, sa.amount,
	sa.unloading_labour, sa.tayaro_labour, sa.cold_storage_rent,
	sa.new_bags, sa.sutli, sa.pkt_collection, sa.raffu_chipri,
	sa.total_exp_on_sales, sa.net_result, sa.shortage,
	sa.is_active, sa.created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	sa := &Sale{}
	err := row.Scan(
		&sa.ID, &sa.PurchaseID, &sa.SaleDt, &sa.Party,
		&sa.NikashiPkt, &sa.TayariPkt, &sa.Charri, &sa.SalePkt,
		&sa.SaleWt, &sa.Rate, &sa.Amount,
		&sa.UnloadingLabour, &sa.TayaroLabour, &sa.ColdStorageRent,
		&sa.NewBags, &sa.Sutli, &sa.PktCollection, &sa.RaffuChipri,
		&sa.TotalExpOnSales, &sa.NetResult, &sa.Shortage,
		&sa.IsActive, &sa.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sa, nil
}

// fetchSalesByPurchase loads all active sales for a set of purchases, oldest
// first, grouped by purchase id. Shared with the purchase ledger's reads.
func fetchSalesByPurchase(ctx context.Context, pool *pgxpool.Pool, purchaseIDs []int) (map[int][]Sale, error) {
	rows, err := pool.Query(ctx,
		"SELECT "+saleColumns+` FROM sales sa
		WHERE sa.purchase_id = ANY($1) AND sa.is_active = true
		ORDER BY sa.sale_dt, sa.id`,
		purchaseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	defer rows.Close()

	byPurchase := make(map[int][]Sale)
	for rows.Next() {
		sa, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		byPurchase[sa.PurchaseID] = append(byPurchase[sa.PurchaseID], *sa)
	}
	return byPurchase, rows.Err()
}

// Create records a sale against an existing active purchase. Expense fields
// are taken as submitted; missing values stay zero rather than being derived
// from the rate tables.
func (s *saleService) Create(ctx context.Context, input SaleInput) (*Sale, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM purchases WHERE id = $1 AND is_active = true)",
		input.PurchaseID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("validate purchase: %w", err)
	}
	if !exists {
		return nil, NotFoundf("purchase record not found")
	}

	amount, totalExp, netResult := SaleFigures(input.SaleWt, input.Rate,
		input.UnloadingLabour, input.TayaroLabour, input.ColdStorageRent,
		input.NewBags, input.Sutli, input.PktCollection, input.RaffuChipri)

	var party *string
	if input.Party != "" {
		party = &input.Party
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO sales (purchase_id, sale_dt, party,
		                   nikashi_pkt, tayari_pkt, charri, sale_pkt,
		                   sale_wt, rate, amount,
		                   unloading_labour, tayaro_labour, cold_storage_rent,
		                   new_bags, sutli, pkt_collection, raffu_chipri,
		                   total_exp_on_sales, net_result, shortage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		input.PurchaseID, input.SaleDt, party,
		input.NikashiPkt, input.TayariPkt, input.Charri, input.SalePkt,
		input.SaleWt, input.Rate, amount,
		input.UnloadingLabour, input.TayaroLabour, input.ColdStorageRent,
		input.NewBags, input.Sutli, input.PktCollection, input.RaffuChipri,
		totalExp, netResult, input.Shortage,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Update merges the patch onto the stored sale and recomputes amount,
// totalExpOnSales and netResult from the merged field set.
func (s *saleService) Update(ctx context.Context, id int, patch SalePatch) (*Sale, error) {
	sa, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.SaleDt != nil {
		sa.SaleDt = *patch.SaleDt
	}
	if patch.Party != nil {
		sa.Party = patch.Party
	}
	if patch.NikashiPkt != nil {
		sa.NikashiPkt = *patch.NikashiPkt
	}
	if patch.TayariPkt != nil {
		sa.TayariPkt = *patch.TayariPkt
	}
	if patch.Charri != nil {
		sa.Charri = *patch.Charri
	}
	if patch.SalePkt != nil {
		sa.SalePkt = *patch.SalePkt
	}
	if patch.SaleWt != nil {
		sa.SaleWt = *patch.SaleWt
	}
	if patch.Rate != nil {
		sa.Rate = *patch.Rate
	}
	if patch.UnloadingLabour != nil {
		sa.UnloadingLabour = *patch.UnloadingLabour
	}
	if patch.TayaroLabour != nil {
		sa.TayaroLabour = *patch.TayaroLabour
	}
	if patch.ColdStorageRent != nil {
		sa.ColdStorageRent = *patch.ColdStorageRent
	}
	if patch.NewBags != nil {
		sa.NewBags = *patch.NewBags
	}
	if patch.Sutli != nil {
		sa.Sutli = *patch.Sutli
	}
	if patch.PktCollection != nil {
		sa.PktCollection = *patch.PktCollection
	}
	if patch.RaffuChipri != nil {
		sa.RaffuChipri = *patch.RaffuChipri
	}
	if patch.Shortage != nil {
		sa.Shortage = patch.Shortage
	}

	sa.Amount, sa.TotalExpOnSales, sa.NetResult = SaleFigures(sa.SaleWt, sa.Rate,
		sa.UnloadingLabour, sa.TayaroLabour, sa.ColdStorageRent,
		sa.NewBags, sa.Sutli, sa.PktCollection, sa.RaffuChipri)

	_, err = s.pool.Exec(ctx, `
		UPDATE sales
		SET sale_dt = $1, party = $2,
		    nikashi_pkt = $3, tayari_pkt = $4, charri = $5, sale_pkt = $6,
		    sale_wt = $7, rate = $8, amount = $9,
		    unloading_labour = $10, tayaro_labour = $11, cold_storage_rent = $12,
		    new_bags = $13, sutli = $14, pkt_collection = $15, raffu_chipri = $16,
		    total_exp_on_sales = $17, net_result = $18, shortage = $19
		WHERE id = $20`,
		sa.SaleDt, sa.Party,
		sa.NikashiPkt, sa.TayariPkt, sa.Charri, sa.SalePkt,
		sa.SaleWt, sa.Rate, sa.Amount,
		sa.UnloadingLabour, sa.TayaroLabour, sa.ColdStorageRent,
		sa.NewBags, sa.Sutli, sa.PktCollection, sa.RaffuChipri,
		sa.TotalExpOnSales, sa.NetResult, sa.Shortage, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update sale %d: %w", id, err)
	}

	return s.GetByID(ctx, id)
}

// Delete soft-deletes a sale.
func (s *saleService) Delete(ctx context.Context, id int) error {
	if _, err := s.getActive(ctx, id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "UPDATE sales SET is_active = false WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}
	return nil
}

// GetByID returns an active sale with its purchase attached.
func (s *saleService) GetByID(ctx context.Context, id int) (*Sale, error) {
	sa, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(s.pool.QueryRow(ctx,
		"SELECT "+purchaseColumns+purchaseJoins+" WHERE p.id = $1", sa.PurchaseID))
	if err != nil {
		return nil, fmt.Errorf("get sale purchase: %w", err)
	}
	sa.Purchase = p
	return sa, nil
}

func (s *saleService) getActive(ctx context.Context, id int) (*Sale, error) {
	sa, err := scanSale(s.pool.QueryRow(ctx,
		"SELECT "+saleColumns+" FROM sales sa WHERE sa.id = $1 AND sa.is_active = true", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("sale record not found")
		}
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return sa, nil
}

// GetAll returns active sales joined through their purchase, filtered by the
// purchase's location and fiscal year, newest sale first.
func (s *saleService) GetAll(ctx context.Context, locationID, year int) ([]Sale, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+saleColumns+`
		FROM sales sa
		JOIN purchases p ON p.id = sa.purchase_id
		WHERE p.location_id = $1 AND p.year = $2 AND p.is_active = true AND sa.is_active = true
		ORDER BY sa.sale_dt DESC, sa.id DESC`,
		locationID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sa, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, *sa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}
	ids := make([]int, 0, len(sales))
	seen := make(map[int]bool)
	for _, sa := range sales {
		if !seen[sa.PurchaseID] {
			seen[sa.PurchaseID] = true
			ids = append(ids, sa.PurchaseID)
		}
	}
	byID, err := fetchPurchasesByID(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Purchase = byID[sales[i].PurchaseID]
	}
	return sales, nil
}

// fetchPurchasesByID loads joined purchases for a set of ids, keyed by id.
func fetchPurchasesByID(ctx context.Context, pool *pgxpool.Pool, ids []int) (map[int]*Purchase, error) {
	rows, err := pool.Query(ctx,
		"SELECT "+purchaseColumns+purchaseJoins+" WHERE p.id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("fetch purchases: %w", err)
	}
	defer rows.Close()

	byID := make(map[int]*Purchase)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		byID[p.ID] = p
	}
	return byID, rows.Err()
}

// GetPurchasesWithSales composes the per-lot reconciliation report: every
// active purchase for (location, year) with its sales, loans and processing
// records attached, plus sold/remaining totals, the shortage percentage and
// the item's current display rates.
func (s *saleService) GetPurchasesWithSales(ctx context.Context, locationID, year int) ([]PurchaseWithSales, error) {
	purchases, err := s.loadPurchases(ctx, locationID, year)
	if err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return []PurchaseWithSales{}, nil
	}

	ids := make([]int, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
	}

	salesByPurchase, err := fetchSalesByPurchase(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	loansByPurchase, err := fetchLoansByPurchase(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	processingsByPurchase, err := fetchProcessingsByPurchase(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	rates, err := loadItemRates(ctx, s.pool, locationID)
	if err != nil {
		return nil, err
	}

	out := make([]PurchaseWithSales, 0, len(purchases))
	for _, p := range purchases {
		row := PurchaseWithSales{Purchase: p}
		row.Sales = salesByPurchase[p.ID]
		row.Loans = loansByPurchase[p.ID]
		row.Processings = processingsByPurchase[p.ID]

		for _, sa := range row.Sales {
			row.SoldWt = row.SoldWt.Add(sa.SaleWt)
			row.SoldPkt += sa.SalePkt
		}
		row.RemainingWt = p.NetWt.Sub(row.SoldWt)
		row.RemainingPkt = p.NoOfPacket - row.SoldPkt
		if len(row.Sales) > 0 {
			row.Shortage = ShortagePercent(p.GrWt, row.SoldWt).Round(2)
		}
		row.ItemUnloadingRate = rates.unloading[p.ItemID]
		row.ItemTaiyariRate = rates.taiyari[p.ItemID]
		row.ItemRentRate = rates.rent[p.ItemID]

		out = append(out, row)
	}
	return out, nil
}

// GetAvailablePurchases returns only the lots with packets still unsold,
// shaped for the sale-entry picker: aggregate stock figures, pre-fill
// defaults from the lot's first sale, and the item's current rates.
func (s *saleService) GetAvailablePurchases(ctx context.Context, locationID, year int) ([]AvailablePurchase, error) {
	purchases, err := s.loadPurchases(ctx, locationID, year)
	if err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return []AvailablePurchase{}, nil
	}

	ids := make([]int, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
	}
	salesByPurchase, err := fetchSalesByPurchase(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	rates, err := loadItemRates(ctx, s.pool, locationID)
	if err != nil {
		return nil, err
	}

	out := make([]AvailablePurchase, 0, len(purchases))
	for _, p := range purchases {
		sales := salesByPurchase[p.ID]

		ap := AvailablePurchase{
			ID:          p.ID,
			AgreementNo: p.AgreementNo,
			LotNo:       p.LotNo,
			Item:        p.Item.Name,
			ItemID:      p.ItemID,
			Supplier:    p.Supplier.Name,
			TotalPkt:    p.NoOfPacket,
			TotalWt:     p.NetWt,
		}
		for _, sa := range sales {
			ap.SoldWt = ap.SoldWt.Add(sa.SaleWt)
			ap.SoldPkt += sa.SalePkt
		}
		ap.RemainingPkt = p.NoOfPacket - ap.SoldPkt
		ap.RemainingWt = p.NetWt.Sub(ap.SoldWt)
		if ap.RemainingPkt <= 0 {
			continue
		}

		if len(sales) > 0 {
			first := sales[0]
			ap.ExistingNikashiPkt = first.NikashiPkt
			ap.ExistingTayariPkt = first.TayariPkt
			ap.ExistingCharri = first.Charri
			ap.ExistingNewBags = first.NewBags
			ap.ExistingSutli = first.Sutli
			ap.ExistingPktCollection = first.PktCollection
			ap.ExistingRaffuChipri = first.RaffuChipri
		}

		ap.ItemUnloadingRate = rates.unloading[p.ItemID]
		ap.ItemTaiyariRate = rates.taiyari[p.ItemID]
		ap.ItemRentRate = rates.rent[p.ItemID]

		out = append(out, ap)
	}
	return out, nil
}

// loadPurchases fetches active joined purchases for (location, year), newest
// bill first.
func (s *saleService) loadPurchases(ctx context.Context, locationID, year int) ([]Purchase, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+purchaseColumns+purchaseJoins+`
		WHERE p.location_id = $1 AND p.year = $2 AND p.is_active = true
		ORDER BY p.bill_date DESC, p.bill_no DESC`,
		locationID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}
