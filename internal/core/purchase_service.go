package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type purchaseService struct {
	pool *pgxpool.Pool
}

// NewPurchaseService constructs a PurchaseService backed by PostgreSQL.
func NewPurchaseService(pool *pgxpool.Pool) PurchaseService {
	return &purchaseService{pool: pool}
}

const purchaseColumns = `
	p.id, p.location_id, p.year, p.bill_date::text, p.bill_no,
	p.supplier_id, p.purchased_for_id, p.item_id,
	p.agreement_no, p.lot_no, p.no_of_packet,
	p.gr_wt, p.cutting, p.net_wt, p.rate, p.amount, p.loading_labour, p.total_cost,
	p.is_active, p.created_at,
	s.id, s.name, s.mobile_no,
	pf.id, pf.name, pf.mobile_no,
	i.id, i.name, i.code,
	l.id, l.name`

const purchaseJoins = `
	FROM purchases p
	JOIN suppliers s       ON s.id = p.supplier_id
	LEFT JOIN suppliers pf ON pf.id = p.purchased_for_id
	JOIN items i           ON i.id = p.item_id
	JOIN locations l       ON l.id = p.location_id`

// scanPurchase reads one joined purchase row.
func scanPurchase(row pgx.Row) (*Purchase, error) {
	p := &Purchase{Supplier: &SupplierRef{}, Item: &ItemRef{}, Location: &LocationRef{}}
	var pfID *int
	var pfName, pfMobile *string
	err := row.Scan(
		&p.ID, &p.LocationID, &p.Year, &p.BillDate, &p.BillNo,
		&p.SupplierID, &p.PurchasedForID, &p.ItemID,
		&p.AgreementNo, &p.LotNo, &p.NoOfPacket,
		&p.GrWt, &p.Cutting, &p.NetWt, &p.Rate, &p.Amount, &p.LoadingLabour, &p.TotalCost,
		&p.IsActive, &p.CreatedAt,
		&p.Supplier.ID, &p.Supplier.Name, &p.Supplier.MobileNo,
		&pfID, &pfName, &pfMobile,
		&p.Item.ID, &p.Item.Name, &p.Item.Code,
		&p.Location.ID, &p.Location.Name,
	)
	if err != nil {
		return nil, err
	}
	if pfID != nil && pfName != nil {
		p.PurchasedFor = &SupplierRef{ID: *pfID, Name: *pfName, MobileNo: pfMobile}
	}
	return p, nil
}

// Create inserts a new purchase with derived fields. The duplicate agreement
// check is a fast path; the partial unique indexes catch races and are
// translated into the same Conflict.
func (s *purchaseService) Create(ctx context.Context, input PurchaseInput) (*Purchase, error) {
	if input.LocationID == 0 {
		return nil, BadRequestf("location is required")
	}
	if input.Year == 0 {
		return nil, BadRequestf("year is required")
	}
	if input.BillDate == "" {
		return nil, BadRequestf("bill date is required")
	}
	if input.SupplierID == 0 {
		return nil, BadRequestf("supplier is required")
	}
	if input.ItemID == 0 {
		return nil, BadRequestf("item is required")
	}
	if input.AgreementNo == "" {
		return nil, BadRequestf("agreement number is required")
	}

	dup, err := s.agreementExists(ctx, input.LocationID, input.Year, input.AgreementNo, 0)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, Conflictf("agreement no. %s already exists for this location and year", input.AgreementNo)
	}

	billNo := input.BillNo
	if billNo == "" {
		billNo, err = s.GenerateBillNo(ctx, input.LocationID, input.Year)
		if err != nil {
			return nil, err
		}
	}

	lotNo := LotNoFor(input.AgreementNo, input.NoOfPacket)
	netWt, amount, totalCost := PurchaseFigures(input.GrWt, input.Cutting, input.Rate, input.LoadingLabour)

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO purchases (location_id, year, bill_date, bill_no, supplier_id, item_id,
		                       agreement_no, lot_no, no_of_packet,
		                       gr_wt, cutting, net_wt, rate, amount, loading_labour, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		input.LocationID, input.Year, input.BillDate, billNo, input.SupplierID, input.ItemID,
		input.AgreementNo, lotNo, input.NoOfPacket,
		input.GrWt, input.Cutting, netWt, input.Rate, amount, input.LoadingLabour, totalCost,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("bill no. %s or agreement no. %s already exists for this location and year",
				billNo, input.AgreementNo)
		}
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	return s.GetByID(ctx, id, AdminScope())
}

// Update applies a partial patch within the caller's scope and re-derives
// lotNo, netWt, amount and totalCost from the merged field set.
func (s *purchaseService) Update(ctx context.Context, id int, patch PurchasePatch, scope Scope) (*Purchase, error) {
	p, err := s.GetByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	if patch.AgreementNo != nil && *patch.AgreementNo != p.AgreementNo {
		dup, err := s.agreementExists(ctx, p.LocationID, p.Year, *patch.AgreementNo, id)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, Conflictf("agreement no. %s already exists for this location and year", *patch.AgreementNo)
		}
		p.AgreementNo = *patch.AgreementNo
	}

	if patch.BillDate != nil {
		p.BillDate = *patch.BillDate
	}
	if patch.BillNo != nil {
		p.BillNo = *patch.BillNo
	}
	if patch.SupplierID != nil {
		p.SupplierID = *patch.SupplierID
	}
	if patch.ItemID != nil {
		p.ItemID = *patch.ItemID
	}
	if patch.NoOfPacket != nil {
		p.NoOfPacket = *patch.NoOfPacket
	}
	if patch.GrWt != nil {
		p.GrWt = *patch.GrWt
	}
	if patch.Cutting != nil {
		p.Cutting = *patch.Cutting
	}
	if patch.Rate != nil {
		p.Rate = *patch.Rate
	}
	if patch.LoadingLabour != nil {
		p.LoadingLabour = *patch.LoadingLabour
	}

	p.LotNo = LotNoFor(p.AgreementNo, p.NoOfPacket)
	p.NetWt, p.Amount, p.TotalCost = PurchaseFigures(p.GrWt, p.Cutting, p.Rate, p.LoadingLabour)

	_, err = s.pool.Exec(ctx, `
		UPDATE purchases
		SET bill_date = $1, bill_no = $2, supplier_id = $3, item_id = $4,
		    agreement_no = $5, lot_no = $6, no_of_packet = $7,
		    gr_wt = $8, cutting = $9, net_wt = $10, rate = $11,
		    amount = $12, loading_labour = $13, total_cost = $14
		WHERE id = $15`,
		p.BillDate, p.BillNo, p.SupplierID, p.ItemID,
		p.AgreementNo, p.LotNo, p.NoOfPacket,
		p.GrWt, p.Cutting, p.NetWt, p.Rate,
		p.Amount, p.LoadingLabour, p.TotalCost, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("bill no. %s or agreement no. %s already exists for this location and year",
				p.BillNo, p.AgreementNo)
		}
		return nil, fmt.Errorf("update purchase %d: %w", id, err)
	}

	return s.GetByID(ctx, id, scope)
}

// Delete soft-deletes a purchase within the caller's scope. Children are
// untouched; only the year cascade removes them.
func (s *purchaseService) Delete(ctx context.Context, id int, scope Scope) error {
	if _, err := s.GetByID(ctx, id, scope); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "UPDATE purchases SET is_active = false WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete purchase %d: %w", id, err)
	}
	return nil
}

// GetAll returns active purchases for a location, optionally filtered by year,
// newest bill first, with active sales attached.
func (s *purchaseService) GetAll(ctx context.Context, locationID int, year *int) ([]Purchase, error) {
	query := "SELECT " + purchaseColumns + purchaseJoins + `
		WHERE p.location_id = $1 AND p.is_active = true`
	args := []any{locationID}
	if year != nil {
		query += " AND p.year = $2"
		args = append(args, *year)
	}
	query += " ORDER BY p.bill_date DESC, p.bill_no DESC"
	return s.queryPurchases(ctx, query, args...)
}

// GetAllAdmin returns active purchases across every location.
func (s *purchaseService) GetAllAdmin(ctx context.Context, year *int) ([]Purchase, error) {
	query := "SELECT " + purchaseColumns + purchaseJoins + `
		WHERE p.is_active = true`
	var args []any
	if year != nil {
		query += " AND p.year = $1"
		args = append(args, *year)
	}
	query += " ORDER BY p.bill_date DESC, p.bill_no DESC"
	return s.queryPurchases(ctx, query, args...)
}

// GetByID returns a purchase joined with its supplier, beneficial owner, item
// and location. Records outside the caller's scope surface as NotFound.
func (s *purchaseService) GetByID(ctx context.Context, id int, scope Scope) (*Purchase, error) {
	query := "SELECT " + purchaseColumns + purchaseJoins + " WHERE p.id = $1 AND p.is_active = true"
	args := []any{id}
	if !scope.SuperAdmin && scope.LocationID != nil {
		query += fmt.Sprintf(" AND p.location_id = $%d", len(args)+1)
		args = append(args, *scope.LocationID)
	}
	if scope.Year != nil {
		query += fmt.Sprintf(" AND p.year = $%d", len(args)+1)
		args = append(args, *scope.Year)
	}

	p, err := scanPurchase(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("purchase not found")
		}
		return nil, fmt.Errorf("get purchase %d: %w", id, err)
	}
	return p, nil
}

// GenerateBillNo computes the next bill number for (location, year). The
// pre-insert read is advisory only; a concurrent create losing the race gets
// a Conflict from the unique index and retries with a fresh number.
func (s *purchaseService) GenerateBillNo(ctx context.Context, locationID, year int) (string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT bill_no FROM purchases WHERE location_id = $1 AND year = $2 AND is_active = true",
		locationID, year,
	)
	if err != nil {
		return "", fmt.Errorf("scan bill numbers: %w", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var billNo string
		if err := rows.Scan(&billNo); err != nil {
			return "", fmt.Errorf("scan bill number: %w", err)
		}
		existing = append(existing, billNo)
	}
	return NextBillNo(year, existing), nil
}

// GetAvailableYears returns the distinct fiscal years with active purchases
// for a location, newest first.
func (s *purchaseService) GetAvailableYears(ctx context.Context, locationID int) ([]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT year FROM purchases
		WHERE location_id = $1 AND is_active = true
		ORDER BY year DESC`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("get available years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, nil
}

// DeleteByYear hard-deletes every purchase for (location, year) and all of its
// dependents in one transaction: loan repayments first, then loans, sales,
// processing records, and finally the purchases themselves. Any failure rolls
// the whole batch back.
func (s *purchaseService) DeleteByYear(ctx context.Context, locationID, year int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		"SELECT id FROM purchases WHERE location_id = $1 AND year = $2",
		locationID, year,
	)
	if err != nil {
		return 0, fmt.Errorf("collect purchases for year %d: %w", year, err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan purchase id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if len(ids) == 0 {
		return 0, nil
	}

	steps := []struct {
		name  string
		query string
	}{
		{"loan repayments", `DELETE FROM loan_repayments WHERE loan_id IN (SELECT id FROM loans WHERE purchase_id = ANY($1))`},
		{"loans", `DELETE FROM loans WHERE purchase_id = ANY($1)`},
		{"sales", `DELETE FROM sales WHERE purchase_id = ANY($1)`},
		{"lot processings", `DELETE FROM lot_processings WHERE purchase_id = ANY($1)`},
		{"lot transfers", `DELETE FROM lot_transfers WHERE purchase_id = ANY($1)`},
		{"purchases", `DELETE FROM purchases WHERE id = ANY($1)`},
	}
	for _, step := range steps {
		if _, err := tx.Exec(ctx, step.query, ids); err != nil {
			return 0, fmt.Errorf("delete %s for year %d: %w", step.name, year, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit year deletion: %w", err)
	}
	return len(ids), nil
}

// agreementExists reports whether another purchase already uses agreementNo
// for (location, year). excludeID skips the record being updated.
func (s *purchaseService) agreementExists(ctx context.Context, locationID, year int, agreementNo string, excludeID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM purchases
			WHERE location_id = $1 AND year = $2 AND agreement_no = $3
			  AND is_active = true AND id <> $4
		)`,
		locationID, year, agreementNo, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate agreement: %w", err)
	}
	return exists, nil
}

// queryPurchases runs a joined purchase query and attaches active sales.
func (s *purchaseService) queryPurchases(ctx context.Context, query string, args ...any) ([]Purchase, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	var ids []int
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	if len(purchases) == 0 {
		return purchases, nil
	}

	salesByPurchase, err := fetchSalesByPurchase(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range purchases {
		purchases[i].Sales = salesByPurchase[purchases[i].ID]
	}
	return purchases, nil
}
