package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type loanService struct {
	pool *pgxpool.Pool
}

// NewLoanService constructs a LoanService backed by PostgreSQL.
func NewLoanService(pool *pgxpool.Pool) LoanService {
	return &loanService{pool: pool}
}

const loanColumns = `
	ln.id, ln.purchase_id, ln.loan_dt::text, ln.loan_amount,
	ln.repayment_dt::text, ln.interest, ln.pay_recd, ln.net_dues,
	ln.remarks, ln.is_active, ln.created_at`

func scanLoan(row pgx.Row) (*Loan, error) {
	ln := &Loan{}
	err := row.Scan(
		&ln.ID, &ln.PurchaseID, &ln.LoanDt, &ln.LoanAmount,
		&ln.RepaymentDt, &ln.Interest, &ln.PayRecd, &ln.NetDues,
		&ln.Remarks, &ln.IsActive, &ln.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

// Create records a loan against a purchase. When a repayments set is
// supplied, payRecd and repaymentDt come from it and only positive-amount
// entries are persisted.
func (s *loanService) Create(ctx context.Context, input LoanInput) (*Loan, error) {
	if input.PurchaseID == 0 {
		return nil, BadRequestf("purchaseId is required")
	}
	if input.LoanDt == "" {
		return nil, BadRequestf("loanDt is required")
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM purchases WHERE id = $1 AND is_active = true)",
		input.PurchaseID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check purchase %d: %w", input.PurchaseID, err)
	}
	if !exists {
		return nil, NotFoundf("purchase record not found")
	}

	payRecd := input.PayRecd
	var repaymentDt *string
	var kept []RepaymentInput
	if input.Repayments != nil {
		kept, payRecd, repaymentDt = SummarizeRepayments(input.Repayments)
	}
	netDues := NetDues(input.LoanAmount, input.Interest, payRecd)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO loans (purchase_id, loan_dt, loan_amount, repayment_dt,
		            interest, pay_recd, net_dues, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		input.PurchaseID, input.LoanDt, input.LoanAmount, repaymentDt,
		input.Interest, payRecd, netDues, input.Remarks,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	if err := insertRepayments(ctx, tx, id, kept); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit loan: %w", err)
	}
	return s.Get(ctx, id)
}

// Update merges the patch onto the stored loan. A supplied repayments set
// replaces the stored set wholesale: the old rows are soft-deleted and the
// new ones inserted, with payRecd, netDues and repaymentDt recomputed from
// the new set only. Without a set, the derived fields are recomputed from
// the currently active rows.
func (s *loanService) Update(ctx context.Context, id int, patch LoanPatch) (*Loan, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	loanDt := current.LoanDt
	if patch.LoanDt != nil {
		loanDt = *patch.LoanDt
	}
	loanAmount := current.LoanAmount
	if patch.LoanAmount != nil {
		loanAmount = *patch.LoanAmount
	}
	interest := current.Interest
	if patch.Interest != nil {
		interest = *patch.Interest
	}
	remarks := current.Remarks
	if patch.Remarks != nil {
		remarks = patch.Remarks
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var payRecd decimal.Decimal
	var repaymentDt *string
	if patch.Repayments != nil {
		if _, err := tx.Exec(ctx,
			"UPDATE loan_repayments SET is_active = false WHERE loan_id = $1 AND is_active = true",
			id,
		); err != nil {
			return nil, fmt.Errorf("retire repayments for loan %d: %w", id, err)
		}
		var kept []RepaymentInput
		kept, payRecd, repaymentDt = SummarizeRepayments(patch.Repayments)
		if err := insertRepayments(ctx, tx, id, kept); err != nil {
			return nil, err
		}
	} else {
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0), MAX(repayment_dt)::text
			FROM loan_repayments WHERE loan_id = $1 AND is_active = true`,
			id,
		).Scan(&payRecd, &repaymentDt)
		if err != nil {
			return nil, fmt.Errorf("sum repayments for loan %d: %w", id, err)
		}
	}

	netDues := NetDues(loanAmount, interest, payRecd)
	_, err = tx.Exec(ctx, `
		UPDATE loans
		SET loan_dt = $1, loan_amount = $2, repayment_dt = $3, interest = $4,
		    pay_recd = $5, net_dues = $6, remarks = $7
		WHERE id = $8`,
		loanDt, loanAmount, repaymentDt, interest, payRecd, netDues, remarks, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update loan %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit loan update: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes the loan together with its active repayments.
func (s *loanService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE loan_repayments SET is_active = false WHERE loan_id = $1 AND is_active = true", id,
	); err != nil {
		return fmt.Errorf("retire repayments for loan %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE loans SET is_active = false WHERE id = $1", id,
	); err != nil {
		return fmt.Errorf("delete loan %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit loan delete: %w", err)
	}
	return nil
}

// Get returns one active loan with its active repayments attached.
func (s *loanService) Get(ctx context.Context, id int) (*Loan, error) {
	ln, err := scanLoan(s.pool.QueryRow(ctx,
		"SELECT "+loanColumns+" FROM loans ln WHERE ln.id = $1 AND ln.is_active = true", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("loan not found")
		}
		return nil, fmt.Errorf("get loan %d: %w", id, err)
	}
	repayments, err := fetchRepaymentsByLoan(ctx, s.pool, []int{id})
	if err != nil {
		return nil, err
	}
	ln.Repayments = repayments[id]
	return ln, nil
}

// GetByPurchase returns the purchase's active loans ordered by loan date.
func (s *loanService) GetByPurchase(ctx context.Context, purchaseID int) ([]Loan, error) {
	byPurchase, err := fetchLoansByPurchase(ctx, s.pool, []int{purchaseID})
	if err != nil {
		return nil, err
	}
	loans := byPurchase[purchaseID]
	if loans == nil {
		loans = []Loan{}
	}
	return loans, nil
}

// GetAll returns every active loan whose purchase belongs to the location and
// year, ordered by loan date.
func (s *loanService) GetAll(ctx context.Context, locationID, year int) ([]Loan, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+loanColumns+` FROM loans ln
		JOIN purchases p ON p.id = ln.purchase_id
		WHERE p.location_id = $1 AND p.year = $2 AND ln.is_active = true
		ORDER BY ln.loan_dt, ln.id`,
		locationID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := []Loan{}
	ids := []int{}
	for rows.Next() {
		ln, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *ln)
		ids = append(ids, ln.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachRepayments(ctx, s.pool, loans, ids); err != nil {
		return nil, err
	}
	return loans, nil
}

// fetchLoansByPurchase loads active loans with repayments for a set of
// purchases, grouped by purchase id.
func fetchLoansByPurchase(ctx context.Context, pool *pgxpool.Pool, purchaseIDs []int) (map[int][]Loan, error) {
	rows, err := pool.Query(ctx,
		"SELECT "+loanColumns+` FROM loans ln
		WHERE ln.purchase_id = ANY($1) AND ln.is_active = true
		ORDER BY ln.loan_dt, ln.id`,
		purchaseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch loans: %w", err)
	}
	defer rows.Close()

	loans := []Loan{}
	ids := []int{}
	for rows.Next() {
		ln, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *ln)
		ids = append(ids, ln.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachRepayments(ctx, pool, loans, ids); err != nil {
		return nil, err
	}

	byPurchase := make(map[int][]Loan)
	for _, ln := range loans {
		byPurchase[ln.PurchaseID] = append(byPurchase[ln.PurchaseID], ln)
	}
	return byPurchase, nil
}

func attachRepayments(ctx context.Context, pool *pgxpool.Pool, loans []Loan, loanIDs []int) error {
	if len(loanIDs) == 0 {
		return nil
	}
	byLoan, err := fetchRepaymentsByLoan(ctx, pool, loanIDs)
	if err != nil {
		return err
	}
	for i := range loans {
		loans[i].Repayments = byLoan[loans[i].ID]
	}
	return nil
}

func fetchRepaymentsByLoan(ctx context.Context, pool *pgxpool.Pool, loanIDs []int) (map[int][]LoanRepayment, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, loan_id, repayment_type, repayment_dt::text, amount,
		       remarks, is_active, created_at
		FROM loan_repayments
		WHERE loan_id = ANY($1) AND is_active = true
		ORDER BY repayment_dt, id`,
		loanIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch loan repayments: %w", err)
	}
	defer rows.Close()

	byLoan := make(map[int][]LoanRepayment)
	for rows.Next() {
		var r LoanRepayment
		err := rows.Scan(
			&r.ID, &r.LoanID, &r.RepaymentType, &r.RepaymentDt, &r.Amount,
			&r.Remarks, &r.IsActive, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan loan repayment: %w", err)
		}
		byLoan[r.LoanID] = append(byLoan[r.LoanID], r)
	}
	return byLoan, rows.Err()
}

func insertRepayments(ctx context.Context, tx pgx.Tx, loanID int, repayments []RepaymentInput) error {
	for _, r := range repayments {
		rtype := r.RepaymentType
		if rtype == "" {
			rtype = "BOTH"
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_repayments (loan_id, repayment_type, repayment_dt, amount, remarks)
			VALUES ($1, $2, $3, $4, $5)`,
			loanID, rtype, r.RepaymentDt, r.Amount, r.Remarks,
		)
		if err != nil {
			return fmt.Errorf("insert repayment for loan %d: %w", loanID, err)
		}
	}
	return nil
}
