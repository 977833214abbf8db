package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Loan is an advance taken against a purchase. payRecd and netDues are
// always derived from the loan's active repayments; repaymentDt mirrors the
// latest active repayment date.
type Loan struct {
	ID          int             `json:"id"`
	PurchaseID  int             `json:"purchaseId"`
	LoanDt      string          `json:"loanDt"`
	LoanAmount  decimal.Decimal `json:"loanAmount"`
	RepaymentDt *string         `json:"repaymentDt"`
	Interest    decimal.Decimal `json:"interest"`
	PayRecd     decimal.Decimal `json:"payRecd"`
	NetDues     decimal.Decimal `json:"netDues"`
	Remarks     *string         `json:"remarks"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`

	Repayments []LoanRepayment `json:"repayments"`
}

// LoanRepayment is one payment made against a loan.
type LoanRepayment struct {
	ID            int             `json:"id"`
	LoanID        int             `json:"loanId"`
	RepaymentType string          `json:"repaymentType"`
	RepaymentDt   string          `json:"repaymentDt"`
	Amount        decimal.Decimal `json:"amount"`
	Remarks       *string         `json:"remarks"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// RepaymentInput is one repayment in a submitted set. Entries with a zero or
// negative amount are ignored.
type RepaymentInput struct {
	RepaymentType string          `json:"repaymentType"`
	RepaymentDt   string          `json:"repaymentDt"`
	Amount        decimal.Decimal `json:"amount"`
	Remarks       *string         `json:"remarks"`
}

// LoanInput carries a new loan. When Repayments is non-nil, payRecd and
// repaymentDt derive from the set rather than the submitted values.
type LoanInput struct {
	PurchaseID int              `json:"purchaseId"`
	LoanDt     string           `json:"loanDt"`
	LoanAmount decimal.Decimal  `json:"loanAmount"`
	Interest   decimal.Decimal  `json:"interest"`
	PayRecd    decimal.Decimal  `json:"payRecd"`
	Remarks    *string          `json:"remarks"`
	Repayments []RepaymentInput `json:"repayments"`
}

// LoanPatch carries a partial loan update. Nil fields keep the stored
// values; a non-nil Repayments set replaces the stored set wholesale.
type LoanPatch struct {
	LoanDt     *string          `json:"loanDt"`
	LoanAmount *decimal.Decimal `json:"loanAmount"`
	Interest   *decimal.Decimal `json:"interest"`
	Remarks    *string          `json:"remarks"`
	Repayments []RepaymentInput `json:"repayments"`
}

// SummarizeRepayments drops non-positive amounts, then returns the surviving
// entries plus the totals a loan derives from them: payRecd as the sum of
// amounts and repaymentDt as the latest date.
func SummarizeRepayments(repayments []RepaymentInput) (kept []RepaymentInput, payRecd decimal.Decimal, latestDt *string) {
	for _, r := range repayments {
		if !r.Amount.IsPositive() {
			continue
		}
		kept = append(kept, r)
		payRecd = payRecd.Add(r.Amount)
		if latestDt == nil || r.RepaymentDt > *latestDt {
			d := r.RepaymentDt
			latestDt = &d
		}
	}
	return kept, payRecd, latestDt
}

// NetDues computes the outstanding balance of a loan.
func NetDues(loanAmount, interest, payRecd decimal.Decimal) decimal.Decimal {
	return loanAmount.Add(interest).Sub(payRecd)
}

// LoanService owns the loan ledger and its repayment sub-records.
type LoanService interface {
	Create(ctx context.Context, input LoanInput) (*Loan, error)
	Update(ctx context.Context, id int, patch LoanPatch) (*Loan, error)
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*Loan, error)
	GetByPurchase(ctx context.Context, purchaseID int) ([]Loan, error)
	GetAll(ctx context.Context, locationID, year int) ([]Loan, error)
}
