package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"lotledger/internal/core"
)

// Services bundles every core service behind one constructor so adapters and
// commands wire against a single value instead of eight pools.
type Services struct {
	Pool       *pgxpool.Pool
	Purchases  core.PurchaseService
	Sales      core.SaleService
	Processing core.ProcessingService
	Loans      core.LoanService
	Transfers  core.TransferService
	Rates      core.RateService
	Reference  core.ReferenceService
	Users      core.UserService
	Reporting  core.ReportingService
}

// New wires the full service graph over one connection pool.
func New(pool *pgxpool.Pool) *Services {
	purchases := core.NewPurchaseService(pool)
	return &Services{
		Pool:       pool,
		Purchases:  purchases,
		Sales:      core.NewSaleService(pool),
		Processing: core.NewProcessingService(pool),
		Loans:      core.NewLoanService(pool),
		Transfers:  core.NewTransferService(pool, purchases),
		Rates:      core.NewRateService(pool),
		Reference:  core.NewReferenceService(pool),
		Users:      core.NewUserService(pool),
		Reporting:  core.NewReportingService(pool),
	}
}
