package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StatBlock is one row of the dashboard: a bag count, a total weight and a
// total amount.
type StatBlock struct {
	Bags   int             `json:"bags"`
	Weight decimal.Decimal `json:"weight"`
	Amount decimal.Decimal `json:"amount"`
}

// DashboardStats summarizes a location's year at a glance. Stock is the
// difference between what was bought and what was sold.
type DashboardStats struct {
	Purchase StatBlock `json:"purchase"`
	Sales    StatBlock `json:"sales"`
	Stock    StatBlock `json:"stock"`
}

// ReportingService provides read-only aggregates over the ledgers.
type ReportingService interface {
	// GetStats aggregates purchase, sale and stock figures. Nil filters mean
	// all locations or all years.
	GetStats(ctx context.Context, locationID, year *int) (*DashboardStats, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by PostgreSQL.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) GetStats(ctx context.Context, locationID, year *int) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(no_of_packet), 0),
		       COALESCE(SUM(net_wt), 0),
		       COALESCE(SUM(total_cost), 0)
		FROM purchases
		WHERE is_active = true
		  AND ($1::int IS NULL OR location_id = $1)
		  AND ($2::int IS NULL OR year = $2)`,
		locationID, year,
	).Scan(&stats.Purchase.Bags, &stats.Purchase.Weight, &stats.Purchase.Amount)
	if err != nil {
		return nil, fmt.Errorf("aggregate purchases: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(sa.sale_pkt), 0),
		       COALESCE(SUM(sa.sale_wt), 0),
		       COALESCE(SUM(sa.amount), 0)
		FROM sales sa
		JOIN purchases p ON p.id = sa.purchase_id
		WHERE sa.is_active = true AND p.is_active = true
		  AND ($1::int IS NULL OR p.location_id = $1)
		  AND ($2::int IS NULL OR p.year = $2)`,
		locationID, year,
	).Scan(&stats.Sales.Bags, &stats.Sales.Weight, &stats.Sales.Amount)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}

	stats.Stock = StatBlock{
		Bags:   stats.Purchase.Bags - stats.Sales.Bags,
		Weight: stats.Purchase.Weight.Sub(stats.Sales.Weight),
		Amount: stats.Purchase.Amount.Sub(stats.Sales.Amount),
	}
	return stats, nil
}
