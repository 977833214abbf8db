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

// RateKind names one of the per-item rate tables.
type RateKind string

const (
	RateRent      RateKind = "rent"
	RateLoading   RateKind = "loading"
	RateUnloading RateKind = "unloading"
	RateTaiyari   RateKind = "taiyari"
)

func (k RateKind) table() (string, error) {
	switch k {
	case RateRent:
		return "rent_rates", nil
	case RateLoading:
		return "loading_rates", nil
	case RateUnloading:
		return "unloading_rates", nil
	case RateTaiyari:
		return "taiyari_rates", nil
	}
	return "", BadRequestf("unknown rate kind %q", string(k))
}

// Rate is one per-item charge. At most one active row exists per
// (location, item, unit) in each table.
type Rate struct {
	ID         int             `json:"id"`
	LocationID int             `json:"locationId"`
	ItemID     int             `json:"itemId"`
	UnitID     int             `json:"unitId"`
	Rate       decimal.Decimal `json:"rate"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`

	Item *ItemRef `json:"item,omitempty"`
	Unit *UnitRef `json:"unit,omitempty"`
}

// RateInput carries a rate create or update.
type RateInput struct {
	LocationID int             `json:"locationId"`
	ItemID     int             `json:"itemId"`
	UnitID     int             `json:"unitId"`
	Rate       decimal.Decimal `json:"rate"`
}

// InterestRate is the location's single active lending rate.
type InterestRate struct {
	ID         int             `json:"id"`
	LocationID int             `json:"locationId"`
	Rate       decimal.Decimal `json:"rate"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// RateService owns the per-item rate tables and the per-location interest
// rate.
type RateService interface {
	Create(ctx context.Context, kind RateKind, input RateInput) (*Rate, error)
	Update(ctx context.Context, kind RateKind, id int, input RateInput) (*Rate, error)
	Delete(ctx context.Context, kind RateKind, id int) error
	Get(ctx context.Context, kind RateKind, id int) (*Rate, error)
	List(ctx context.Context, kind RateKind, locationID int) ([]Rate, error)
	FindActive(ctx context.Context, kind RateKind, locationID, itemID int) (decimal.Decimal, error)

	SetInterestRate(ctx context.Context, locationID int, rate decimal.Decimal) (*InterestRate, error)
	GetInterestRate(ctx context.Context, locationID int) (*InterestRate, error)
}

type rateService struct {
	pool *pgxpool.Pool
}

// NewRateService constructs a RateService backed by PostgreSQL.
func NewRateService(pool *pgxpool.Pool) RateService {
	return &rateService{pool: pool}
}

func (s *rateService) Create(ctx context.Context, kind RateKind, input RateInput) (*Rate, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	if input.LocationID == 0 || input.ItemID == 0 || input.UnitID == 0 {
		return nil, BadRequestf("locationId, itemId and unitId are required")
	}

	var id int
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (location_id, item_id, unit_id, rate)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, table),
		input.LocationID, input.ItemID, input.UnitID, input.Rate,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("an active %s rate already exists for this item and unit", string(kind))
		}
		return nil, fmt.Errorf("insert %s rate: %w", string(kind), err)
	}
	return s.Get(ctx, kind, id)
}

func (s *rateService) Update(ctx context.Context, kind RateKind, id int, input RateInput) (*Rate, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	itemID := current.ItemID
	if input.ItemID != 0 {
		itemID = input.ItemID
	}
	unitID := current.UnitID
	if input.UnitID != 0 {
		unitID = input.UnitID
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET item_id = $1, unit_id = $2, rate = $3 WHERE id = $4", table),
		itemID, unitID, input.Rate, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("an active %s rate already exists for this item and unit", string(kind))
		}
		return nil, fmt.Errorf("update %s rate %d: %w", string(kind), id, err)
	}
	return s.Get(ctx, kind, id)
}

func (s *rateService) Delete(ctx context.Context, kind RateKind, id int) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET is_active = false WHERE id = $1", table), id,
	); err != nil {
		return fmt.Errorf("delete %s rate %d: %w", string(kind), id, err)
	}
	return nil
}

func (s *rateService) Get(ctx context.Context, kind RateKind, id int) (*Rate, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	r := &Rate{}
	var item ItemRef
	var unit UnitRef
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT r.id, r.location_id, r.item_id, r.unit_id, r.rate, r.is_active, r.created_at,
		       i.id, i.name, i.code, u.id, u.name
		FROM %s r
		JOIN items i ON i.id = r.item_id
		JOIN units u ON u.id = r.unit_id
		WHERE r.id = $1 AND r.is_active = true`, table),
		id,
	).Scan(&r.ID, &r.LocationID, &r.ItemID, &r.UnitID, &r.Rate, &r.IsActive, &r.CreatedAt,
		&item.ID, &item.Name, &item.Code, &unit.ID, &unit.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("%s rate not found", string(kind))
		}
		return nil, fmt.Errorf("get %s rate %d: %w", string(kind), id, err)
	}
	r.Item = &item
	r.Unit = &unit
	return r, nil
}

func (s *rateService) List(ctx context.Context, kind RateKind, locationID int) ([]Rate, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT r.id, r.location_id, r.item_id, r.unit_id, r.rate, r.is_active, r.created_at,
		       i.id, i.name, i.code, u.id, u.name
		FROM %s r
		JOIN items i ON i.id = r.item_id
		JOIN units u ON u.id = r.unit_id
		WHERE r.location_id = $1 AND r.is_active = true
		ORDER BY i.name`, table),
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s rates: %w", string(kind), err)
	}
	defer rows.Close()

	out := []Rate{}
	for rows.Next() {
		var r Rate
		var item ItemRef
		var unit UnitRef
		err := rows.Scan(&r.ID, &r.LocationID, &r.ItemID, &r.UnitID, &r.Rate, &r.IsActive, &r.CreatedAt,
			&item.ID, &item.Name, &item.Code, &unit.ID, &unit.Name)
		if err != nil {
			return nil, fmt.Errorf("scan %s rate: %w", string(kind), err)
		}
		r.Item = &item
		r.Unit = &unit
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindActive returns the active rate for an item at a location, or zero when
// none is configured.
func (s *rateService) FindActive(ctx context.Context, kind RateKind, locationID, itemID int) (decimal.Decimal, error) {
	table, err := kind.table()
	if err != nil {
		return decimal.Zero, err
	}
	var rate decimal.Decimal
	err = s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT rate FROM %s WHERE location_id = $1 AND item_id = $2 AND is_active = true", table),
		locationID, itemID,
	).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("find %s rate: %w", string(kind), err)
	}
	return rate, nil
}

// SetInterestRate upserts the location's single active interest rate.
func (s *rateService) SetInterestRate(ctx context.Context, locationID int, rate decimal.Decimal) (*InterestRate, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE interest_rates SET is_active = false WHERE location_id = $1 AND is_active = true",
		locationID,
	); err != nil {
		return nil, fmt.Errorf("retire interest rate: %w", err)
	}

	ir := &InterestRate{}
	err = tx.QueryRow(ctx, `
		INSERT INTO interest_rates (location_id, rate)
		VALUES ($1, $2)
		RETURNING id, location_id, rate, is_active, created_at`,
		locationID, rate,
	).Scan(&ir.ID, &ir.LocationID, &ir.Rate, &ir.IsActive, &ir.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert interest rate: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit interest rate: %w", err)
	}
	return ir, nil
}

func (s *rateService) GetInterestRate(ctx context.Context, locationID int) (*InterestRate, error) {
	ir := &InterestRate{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, location_id, rate, is_active, created_at
		FROM interest_rates
		WHERE location_id = $1 AND is_active = true`,
		locationID,
	).Scan(&ir.ID, &ir.LocationID, &ir.Rate, &ir.IsActive, &ir.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("interest rate not configured")
		}
		return nil, fmt.Errorf("get interest rate: %w", err)
	}
	return ir, nil
}

// itemRates holds the per-item charge rates of one location, keyed by item
// id, for display alongside sale figures.
type itemRates struct {
	unloading map[int]decimal.Decimal
	taiyari   map[int]decimal.Decimal
	rent      map[int]decimal.Decimal
}

func loadItemRates(ctx context.Context, pool *pgxpool.Pool, locationID int) (*itemRates, error) {
	r := &itemRates{
		unloading: map[int]decimal.Decimal{},
		taiyari:   map[int]decimal.Decimal{},
		rent:      map[int]decimal.Decimal{},
	}
	for _, src := range []struct {
		table string
		dst   map[int]decimal.Decimal
	}{
		{"unloading_rates", r.unloading},
		{"taiyari_rates", r.taiyari},
		{"rent_rates", r.rent},
	} {
		rows, err := pool.Query(ctx, fmt.Sprintf(
			"SELECT item_id, rate FROM %s WHERE location_id = $1 AND is_active = true", src.table),
			locationID,
		)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.table, err)
		}
		for rows.Next() {
			var itemID int
			var rate decimal.Decimal
			if err := rows.Scan(&itemID, &rate); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", src.table, err)
			}
			src.dst[itemID] = rate
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return r, nil
}
