package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type referenceService struct {
	pool *pgxpool.Pool
}

// NewReferenceService constructs a ReferenceService backed by PostgreSQL.
func NewReferenceService(pool *pgxpool.Pool) ReferenceService {
	return &referenceService{pool: pool}
}

func scanSupplier(row pgx.Row) (*Supplier, error) {
	sp := &Supplier{}
	err := row.Scan(&sp.ID, &sp.LocationID, &sp.Name, &sp.MobileNo,
		&sp.Village, &sp.IsActive, &sp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

const supplierColumns = "id, location_id, name, mobile_no, village, is_active, created_at"

func (s *referenceService) CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, BadRequestf("supplier name is required")
	}
	if input.LocationID == 0 {
		return nil, BadRequestf("locationId is required")
	}
	if err := s.checkSupplierDuplicate(ctx, input.LocationID, name, input.MobileNo, 0); err != nil {
		return nil, err
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (location_id, name, mobile_no, village)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		input.LocationID, name, input.MobileNo, input.Village,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("supplier with same name or mobile number already exists")
		}
		return nil, fmt.Errorf("insert supplier: %w", err)
	}
	return s.GetSupplier(ctx, id)
}

func (s *referenceService) UpdateSupplier(ctx context.Context, id int, input SupplierInput) (*Supplier, error) {
	current, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = current.Name
	}
	mobileNo := input.MobileNo
	if mobileNo == nil {
		mobileNo = current.MobileNo
	}
	village := input.Village
	if village == nil {
		village = current.Village
	}
	if err := s.checkSupplierDuplicate(ctx, current.LocationID, name, mobileNo, id); err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		"UPDATE suppliers SET name = $1, mobile_no = $2, village = $3 WHERE id = $4",
		name, mobileNo, village, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("supplier with same name or mobile number already exists")
		}
		return nil, fmt.Errorf("update supplier %d: %w", id, err)
	}
	return s.GetSupplier(ctx, id)
}

func (s *referenceService) DeleteSupplier(ctx context.Context, id int) error {
	if _, err := s.GetSupplier(ctx, id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		"UPDATE suppliers SET is_active = false WHERE id = $1", id,
	); err != nil {
		return fmt.Errorf("delete supplier %d: %w", id, err)
	}
	return nil
}

func (s *referenceService) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	sp, err := scanSupplier(s.pool.QueryRow(ctx,
		"SELECT "+supplierColumns+" FROM suppliers WHERE id = $1 AND is_active = true", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("supplier not found")
		}
		return nil, fmt.Errorf("get supplier %d: %w", id, err)
	}
	return sp, nil
}

func (s *referenceService) ListSuppliers(ctx context.Context, locationID int) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+supplierColumns+` FROM suppliers
		WHERE location_id = $1 AND is_active = true
		ORDER BY name`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	out := []Supplier{}
	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *referenceService) checkSupplierDuplicate(ctx context.Context, locationID int, name string, mobileNo *string, excludeID int) error {
	var byName bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM suppliers
			WHERE location_id = $1 AND lower(name) = lower($2)
			  AND is_active = true AND id <> $3
		)`,
		locationID, name, excludeID,
	).Scan(&byName)
	if err != nil {
		return fmt.Errorf("check supplier name: %w", err)
	}
	if byName {
		return Conflictf("supplier %q already exists at this location", name)
	}
	if mobileNo == nil || *mobileNo == "" {
		return nil
	}
	var byMobile bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM suppliers
			WHERE location_id = $1 AND mobile_no = $2
			  AND is_active = true AND id <> $3
		)`,
		locationID, *mobileNo, excludeID,
	).Scan(&byMobile)
	if err != nil {
		return fmt.Errorf("check supplier mobile: %w", err)
	}
	if byMobile {
		return Conflictf("supplier with mobile number %s already exists at this location", *mobileNo)
	}
	return nil
}

func (s *referenceService) CreateItem(ctx context.Context, input NamedInput) (*Item, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Code) == "" {
		return nil, BadRequestf("item name and code are required")
	}
	it := &Item{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO items (name, code)
		VALUES ($1, $2)
		RETURNING id, name, code, is_active, created_at`,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Code),
	).Scan(&it.ID, &it.Name, &it.Code, &it.IsActive, &it.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("item code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (s *referenceService) UpdateItem(ctx context.Context, id int, input NamedInput) (*Item, error) {
	it := &Item{}
	err := s.pool.QueryRow(ctx, `
		UPDATE items SET name = COALESCE(NULLIF($1, ''), name),
		                 code = COALESCE(NULLIF($2, ''), code)
		WHERE id = $3 AND is_active = true
		RETURNING id, name, code, is_active, created_at`,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Code), id,
	).Scan(&it.ID, &it.Name, &it.Code, &it.IsActive, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("item not found")
		}
		if isUniqueViolation(err) {
			return nil, Conflictf("item code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("update item %d: %w", id, err)
	}
	return it, nil
}

func (s *referenceService) DeleteItem(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE items SET is_active = false WHERE id = $1 AND is_active = true", id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("item not found")
	}
	return nil
}

func (s *referenceService) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, code, is_active, created_at FROM items WHERE is_active = true ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Code, &it.IsActive, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *referenceService) CreateUnit(ctx context.Context, input NamedInput) (*Unit, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Code) == "" {
		return nil, BadRequestf("unit name and code are required")
	}
	u := &Unit{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO units (name, code)
		VALUES ($1, $2)
		RETURNING id, name, code, is_active, created_at`,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Code),
	).Scan(&u.ID, &u.Name, &u.Code, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("unit code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("insert unit: %w", err)
	}
	return u, nil
}

func (s *referenceService) UpdateUnit(ctx context.Context, id int, input NamedInput) (*Unit, error) {
	u := &Unit{}
	err := s.pool.QueryRow(ctx, `
		UPDATE units SET name = COALESCE(NULLIF($1, ''), name),
		                 code = COALESCE(NULLIF($2, ''), code)
		WHERE id = $3 AND is_active = true
		RETURNING id, name, code, is_active, created_at`,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Code), id,
	).Scan(&u.ID, &u.Name, &u.Code, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("unit not found")
		}
		if isUniqueViolation(err) {
			return nil, Conflictf("unit code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("update unit %d: %w", id, err)
	}
	return u, nil
}

func (s *referenceService) DeleteUnit(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE units SET is_active = false WHERE id = $1 AND is_active = true", id)
	if err != nil {
		return fmt.Errorf("delete unit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("unit not found")
	}
	return nil
}

func (s *referenceService) ListUnits(ctx context.Context) ([]Unit, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, code, is_active, created_at FROM units WHERE is_active = true ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	out := []Unit{}
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Code, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *referenceService) CreateLocation(ctx context.Context, input NamedInput) (*Location, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Code) == "" {
		return nil, BadRequestf("location name and code are required")
	}
	l := &Location{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO locations (name, code, address)
		VALUES ($1, $2, $3)
		RETURNING id, name, code, address, is_active, created_at`,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Code), input.Address,
	).Scan(&l.ID, &l.Name, &l.Code, &l.Address, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("location code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("insert location: %w", err)
	}
	return l, nil
}

func (s *referenceService) UpdateLocation(ctx context.Context, id int, input NamedInput) (*Location, error) {
	l := &Location{}
	err := s.pool.QueryRow(ctx, `
		UPDATE locations SET name = COALESCE(NULLIF($1, ''), name),
		                     code = COALESCE(NULLIF($2, ''), code),
		                     address = COALESCE($3, address)
		WHERE id = $4 AND is_active = true
		RETURNING id, name, code, address, is_active, created_at`,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Code), input.Address, id,
	).Scan(&l.ID, &l.Name, &l.Code, &l.Address, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("location not found")
		}
		if isUniqueViolation(err) {
			return nil, Conflictf("location code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("update location %d: %w", id, err)
	}
	return l, nil
}

func (s *referenceService) DeleteLocation(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE locations SET is_active = false WHERE id = $1 AND is_active = true", id)
	if err != nil {
		return fmt.Errorf("delete location %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("location not found")
	}
	return nil
}

func (s *referenceService) GetLocation(ctx context.Context, id int) (*Location, error) {
	l := &Location{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, code, address, is_active, created_at
		FROM locations WHERE id = $1 AND is_active = true`, id,
	).Scan(&l.ID, &l.Name, &l.Code, &l.Address, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("location not found")
		}
		return nil, fmt.Errorf("get location %d: %w", id, err)
	}
	return l, nil
}

func (s *referenceService) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, code, address, is_active, created_at FROM locations WHERE is_active = true ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := []Location{}
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.Address, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
