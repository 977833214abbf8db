package core

import (
	"context"
	"time"
)

// UnitRef is the compact unit shape joined into rate rows.
type UnitRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Supplier is a trading party at a location. One party can act as both
// seller and beneficial owner of lots.
type Supplier struct {
	ID         int       `json:"id"`
	LocationID int       `json:"locationId"`
	Name       string    `json:"name"`
	MobileNo   *string   `json:"mobileNo"`
	Village    *string   `json:"village"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SupplierInput carries a supplier create or update.
type SupplierInput struct {
	LocationID int     `json:"locationId"`
	Name       string  `json:"name"`
	MobileNo   *string `json:"mobileNo"`
	Village    *string `json:"village"`
}

// Item is a traded commodity, shared across locations.
type Item struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Unit is a measurement unit for rate tables.
type Unit struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Location is one warehouse/branch. All ledger data is scoped to a location.
type Location struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   *string   `json:"address"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// NamedInput is the shared create/update shape for items, units and
// locations.
type NamedInput struct {
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	Address *string `json:"address"`
}

// ReferenceService owns the flat reference tables the ledgers point at.
type ReferenceService interface {
	CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error)
	UpdateSupplier(ctx context.Context, id int, input SupplierInput) (*Supplier, error)
	DeleteSupplier(ctx context.Context, id int) error
	GetSupplier(ctx context.Context, id int) (*Supplier, error)
	ListSuppliers(ctx context.Context, locationID int) ([]Supplier, error)

	CreateItem(ctx context.Context, input NamedInput) (*Item, error)
	UpdateItem(ctx context.Context, id int, input NamedInput) (*Item, error)
	DeleteItem(ctx context.Context, id int) error
	ListItems(ctx context.Context) ([]Item, error)

	CreateUnit(ctx context.Context, input NamedInput) (*Unit, error)
	UpdateUnit(ctx context.Context, id int, input NamedInput) (*Unit, error)
	DeleteUnit(ctx context.Context, id int) error
	ListUnits(ctx context.Context) ([]Unit, error)

	CreateLocation(ctx context.Context, input NamedInput) (*Location, error)
	UpdateLocation(ctx context.Context, id int, input NamedInput) (*Location, error)
	DeleteLocation(ctx context.Context, id int) error
	GetLocation(ctx context.Context, id int) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
}
