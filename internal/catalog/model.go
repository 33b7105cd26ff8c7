package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a sourcing counterparty.
type Supplier struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Country         string    `json:"country"`
	ContactEmail    *string   `json:"contact_email,omitempty"`
	DefaultIncoterm string    `json:"default_incoterm"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Taxonomy is a named classification: categories, tags and niches share
// the same shape and differ only in the relation they live in.
type Taxonomy struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaxonomyKind selects the backing relation for taxonomy CRUD.
type TaxonomyKind string

const (
	KindCategory TaxonomyKind = "categories"
	KindTag      TaxonomyKind = "tags"
	KindNiche    TaxonomyKind = "niches"
)

func (k TaxonomyKind) Valid() bool {
	return k == KindCategory || k == KindTag || k == KindNiche
}

// Product is a catalog entry. Unit cost is the supplier buy price in the
// source currency; weight and volume feed freight pricing.
type Product struct {
	ID         int64           `json:"id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	SupplierID int64           `json:"supplier_id"`
	CategoryID *int64          `json:"category_id,omitempty"`
	NicheID    *int64          `json:"niche_id,omitempty"`
	HSCode     *string         `json:"hs_code,omitempty"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	VolumeCbm  decimal.Decimal `json:"volume_cbm"`
	TagIDs     []int64         `json:"tag_ids,omitempty"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Portfolio is a curated selection of products.
type Portfolio struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ProductIDs  []int64   `json:"product_ids"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
