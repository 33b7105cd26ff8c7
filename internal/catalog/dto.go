package catalog

import "github.com/shopspring/decimal"

type SupplierRequest struct {
	Code            string `json:"code" validate:"required,max=32"`
	Name            string `json:"name" validate:"required,max=255"`
	Country         string `json:"country" validate:"omitempty,max=64"`
	ContactEmail    string `json:"contact_email" validate:"omitempty,email"`
	DefaultIncoterm string `json:"default_incoterm" validate:"omitempty,max=8"`
	IsActive        *bool  `json:"is_active"`
}

type TaxonomyRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Slug        string `json:"slug" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
}

type ProductRequest struct {
	SKU        string          `json:"sku" validate:"required,max=64"`
	Name       string          `json:"name" validate:"required,max=255"`
	SupplierID int64           `json:"supplier_id" validate:"required,gt=0"`
	CategoryID *int64          `json:"category_id"`
	NicheID    *int64          `json:"niche_id"`
	HSCode     *string         `json:"hs_code" validate:"omitempty,max=20"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	VolumeCbm  decimal.Decimal `json:"volume_cbm"`
	TagIDs     []int64         `json:"tag_ids"`
	IsActive   *bool           `json:"is_active"`
}

type PortfolioRequest struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Description string  `json:"description" validate:"omitempty,max=512"`
	ProductIDs  []int64 `json:"product_ids"`
}
