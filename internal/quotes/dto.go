package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateQuotationRequest struct {
	ClientName      string          `json:"client_name" validate:"required,max=200"`
	ClientReference *string         `json:"client_reference,omitempty" validate:"omitempty,max=100"`
	Incoterm        string          `json:"incoterm" validate:"required,max=10"`
	Currency        string          `json:"currency" validate:"omitempty,len=3"`
	LocalCurrency   string          `json:"local_currency" validate:"omitempty,len=3"`
	Origin          string          `json:"origin" validate:"required,max=100"`
	Destination     string          `json:"destination" validate:"required,max=100"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Notes           *string         `json:"notes,omitempty"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
}

type UpdateQuotationRequest struct {
	ClientName      *string          `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientReference *string          `json:"client_reference,omitempty" validate:"omitempty,max=100"`
	Incoterm        *string          `json:"incoterm,omitempty" validate:"omitempty,max=10"`
	Origin          *string          `json:"origin,omitempty" validate:"omitempty,max=100"`
	Destination     *string          `json:"destination,omitempty" validate:"omitempty,max=100"`
	OtherCosts      *decimal.Decimal `json:"other_costs,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	ValidUntil      *time.Time       `json:"valid_until,omitempty"`
}

type ItemRequest struct {
	ProductID     *int64          `json:"product_id,omitempty"`
	Description   string          `json:"description" validate:"required,max=500"`
	HSCode        *string         `json:"hs_code,omitempty" validate:"omitempty,max=20"`
	Quantity      int64           `json:"quantity" validate:"required,gte=1"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MarkupPercent decimal.Decimal `json:"markup_percent"`
	FreightAmount decimal.Decimal `json:"freight_amount"`
	WeightKg      decimal.Decimal `json:"weight_kg"`
	VolumeCbm     decimal.Decimal `json:"volume_cbm"`
	SortOrder     int             `json:"sort_order" validate:"gte=0"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent accepted rejected expired"`
}

type ShareTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QuotationResponse is the full representation for authenticated callers.
type QuotationResponse struct {
	Quotation
	ItemCount int `json:"item_count"`
}

func NewQuotationResponse(q *Quotation) QuotationResponse {
	return QuotationResponse{Quotation: *q, ItemCount: len(q.Items)}
}
