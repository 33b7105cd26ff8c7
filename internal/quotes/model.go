package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cotizo-erp/cotizo/internal/pricing"
)

// Quotation is the aggregate root. Header totals are always recomputed
// from items, never hand-edited while items exist, and live in the
// quotation currency. The landed-cost breakdown is stored alongside in
// the destination currency for audit and PDF rendering.
type Quotation struct {
	ID              int64            `json:"id"`
	Number          string           `json:"quotation_number"`
	ClientName      string           `json:"client_name"`
	ClientReference *string          `json:"client_reference,omitempty"`
	Status          Status           `json:"status"`
	Incoterm        pricing.Incoterm `json:"incoterm"`
	Currency        string           `json:"currency"`
	LocalCurrency   string           `json:"local_currency"`
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`

	Subtotal        decimal.Decimal `json:"subtotal"`
	FreightCost     decimal.Decimal `json:"freight_cost"`
	InsuranceCost   decimal.Decimal `json:"insurance_cost"`
	OtherCosts      decimal.Decimal `json:"other_costs"`
	Total           decimal.Decimal `json:"total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`

	Breakdown pricing.Breakdown `json:"breakdown"`

	Notes      *string    `json:"notes,omitempty"`
	ValidUntil time.Time  `json:"valid_until"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Items []Item `json:"items,omitempty"`
}

// Item is a quotation line. It belongs to exactly one quotation and is
// cascade-deleted with it. The tariff percent is snapshotted from the HS
// code when the item is created so later duty changes never reprice an
// existing quotation.
type Item struct {
	ID            int64           `json:"id"`
	QuotationID   int64           `json:"quotation_id"`
	ProductID     *int64          `json:"product_id,omitempty"`
	Description   string          `json:"description"`
	HSCode        *string         `json:"hs_code,omitempty"`
	Quantity      int64           `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MarkupPercent decimal.Decimal `json:"markup_percent"`
	TariffPercent decimal.Decimal `json:"tariff_percent"`
	TariffAmount  decimal.Decimal `json:"tariff_amount"`
	FreightAmount decimal.Decimal `json:"freight_amount"`
	WeightKg      decimal.Decimal `json:"weight_kg"`
	VolumeCbm     decimal.Decimal `json:"volume_cbm"`
	LineTotal     decimal.Decimal `json:"line_total"`
	SortOrder     int             `json:"sort_order"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ComputeDerived fills the amounts that follow from the item's own
// fields: sell price from markup when not given, tariff amount from the
// snapshotted percent, and the line total.
func (it *Item) ComputeDerived() {
	qty := decimal.NewFromInt(it.Quantity)
	if it.UnitPrice.IsZero() && !it.MarkupPercent.IsZero() {
		it.UnitPrice = it.UnitCost.Mul(decimal.NewFromInt(100).Add(it.MarkupPercent)).Div(decimal.NewFromInt(100))
	}
	it.TariffAmount = pricing.RoundMoney(it.UnitCost.Mul(qty).Mul(it.TariffPercent).Div(decimal.NewFromInt(100)))
	it.UnitPrice = pricing.RoundMoney(it.UnitPrice)
	it.LineTotal = pricing.RoundMoney(it.UnitPrice.Mul(qty).Add(it.TariffAmount).Add(it.FreightAmount))
}
