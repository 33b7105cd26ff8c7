package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareTokens signs and verifies quotation share tokens. The auth
// package implements it with the same signing mechanism used for user
// session tokens, with a distinct claim shape.
type ShareTokens interface {
	IssueShareToken(quotationID int64, ttl time.Duration) (token string, expiresAt time.Time, err error)
	VerifyShareToken(token string) (quotationID int64, err error)
}

// PublicItem is the redacted line projection for share links. Internal
// cost fields (unit cost, markup, tariff detail) are not exposed.
type PublicItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	SortOrder   int             `json:"-"`
}

// PublicQuotation is the read-only projection served to share-link
// visitors: prices and totals only, no cost breakdown.
type PublicQuotation struct {
	Number          string          `json:"quotation_number"`
	ClientName      string          `json:"client_name"`
	Status          Status          `json:"status"`
	Incoterm        string          `json:"incoterm"`
	Currency        string          `json:"currency"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	FreightCost     decimal.Decimal `json:"freight_cost"`
	InsuranceCost   decimal.Decimal `json:"insurance_cost"`
	OtherCosts      decimal.Decimal `json:"other_costs"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	ValidUntil      time.Time       `json:"valid_until"`
	Items           []PublicItem    `json:"items"`
}

// Public builds the redacted projection of a quotation snapshot.
func (q *Quotation) Public() PublicQuotation {
	items := make([]PublicItem, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, PublicItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
			SortOrder:   it.SortOrder,
		})
	}
	return PublicQuotation{
		Number:          q.Number,
		ClientName:      q.ClientName,
		Status:          q.Status,
		Incoterm:        string(q.Incoterm),
		Currency:        q.Currency,
		Subtotal:        q.Subtotal,
		FreightCost:     q.FreightCost,
		InsuranceCost:   q.InsuranceCost,
		OtherCosts:      q.OtherCosts,
		DiscountPercent: q.DiscountPercent,
		DiscountAmount:  q.DiscountAmount,
		GrandTotal:      q.GrandTotal,
		ValidUntil:      q.ValidUntil,
		Items:           items,
	}
}
