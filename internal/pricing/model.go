package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Incoterm is an international commercial delivery term. It determines
// which cost stages the buyer carries in a landed-cost rollup.
type Incoterm string

const (
	IncotermFOB Incoterm = "FOB"
	IncotermEXW Incoterm = "EXW"
	IncotermCIF Incoterm = "CIF"
	IncotermCFR Incoterm = "CFR"
	IncotermDDP Incoterm = "DDP"
)

// Known reports whether the incoterm is one the calculator recognises.
func (i Incoterm) Known() bool {
	switch i {
	case IncotermFOB, IncotermEXW, IncotermCIF, IncotermCFR, IncotermDDP:
		return true
	}
	return false
}

// BuyerPaysFreight reports whether international freight must be priced
// by the system. Under CIF/CFR/DDP freight is already included upstream.
func (i Incoterm) BuyerPaysFreight() bool {
	return i == IncotermFOB || i == IncotermEXW
}

// Setting keys required by the calculator. Seeded on first use,
// updatable by admins, never deleted.
const (
	SettingMarginPercentage  = "margin_percentage"
	SettingExchangeRate      = "exchange_rate"
	SettingInsuranceRate     = "insurance_rate"
	SettingQuoteValidityDays = "quote_validity_days"
)

// Setting is a keyed pricing configuration value.
type Setting struct {
	Key          string          `json:"key"`
	Value        decimal.Decimal `json:"value"`
	IsPercentage bool            `json:"is_percentage"`
	Description  string          `json:"description"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HSCode is a Harmonized System tariff classification. The code is
// immutable identity; the duty rate may be updated over time.
type HSCode struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	DutyRate    decimal.Decimal `json:"duty_rate"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FreightRate prices an origin/destination lane. Several rates may
// coexist per lane across time; resolution picks the active one whose
// validity window covers the lookup date, preferring an exact incoterm
// match over a lane-generic rate (empty incoterm).
type FreightRate struct {
	ID            int64           `json:"id"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	Incoterm      Incoterm        `json:"incoterm"`
	RatePerKg     decimal.Decimal `json:"rate_per_kg"`
	RatePerCbm    decimal.Decimal `json:"rate_per_cbm"`
	MinimumCharge decimal.Decimal `json:"minimum_charge"`
	TransitDays   int             `json:"transit_days"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Breakdown carries every intermediate stage of the landed-cost rollup.
// Downstream audit and PDF rendering need each stage, so none are
// collapsed. Values keep full precision; rounding to 2 decimals happens
// at storage and display points.
type Breakdown struct {
	SubtotalFOB     decimal.Decimal `json:"subtotal_fob"`
	TariffTotal     decimal.Decimal `json:"tariff_total"`
	FreightIntl     decimal.Decimal `json:"freight_intl"`
	Insurance       decimal.Decimal `json:"insurance"`
	Nationalization decimal.Decimal `json:"nationalization"`
	Margin          decimal.Decimal `json:"margin"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Currency        string          `json:"currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
}

// Rounded returns a copy with every stage rounded to currency precision.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		SubtotalFOB:     RoundMoney(b.SubtotalFOB),
		TariffTotal:     RoundMoney(b.TariffTotal),
		FreightIntl:     RoundMoney(b.FreightIntl),
		Insurance:       RoundMoney(b.Insurance),
		Nationalization: RoundMoney(b.Nationalization),
		Margin:          RoundMoney(b.Margin),
		GrandTotal:      RoundMoney(b.GrandTotal),
		Currency:        b.Currency,
		ExchangeRate:    b.ExchangeRate,
	}
}

// RoundMoney rounds to 2 decimal places, half away from zero. Monetary
// amounts here are non-negative so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
