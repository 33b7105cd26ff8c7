package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type UpsertSettingRequest struct {
	Key          string          `json:"key" validate:"required,max=100"`
	Value        decimal.Decimal `json:"value" validate:"required"`
	IsPercentage bool            `json:"is_percentage"`
	Description  string          `json:"description" validate:"max=500"`
}

type CreateHSCodeRequest struct {
	Code        string          `json:"code" validate:"required,max=20"`
	Description string          `json:"description" validate:"required,max=500"`
	DutyRate    decimal.Decimal `json:"duty_rate"`
	Notes       *string         `json:"notes,omitempty"`
}

type UpdateHSCodeRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	DutyRate    decimal.Decimal `json:"duty_rate"`
	Notes       *string         `json:"notes,omitempty"`
}

type CreateFreightRateRequest struct {
	Origin        string          `json:"origin" validate:"required,max=100"`
	Destination   string          `json:"destination" validate:"required,max=100"`
	Incoterm      string          `json:"incoterm" validate:"omitempty,max=10"`
	RatePerKg     decimal.Decimal `json:"rate_per_kg"`
	RatePerCbm    decimal.Decimal `json:"rate_per_cbm"`
	MinimumCharge decimal.Decimal `json:"minimum_charge"`
	TransitDays   int             `json:"transit_days" validate:"gte=0"`
	ValidFrom     time.Time       `json:"valid_from" validate:"required"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
}
