package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

var (
	oneHundred = decimal.NewFromInt(100)
)

// LineInput is one quotation line as seen by the calculator. The tariff
// percent is the value resolved from the item's HS code when the item was
// created, not re-looked-up here, so later duty changes never drift
// already-priced quotations.
type LineInput struct {
	UnitCost      decimal.Decimal
	Quantity      int64
	TariffPercent decimal.Decimal
	WeightKg      decimal.Decimal
	VolumeCbm     decimal.Decimal
}

// CalcSettings are the stored settings the rollup depends on. They are
// injected explicitly; the calculator never reads ambient state.
type CalcSettings struct {
	MarginPercent decimal.Decimal
	ExchangeRate  decimal.Decimal
	InsuranceRate decimal.Decimal
}

// Calculate runs the landed-cost pipeline over the given lines. The stage
// order is fixed: FOB subtotal, tariffs, international freight, insurance,
// nationalization (currency conversion), margin, grand total.
//
// It is a pure function: same inputs, bit-identical output, no side
// effects. Callers persist the result.
func Calculate(items []LineInput, incoterm Incoterm, settings CalcSettings, freight *FreightRate) (Breakdown, error) {
	if !incoterm.Known() {
		return Breakdown{}, fmt.Errorf("%w: unrecognised incoterm %q", shared.ErrValidation, incoterm)
	}
	// Presence of the margin/insurance settings is enforced where they are
	// resolved from the store; a zero exchange rate can never be priced.
	if settings.ExchangeRate.Sign() <= 0 {
		return Breakdown{}, fmt.Errorf("%w: %s", shared.ErrConfiguration, SettingExchangeRate)
	}

	var subtotal, tariffTotal, weight, volume decimal.Decimal
	for _, item := range items {
		if item.Quantity < 1 {
			return Breakdown{}, fmt.Errorf("%w: quantity must be at least 1", shared.ErrValidation)
		}
		if item.UnitCost.IsNegative() || item.TariffPercent.IsNegative() {
			return Breakdown{}, fmt.Errorf("%w: cost fields must be non-negative", shared.ErrValidation)
		}
		qty := decimal.NewFromInt(item.Quantity)
		gross := item.UnitCost.Mul(qty)
		subtotal = subtotal.Add(gross)
		tariffTotal = tariffTotal.Add(gross.Mul(item.TariffPercent).Div(oneHundred))
		weight = weight.Add(item.WeightKg.Mul(qty))
		volume = volume.Add(item.VolumeCbm.Mul(qty))
	}

	var freightIntl decimal.Decimal
	if incoterm.BuyerPaysFreight() {
		if freight == nil {
			return Breakdown{}, fmt.Errorf("%w: no freight rate for incoterm %s", shared.ErrLookup, incoterm)
		}
		freightIntl = freight.Charge(weight, volume)
	}

	insurance := subtotal.Mul(settings.InsuranceRate).Div(oneHundred)

	nationalization := subtotal.Add(tariffTotal).Add(freightIntl).Add(insurance).Mul(settings.ExchangeRate)
	margin := nationalization.Mul(settings.MarginPercent).Div(oneHundred)

	return Breakdown{
		SubtotalFOB:     subtotal,
		TariffTotal:     tariffTotal,
		FreightIntl:     freightIntl,
		Insurance:       insurance,
		Nationalization: nationalization,
		Margin:          margin,
		GrandTotal:      nationalization.Add(margin),
		ExchangeRate:    settings.ExchangeRate,
	}, nil
}

// Charge prices a shipment on the lane: the greater of the weight and
// volume charges, floored at the minimum charge.
func (f FreightRate) Charge(weightKg, volumeCbm decimal.Decimal) decimal.Decimal {
	byWeight := weightKg.Mul(f.RatePerKg)
	byVolume := volumeCbm.Mul(f.RatePerCbm)
	charge := byWeight
	if byVolume.GreaterThan(charge) {
		charge = byVolume
	}
	if f.MinimumCharge.GreaterThan(charge) {
		charge = f.MinimumCharge
	}
	return charge
}
