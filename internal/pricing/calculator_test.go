package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func referenceSettings() CalcSettings {
	return CalcSettings{
		MarginPercent: dec("20"),
		ExchangeRate:  dec("4200"),
		InsuranceRate: dec("1.8"),
	}
}

func referenceItems() []LineInput {
	return []LineInput{
		{UnitCost: dec("50"), Quantity: 10, TariffPercent: dec("10"), WeightKg: dec("1"), VolumeCbm: dec("0.01")},
		{UnitCost: dec("100"), Quantity: 5, TariffPercent: dec("0"), WeightKg: dec("2"), VolumeCbm: dec("0.02")},
	}
}

func referenceFreight() *FreightRate {
	return &FreightRate{
		Origin:        "CN",
		Destination:   "CO",
		RatePerKg:     dec("2"),
		RatePerCbm:    dec("100"),
		MinimumCharge: dec("120"),
	}
}

func TestCalculateReferenceScenario(t *testing.T) {
	breakdown, err := Calculate(referenceItems(), IncotermFOB, referenceSettings(), referenceFreight())
	require.NoError(t, err)

	rounded := breakdown.Rounded()
	assert.Equal(t, "1000.00", rounded.SubtotalFOB.StringFixed(2))
	assert.Equal(t, "50.00", rounded.TariffTotal.StringFixed(2))
	// 20 kg at 2/kg = 40 and 0.2 cbm at 100/cbm = 20 are both under the
	// 120 minimum, so the floor wins.
	assert.Equal(t, "120.00", rounded.FreightIntl.StringFixed(2))
	assert.Equal(t, "18.00", rounded.Insurance.StringFixed(2))
	// (1000 + 50 + 120 + 18) * 4200
	assert.Equal(t, "4989600.00", rounded.Nationalization.StringFixed(2))
	assert.Equal(t, "997920.00", rounded.Margin.StringFixed(2))
	assert.Equal(t, "5987520.00", rounded.GrandTotal.StringFixed(2))
}

func TestCalculateOrderIndependent(t *testing.T) {
	items := referenceItems()
	reversed := []LineInput{items[1], items[0]}

	a, err := Calculate(items, IncotermFOB, referenceSettings(), referenceFreight())
	require.NoError(t, err)
	b, err := Calculate(reversed, IncotermFOB, referenceSettings(), referenceFreight())
	require.NoError(t, err)

	assert.True(t, a.SubtotalFOB.Equal(b.SubtotalFOB))
	assert.True(t, a.GrandTotal.Equal(b.GrandTotal))
}

func TestCalculateIdempotent(t *testing.T) {
	a, err := Calculate(referenceItems(), IncotermFOB, referenceSettings(), referenceFreight())
	require.NoError(t, err)
	b, err := Calculate(referenceItems(), IncotermFOB, referenceSettings(), referenceFreight())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculateSellerPaidFreight(t *testing.T) {
	for _, incoterm := range []Incoterm{IncotermCIF, IncotermCFR, IncotermDDP} {
		breakdown, err := Calculate(referenceItems(), incoterm, referenceSettings(), nil)
		require.NoError(t, err, "incoterm %s", incoterm)
		assert.True(t, breakdown.FreightIntl.IsZero(), "incoterm %s", incoterm)
		// Insurance still applies.
		assert.Equal(t, "18.00", breakdown.Insurance.StringFixed(2))
	}
}

func TestCalculateMissingFreightRate(t *testing.T) {
	_, err := Calculate(referenceItems(), IncotermFOB, referenceSettings(), nil)
	assert.ErrorIs(t, err, shared.ErrLookup)

	_, err = Calculate(referenceItems(), IncotermEXW, referenceSettings(), nil)
	assert.ErrorIs(t, err, shared.ErrLookup)
}

func TestCalculateInvalidExchangeRate(t *testing.T) {
	settings := referenceSettings()
	settings.ExchangeRate = decimal.Zero
	_, err := Calculate(referenceItems(), IncotermCIF, settings, nil)
	assert.ErrorIs(t, err, shared.ErrConfiguration)

	settings.ExchangeRate = dec("-1")
	_, err = Calculate(referenceItems(), IncotermCIF, settings, nil)
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestCalculateRejectsBadLines(t *testing.T) {
	items := referenceItems()
	items[0].Quantity = 0
	_, err := Calculate(items, IncotermCIF, referenceSettings(), nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	items = referenceItems()
	items[1].UnitCost = dec("-5")
	_, err = Calculate(items, IncotermCIF, referenceSettings(), nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCalculateUnknownIncoterm(t *testing.T) {
	_, err := Calculate(referenceItems(), Incoterm("FCA"), referenceSettings(), nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCalculateEmptyItems(t *testing.T) {
	breakdown, err := Calculate(nil, IncotermCIF, referenceSettings(), nil)
	require.NoError(t, err)
	assert.True(t, breakdown.SubtotalFOB.IsZero())
	assert.True(t, breakdown.GrandTotal.IsZero())
}

func TestFreightChargePicksGreater(t *testing.T) {
	rate := FreightRate{RatePerKg: dec("1"), RatePerCbm: dec("200"), MinimumCharge: dec("10")}

	// Weight-bound shipment.
	charge := rate.Charge(dec("500"), dec("0.5"))
	assert.Equal(t, "500", charge.String())

	// Volume-bound shipment.
	charge = rate.Charge(dec("50"), dec("2"))
	assert.Equal(t, "400", charge.String())

	// Minimum floor.
	charge = rate.Charge(dec("1"), dec("0.01"))
	assert.Equal(t, "10", charge.String())
}

func TestRoundMoneyHalfUp(t *testing.T) {
	assert.Equal(t, "1.01", RoundMoney(dec("1.005")).StringFixed(2))
	assert.Equal(t, "1.00", RoundMoney(dec("1.004")).StringFixed(2))
	assert.Equal(t, "2.35", RoundMoney(dec("2.345")).StringFixed(2))
}
