package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

// Service exposes pricing configuration and lookups to the rest of the
// application. The calculator itself stays a free function; the service
// only resolves its inputs.
type Service struct {
	repo   Repository
	logger *slog.Logger

	seedOnce sync.Once
	seedErr  error
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// defaultSettings are installed on first use. Admins overwrite them via
// upsert; keys are never deleted.
func defaultSettings() []Setting {
	return []Setting{
		{Key: SettingMarginPercentage, Value: decimal.NewFromInt(20), IsPercentage: true, Description: "Margin applied on top of nationalization cost"},
		{Key: SettingExchangeRate, Value: decimal.NewFromInt(4200), IsPercentage: false, Description: "USD to destination currency exchange rate"},
		{Key: SettingInsuranceRate, Value: decimal.NewFromFloat(1.8), IsPercentage: true, Description: "Insurance as a percentage of FOB subtotal"},
		{Key: SettingQuoteValidityDays, Value: decimal.NewFromInt(30), IsPercentage: false, Description: "Default quotation validity window in days"},
	}
}

// EnsureDefaults seeds missing settings exactly once per process.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	s.seedOnce.Do(func() {
		for _, def := range defaultSettings() {
			if err := s.repo.SeedSetting(ctx, def); err != nil {
				s.seedErr = fmt.Errorf("seed setting %s: %w", def.Key, err)
				return
			}
		}
		s.logger.Info("pricing settings seeded")
	})
	return s.seedErr
}

func (s *Service) ListSettings(ctx context.Context) ([]Setting, error) {
	if err := s.EnsureDefaults(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListSettings(ctx)
}

func (s *Service) GetSetting(ctx context.Context, key string) (Setting, error) {
	if err := s.EnsureDefaults(ctx); err != nil {
		return Setting{}, err
	}
	return s.repo.GetSetting(ctx, strings.TrimSpace(key))
}

func (s *Service) UpsertSetting(ctx context.Context, set Setting) (Setting, error) {
	set.Key = strings.TrimSpace(set.Key)
	if set.Key == "" {
		return Setting{}, fmt.Errorf("%w: setting key required", shared.ErrValidation)
	}
	if set.Value.IsNegative() {
		return Setting{}, fmt.Errorf("%w: setting value must be non-negative", shared.ErrValidation)
	}
	return s.repo.UpsertSetting(ctx, set)
}

// CalcSettings resolves the settings the calculator requires. A missing
// key is an operator misconfiguration, never silently defaulted.
func (s *Service) CalcSettings(ctx context.Context) (CalcSettings, error) {
	if err := s.EnsureDefaults(ctx); err != nil {
		return CalcSettings{}, err
	}
	margin, err := s.requireSetting(ctx, SettingMarginPercentage)
	if err != nil {
		return CalcSettings{}, err
	}
	rate, err := s.requireSetting(ctx, SettingExchangeRate)
	if err != nil {
		return CalcSettings{}, err
	}
	insurance, err := s.requireSetting(ctx, SettingInsuranceRate)
	if err != nil {
		return CalcSettings{}, err
	}
	return CalcSettings{
		MarginPercent: margin,
		ExchangeRate:  rate,
		InsuranceRate: insurance,
	}, nil
}

func (s *Service) requireSetting(ctx context.Context, key string) (decimal.Decimal, error) {
	set, err := s.repo.GetSetting(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", shared.ErrConfiguration, key)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("get setting %s: %w", key, err)
	}
	return set.Value, nil
}

// QuoteValidityDays returns the configured validity window, falling back
// to the seeded default when the setting is somehow absent.
func (s *Service) QuoteValidityDays(ctx context.Context) int {
	set, err := s.GetSetting(ctx, SettingQuoteValidityDays)
	if err != nil {
		return 30
	}
	days := int(set.Value.IntPart())
	if days <= 0 {
		return 30
	}
	return days
}

func (s *Service) GetHSCode(ctx context.Context, code string) (HSCode, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 20 {
		return HSCode{}, fmt.Errorf("%w: hs code must be 1-20 characters", shared.ErrValidation)
	}
	hs, err := s.repo.GetHSCode(ctx, code)
	if errors.Is(err, shared.ErrNotFound) {
		return HSCode{}, fmt.Errorf("%w: hs code %s", shared.ErrNotFound, code)
	}
	return hs, err
}

func (s *Service) ListHSCodes(ctx context.Context, search string, limit, offset int) ([]HSCode, int, error) {
	return s.repo.ListHSCodes(ctx, search, limit, offset)
}

func (s *Service) CreateHSCode(ctx context.Context, hs HSCode) (HSCode, error) {
	hs.Code = strings.TrimSpace(hs.Code)
	if hs.Code == "" || len(hs.Code) > 20 {
		return HSCode{}, fmt.Errorf("%w: hs code must be 1-20 characters", shared.ErrValidation)
	}
	if hs.DutyRate.IsNegative() {
		return HSCode{}, fmt.Errorf("%w: duty rate must be non-negative", shared.ErrValidation)
	}
	return s.repo.CreateHSCode(ctx, hs)
}

func (s *Service) UpdateHSCode(ctx context.Context, code string, hs HSCode) (HSCode, error) {
	if hs.DutyRate.IsNegative() {
		return HSCode{}, fmt.Errorf("%w: duty rate must be non-negative", shared.ErrValidation)
	}
	return s.repo.UpdateHSCode(ctx, strings.TrimSpace(code), hs)
}

// ResolveFreight finds the current rate for a lane. Callers pricing a
// CIF/DDP quotation never reach here; the calculator zeroes freight for
// seller-paid incoterms.
func (s *Service) ResolveFreight(ctx context.Context, origin, destination string, incoterm Incoterm, asOf time.Time) (FreightRate, error) {
	fr, err := s.repo.GetFreightRate(ctx, origin, destination, incoterm, asOf)
	if errors.Is(err, shared.ErrNotFound) {
		return FreightRate{}, fmt.Errorf("%w: no freight rate for %s -> %s (%s)", shared.ErrLookup, origin, destination, incoterm)
	}
	return fr, err
}

func (s *Service) ListFreightRates(ctx context.Context, origin, destination string, limit, offset int) ([]FreightRate, int, error) {
	return s.repo.ListFreightRates(ctx, origin, destination, limit, offset)
}

func (s *Service) CreateFreightRate(ctx context.Context, fr FreightRate) (FreightRate, error) {
	if fr.Origin == "" || fr.Destination == "" {
		return FreightRate{}, fmt.Errorf("%w: origin and destination required", shared.ErrValidation)
	}
	if fr.Incoterm != "" && !fr.Incoterm.Known() {
		return FreightRate{}, fmt.Errorf("%w: unrecognised incoterm %q", shared.ErrValidation, fr.Incoterm)
	}
	if fr.RatePerKg.IsNegative() || fr.RatePerCbm.IsNegative() || fr.MinimumCharge.IsNegative() {
		return FreightRate{}, fmt.Errorf("%w: freight rates must be non-negative", shared.ErrValidation)
	}
	if fr.ValidUntil != nil && fr.ValidUntil.Before(fr.ValidFrom) {
		return FreightRate{}, fmt.Errorf("%w: valid_until precedes valid_from", shared.ErrValidation)
	}
	return s.repo.CreateFreightRate(ctx, fr)
}

func (s *Service) DeactivateFreightRate(ctx context.Context, id int64) error {
	return s.repo.DeactivateFreightRate(ctx, id)
}
