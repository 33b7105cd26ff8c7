package pricing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

type Repository interface {
	GetSetting(ctx context.Context, key string) (Setting, error)
	ListSettings(ctx context.Context) ([]Setting, error)
	UpsertSetting(ctx context.Context, s Setting) (Setting, error)
	SeedSetting(ctx context.Context, s Setting) error

	GetHSCode(ctx context.Context, code string) (HSCode, error)
	ListHSCodes(ctx context.Context, search string, limit, offset int) ([]HSCode, int, error)
	CreateHSCode(ctx context.Context, hs HSCode) (HSCode, error)
	UpdateHSCode(ctx context.Context, code string, hs HSCode) (HSCode, error)

	GetFreightRate(ctx context.Context, origin, destination string, incoterm Incoterm, asOf time.Time) (FreightRate, error)
	ListFreightRates(ctx context.Context, origin, destination string, limit, offset int) ([]FreightRate, int, error)
	CreateFreightRate(ctx context.Context, fr FreightRate) (FreightRate, error)
	DeactivateFreightRate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetSetting(ctx context.Context, key string) (Setting, error) {
	const query = `SELECT key, value, is_percentage, description, updated_at FROM pricing_settings WHERE key = $1`
	var s Setting
	err := r.db.QueryRow(ctx, query, key).Scan(&s.Key, &s.Value, &s.IsPercentage, &s.Description, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Setting{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) ListSettings(ctx context.Context) ([]Setting, error) {
	const query = `SELECT key, value, is_percentage, description, updated_at FROM pricing_settings ORDER BY key`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.IsPercentage, &s.Description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertSetting inserts or overwrites a setting. Settings are never
// deleted; admin edits always land here.
func (r *repository) UpsertSetting(ctx context.Context, s Setting) (Setting, error) {
	const query = `
		INSERT INTO pricing_settings (key, value, is_percentage, description, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, is_percentage = EXCLUDED.is_percentage,
		              description = EXCLUDED.description, updated_at = NOW()
		RETURNING key, value, is_percentage, description, updated_at`
	var out Setting
	err := r.db.QueryRow(ctx, query, s.Key, s.Value, s.IsPercentage, s.Description).
		Scan(&out.Key, &out.Value, &out.IsPercentage, &out.Description, &out.UpdatedAt)
	return out, err
}

// SeedSetting inserts a default value only when the key is absent.
func (r *repository) SeedSetting(ctx context.Context, s Setting) error {
	const query = `
		INSERT INTO pricing_settings (key, value, is_percentage, description, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key) DO NOTHING`
	_, err := r.db.Exec(ctx, query, s.Key, s.Value, s.IsPercentage, s.Description)
	return err
}

func (r *repository) GetHSCode(ctx context.Context, code string) (HSCode, error) {
	const query = `SELECT id, code, description, duty_rate, notes, created_at, updated_at FROM hs_codes WHERE code = $1`
	var hs HSCode
	err := r.db.QueryRow(ctx, query, code).
		Scan(&hs.ID, &hs.Code, &hs.Description, &hs.DutyRate, &hs.Notes, &hs.CreatedAt, &hs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return HSCode{}, shared.ErrNotFound
	}
	return hs, err
}

func (r *repository) ListHSCodes(ctx context.Context, search string, limit, offset int) ([]HSCode, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		where = ` WHERE code ILIKE $1 OR description ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM hs_codes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, code, description, duty_rate, notes, created_at, updated_at FROM hs_codes` + where +
		` ORDER BY code LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var codes []HSCode
	for rows.Next() {
		var hs HSCode
		if err := rows.Scan(&hs.ID, &hs.Code, &hs.Description, &hs.DutyRate, &hs.Notes, &hs.CreatedAt, &hs.UpdatedAt); err != nil {
			return nil, 0, err
		}
		codes = append(codes, hs)
	}
	return codes, total, rows.Err()
}

func (r *repository) CreateHSCode(ctx context.Context, hs HSCode) (HSCode, error) {
	const query = `
		INSERT INTO hs_codes (code, description, duty_rate, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, hs.Code, hs.Description, hs.DutyRate, hs.Notes).
		Scan(&hs.ID, &hs.CreatedAt, &hs.UpdatedAt)
	if err != nil {
		return HSCode{}, mapConstraint(err)
	}
	return hs, nil
}

// UpdateHSCode updates the mutable fields of a code. The code itself is
// immutable identity and never changes.
func (r *repository) UpdateHSCode(ctx context.Context, code string, hs HSCode) (HSCode, error) {
	const query = `
		UPDATE hs_codes SET description = $2, duty_rate = $3, notes = $4, updated_at = NOW()
		WHERE code = $1
		RETURNING id, code, description, duty_rate, notes, created_at, updated_at`
	var out HSCode
	err := r.db.QueryRow(ctx, query, code, hs.Description, hs.DutyRate, hs.Notes).
		Scan(&out.ID, &out.Code, &out.Description, &out.DutyRate, &out.Notes, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return HSCode{}, shared.ErrNotFound
	}
	return out, err
}

// GetFreightRate resolves the current rate for a lane: active, validity
// window covering asOf, exact incoterm match preferred over lane-generic
// rates, newest validity first.
func (r *repository) GetFreightRate(ctx context.Context, origin, destination string, incoterm Incoterm, asOf time.Time) (FreightRate, error) {
	const query = `
		SELECT id, origin, destination, incoterm, rate_per_kg, rate_per_cbm, minimum_charge,
		       transit_days, valid_from, valid_until, is_active, created_at
		FROM freight_rates
		WHERE origin = $1 AND destination = $2
		  AND is_active
		  AND (incoterm = $3 OR incoterm = '')
		  AND valid_from <= $4
		  AND (valid_until IS NULL OR valid_until >= $4)
		ORDER BY (incoterm = $3) DESC, valid_from DESC
		LIMIT 1`
	var fr FreightRate
	err := r.db.QueryRow(ctx, query, origin, destination, string(incoterm), asOf).Scan(
		&fr.ID, &fr.Origin, &fr.Destination, &fr.Incoterm, &fr.RatePerKg, &fr.RatePerCbm,
		&fr.MinimumCharge, &fr.TransitDays, &fr.ValidFrom, &fr.ValidUntil, &fr.IsActive, &fr.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return FreightRate{}, shared.ErrNotFound
	}
	return fr, err
}

func (r *repository) ListFreightRates(ctx context.Context, origin, destination string, limit, offset int) ([]FreightRate, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if origin != "" {
		args = append(args, origin)
		where += ` AND origin = ` + placeholder(len(args))
	}
	if destination != "" {
		args = append(args, destination)
		where += ` AND destination = ` + placeholder(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM freight_rates`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, origin, destination, incoterm, rate_per_kg, rate_per_cbm, minimum_charge,
	       transit_days, valid_from, valid_until, is_active, created_at
	FROM freight_rates` + where +
		` ORDER BY origin, destination, valid_from DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rates []FreightRate
	for rows.Next() {
		var fr FreightRate
		if err := rows.Scan(&fr.ID, &fr.Origin, &fr.Destination, &fr.Incoterm, &fr.RatePerKg, &fr.RatePerCbm,
			&fr.MinimumCharge, &fr.TransitDays, &fr.ValidFrom, &fr.ValidUntil, &fr.IsActive, &fr.CreatedAt); err != nil {
			return nil, 0, err
		}
		rates = append(rates, fr)
	}
	return rates, total, rows.Err()
}

func (r *repository) CreateFreightRate(ctx context.Context, fr FreightRate) (FreightRate, error) {
	const query = `
		INSERT INTO freight_rates (origin, destination, incoterm, rate_per_kg, rate_per_cbm,
		                           minimum_charge, transit_days, valid_from, valid_until, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		fr.Origin, fr.Destination, string(fr.Incoterm), fr.RatePerKg, fr.RatePerCbm,
		fr.MinimumCharge, fr.TransitDays, fr.ValidFrom, fr.ValidUntil, fr.IsActive,
	).Scan(&fr.ID, &fr.CreatedAt)
	if err != nil {
		return FreightRate{}, mapConstraint(err)
	}
	return fr, nil
}

func (r *repository) DeactivateFreightRate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE freight_rates SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// mapConstraint translates postgres constraint violations into the
// domain taxonomy.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return shared.ErrConflict
		}
	}
	return err
}
