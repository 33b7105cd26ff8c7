package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Summary(ctx context.Context) (Summary, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	MonthlyTotals(ctx context.Context, months int) ([]MonthlyTotal, error)
	TopClients(ctx context.Context, limit int) ([]TopClient, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('draft', 'sent')),
			COALESCE(SUM(grand_total) FILTER (WHERE status = 'accepted'), 0),
			COALESCE(SUM(grand_total) FILTER (WHERE status = 'sent'), 0)
		FROM quotations`,
	).Scan(&s.TotalQuotations, &s.OpenQuotations, &s.AcceptedValue, &s.PipelineValue)
	if err != nil {
		return Summary{}, err
	}

	// Acceptance rate counts only decided quotations.
	var accepted, decided int64
	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'accepted'),
			COUNT(*) FILTER (WHERE status IN ('accepted', 'rejected'))
		FROM quotations`,
	).Scan(&accepted, &decided)
	if err != nil {
		return Summary{}, err
	}
	if decided > 0 {
		s.AcceptanceRate = decimal.NewFromInt(accepted * 100).
			Div(decimal.NewFromInt(decided)).Round(2)
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE is_active),
			(SELECT COUNT(*) FROM suppliers WHERE is_active)`,
	).Scan(&s.ActiveProducts, &s.ActiveSuppliers)
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (r *repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM quotations GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *repository) MonthlyTotals(ctx context.Context, months int) ([]MonthlyTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM') AS month,
			COUNT(*),
			COALESCE(SUM(grand_total), 0),
			COALESCE(SUM(grand_total) FILTER (WHERE status = 'accepted'), 0)
		FROM quotations
		WHERE created_at >= DATE_TRUNC('month', NOW()) - ($1 * INTERVAL '1 month')
		GROUP BY 1
		ORDER BY 1`, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyTotal
	for rows.Next() {
		var mt MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Count, &mt.Total, &mt.Accepted); err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (r *repository) TopClients(ctx context.Context, limit int) ([]TopClient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT client_name, COUNT(*), COALESCE(SUM(grand_total), 0)
		FROM quotations
		WHERE status = 'accepted'
		GROUP BY client_name
		ORDER BY 3 DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopClient
	for rows.Next() {
		var tc TopClient
		if err := rows.Scan(&tc.ClientName, &tc.Count, &tc.Total); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
