package quotes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cotizo-erp/cotizo/internal/platform/db"
	"github.com/cotizo-erp/cotizo/internal/shared"
)

type ListRequest struct {
	Status    *Status
	CreatedBy *int64
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	GetByNumber(ctx context.Context, number string) (*Quotation, error)
	List(ctx context.Context, req ListRequest) ([]Quotation, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	UpdateHeader(ctx context.Context, q *Quotation) error
	UpdateTotals(ctx context.Context, q *Quotation) error
	UpdateStatus(ctx context.Context, id int64, status Status, decidedAt *time.Time) error
	ListItems(ctx context.Context, quotationID int64) ([]Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	UpdateItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, id int64) error
	NextNumber(ctx context.Context) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quotationColumns = `id, quotation_number, client_name, client_reference, status, incoterm,
	currency, local_currency, origin, destination,
	subtotal, freight_cost, insurance_cost, other_costs, total,
	discount_percent, discount_amount, grand_total,
	bd_subtotal_fob, bd_tariff_total, bd_freight_intl, bd_insurance,
	bd_nationalization, bd_margin, bd_grand_total, bd_exchange_rate,
	notes, valid_until, decided_at, created_by, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.Number, &q.ClientName, &q.ClientReference, &q.Status, &q.Incoterm,
		&q.Currency, &q.LocalCurrency, &q.Origin, &q.Destination,
		&q.Subtotal, &q.FreightCost, &q.InsuranceCost, &q.OtherCosts, &q.Total,
		&q.DiscountPercent, &q.DiscountAmount, &q.GrandTotal,
		&q.Breakdown.SubtotalFOB, &q.Breakdown.TariffTotal, &q.Breakdown.FreightIntl, &q.Breakdown.Insurance,
		&q.Breakdown.Nationalization, &q.Breakdown.Margin, &q.Breakdown.GrandTotal, &q.Breakdown.ExchangeRate,
		&q.Notes, &q.ValidUntil, &q.DecidedAt, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	q.Breakdown.Currency = q.LocalCurrency
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	q.Items, err = r.ListItems(ctx, q.ID)
	return q, err
}

func (r *repository) GetByNumber(ctx context.Context, number string) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE quotation_number = $1`, number))
	if err != nil {
		return nil, err
	}
	q.Items, err = r.ListItems(ctx, q.ID)
	return q, err
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if req.Status != nil {
		args = append(args, *req.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if req.CreatedBy != nil {
		args = append(args, *req.CreatedBy)
		where += ` AND created_by = $` + strconv.Itoa(len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (quotation_number ILIKE $` + n + ` OR client_name ILIKE $` + n + `)`
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		where += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + quotationColumns + ` FROM quotations` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	const query = `
		INSERT INTO quotations (quotation_number, client_name, client_reference, status, incoterm,
			currency, local_currency, origin, destination,
			subtotal, freight_cost, insurance_cost, other_costs, total,
			discount_percent, discount_amount, grand_total,
			bd_subtotal_fob, bd_tariff_total, bd_freight_intl, bd_insurance,
			bd_nationalization, bd_margin, bd_grand_total, bd_exchange_rate,
			notes, valid_until, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,
			$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,NOW(),NOW())
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		q.Number, q.ClientName, q.ClientReference, q.Status, string(q.Incoterm),
		q.Currency, q.LocalCurrency, q.Origin, q.Destination,
		q.Subtotal, q.FreightCost, q.InsuranceCost, q.OtherCosts, q.Total,
		q.DiscountPercent, q.DiscountAmount, q.GrandTotal,
		q.Breakdown.SubtotalFOB, q.Breakdown.TariffTotal, q.Breakdown.FreightIntl, q.Breakdown.Insurance,
		q.Breakdown.Nationalization, q.Breakdown.Margin, q.Breakdown.GrandTotal, q.Breakdown.ExchangeRate,
		q.Notes, q.ValidUntil, q.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, q *Quotation) error {
	const query = `
		UPDATE quotations SET client_name = $2, client_reference = $3, incoterm = $4,
			currency = $5, local_currency = $6, origin = $7, destination = $8,
			other_costs = $9, discount_percent = $10, discount_amount = $11,
			notes = $12, valid_until = $13, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		q.ID, q.ClientName, q.ClientReference, string(q.Incoterm),
		q.Currency, q.LocalCurrency, q.Origin, q.Destination,
		q.OtherCosts, q.DiscountPercent, q.DiscountAmount,
		q.Notes, q.ValidUntil,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateTotals persists the recomputed header totals and the landed-cost
// breakdown in one statement. It always runs inside the same transaction
// as the item mutation that triggered the recalculation.
func (r *repository) UpdateTotals(ctx context.Context, q *Quotation) error {
	const query = `
		UPDATE quotations SET subtotal = $2, freight_cost = $3, insurance_cost = $4,
			other_costs = $5, total = $6, discount_percent = $7, discount_amount = $8, grand_total = $9,
			bd_subtotal_fob = $10, bd_tariff_total = $11, bd_freight_intl = $12, bd_insurance = $13,
			bd_nationalization = $14, bd_margin = $15, bd_grand_total = $16, bd_exchange_rate = $17,
			updated_at = NOW()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		q.ID, q.Subtotal, q.FreightCost, q.InsuranceCost,
		q.OtherCosts, q.Total, q.DiscountPercent, q.DiscountAmount, q.GrandTotal,
		q.Breakdown.SubtotalFOB, q.Breakdown.TariffTotal, q.Breakdown.FreightIntl, q.Breakdown.Insurance,
		q.Breakdown.Nationalization, q.Breakdown.Margin, q.Breakdown.GrandTotal, q.Breakdown.ExchangeRate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, decidedAt *time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE quotations SET status = $2, decided_at = $3, updated_at = NOW() WHERE id = $1`,
		id, status, decidedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const itemColumns = `id, quotation_id, product_id, description, hs_code, quantity,
	unit_cost, unit_price, markup_percent, tariff_percent, tariff_amount, freight_amount,
	weight_kg, volume_cbm, line_total, sort_order, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.QuotationID, &it.ProductID, &it.Description, &it.HSCode, &it.Quantity,
		&it.UnitCost, &it.UnitPrice, &it.MarkupPercent, &it.TariffPercent, &it.TariffAmount, &it.FreightAmount,
		&it.WeightKg, &it.VolumeCbm, &it.LineTotal, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) ListItems(ctx context.Context, quotationID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM quotation_items WHERE quotation_id = $1 ORDER BY sort_order, id`,
		quotationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM quotation_items WHERE id = $1`, id))
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	const query = `
		INSERT INTO quotation_items (quotation_id, product_id, description, hs_code, quantity,
			unit_cost, unit_price, markup_percent, tariff_percent, tariff_amount, freight_amount,
			weight_kg, volume_cbm, line_total, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		item.QuotationID, item.ProductID, item.Description, item.HSCode, item.Quantity,
		item.UnitCost, item.UnitPrice, item.MarkupPercent, item.TariffPercent, item.TariffAmount, item.FreightAmount,
		item.WeightKg, item.VolumeCbm, item.LineTotal, item.SortOrder,
	).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *repository) UpdateItem(ctx context.Context, item Item) error {
	const query = `
		UPDATE quotation_items SET description = $2, quantity = $3, unit_cost = $4, unit_price = $5,
			markup_percent = $6, tariff_percent = $7, tariff_amount = $8, freight_amount = $9,
			weight_kg = $10, volume_cbm = $11, line_total = $12, sort_order = $13, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		item.ID, item.Description, item.Quantity, item.UnitCost, item.UnitPrice,
		item.MarkupPercent, item.TariffPercent, item.TariffAmount, item.FreightAmount,
		item.WeightKg, item.VolumeCbm, item.LineTotal, item.SortOrder,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotation_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextNumber draws the next value from the quotation sequence. Numbers
// are unique and increasing; a rolled-back enclosing transaction may
// leave a gap, which is acceptable.
func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, seq)
		VALUES ('QT', 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QT-%06d", seq), nil
}

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
