package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

type ListFilters struct {
	Search     string
	SupplierID *int64
	CategoryID *int64
	NicheID    *int64
	IsActive   *bool
	Limit      int
	Offset     int
}

type Repository interface {
	ListSuppliers(ctx context.Context, f ListFilters) ([]Supplier, int, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	CreateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	UpdateSupplier(ctx context.Context, s Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	ListTaxonomies(ctx context.Context, kind TaxonomyKind) ([]Taxonomy, error)
	CreateTaxonomy(ctx context.Context, kind TaxonomyKind, t Taxonomy) (Taxonomy, error)
	UpdateTaxonomy(ctx context.Context, kind TaxonomyKind, t Taxonomy) error
	DeleteTaxonomy(ctx context.Context, kind TaxonomyKind, id int64) error

	ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64) error
	SetProductTags(ctx context.Context, productID int64, tagIDs []int64) error

	ListPortfolios(ctx context.Context, limit, offset int) ([]Portfolio, int, error)
	GetPortfolio(ctx context.Context, id int64) (Portfolio, error)
	CreatePortfolio(ctx context.Context, p Portfolio) (Portfolio, error)
	UpdatePortfolio(ctx context.Context, p Portfolio) error
	DeletePortfolio(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListSuppliers(ctx context.Context, f ListFilters) ([]Supplier, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (code ILIKE $` + n + ` OR name ILIKE $` + n + `)`
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, code, name, country, contact_email, default_incoterm, is_active, created_at, updated_at
		FROM suppliers` + where + ` ORDER BY name LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Country, &s.ContactEmail, &s.DefaultIncoterm, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, total, rows.Err()
}

func (r *repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, country, contact_email, default_incoterm, is_active, created_at, updated_at FROM suppliers WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Code, &s.Name, &s.Country, &s.ContactEmail, &s.DefaultIncoterm, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO suppliers (code, name, country, contact_email, default_incoterm, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		s.Code, s.Name, s.Country, s.ContactEmail, s.DefaultIncoterm, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Supplier{}, mapConstraint(err)
	}
	return s, nil
}

func (r *repository) UpdateSupplier(ctx context.Context, s Supplier) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE suppliers SET code = $2, name = $3, country = $4, contact_email = $5,
			default_incoterm = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Code, s.Name, s.Country, s.ContactEmail, s.DefaultIncoterm, s.IsActive,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListTaxonomies(ctx context.Context, kind TaxonomyKind) ([]Taxonomy, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, slug, description, created_at, updated_at FROM `+string(kind)+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Taxonomy
	for rows.Next() {
		var t Taxonomy
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) CreateTaxonomy(ctx context.Context, kind TaxonomyKind, t Taxonomy) (Taxonomy, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO `+string(kind)+` (name, slug, description, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		t.Name, t.Slug, t.Description,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Taxonomy{}, mapConstraint(err)
	}
	return t, nil
}

func (r *repository) UpdateTaxonomy(ctx context.Context, kind TaxonomyKind, t Taxonomy) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE `+string(kind)+` SET name = $2, slug = $3, description = $4, updated_at = NOW() WHERE id = $1`,
		t.ID, t.Name, t.Slug, t.Description,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteTaxonomy(ctx context.Context, kind TaxonomyKind, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM `+string(kind)+` WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const productColumns = `id, sku, name, supplier_id, category_id, niche_id, hs_code, unit_cost, weight_kg, volume_cbm, is_active, created_at, updated_at`

func (r *repository) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (sku ILIKE $` + n + ` OR name ILIKE $` + n + `)`
	}
	if f.SupplierID != nil {
		args = append(args, *f.SupplierID)
		where += ` AND supplier_id = $` + strconv.Itoa(len(args))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where += ` AND category_id = $` + strconv.Itoa(len(args))
	}
	if f.NicheID != nil {
		args = append(args, *f.NicheID)
		where += ` AND niche_id = $` + strconv.Itoa(len(args))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY sku LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.SupplierID, &p.CategoryID, &p.NicheID, &p.HSCode,
			&p.UnitCost, &p.WeightKg, &p.VolumeCbm, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.SupplierID, &p.CategoryID, &p.NicheID, &p.HSCode,
			&p.UnitCost, &p.WeightKg, &p.VolumeCbm, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT tag_id FROM product_tags WHERE product_id = $1 ORDER BY tag_id`, id)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var tagID int64
		if err := rows.Scan(&tagID); err != nil {
			return Product{}, err
		}
		p.TagIDs = append(p.TagIDs, tagID)
	}
	return p, rows.Err()
}

func (r *repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (sku, name, supplier_id, category_id, niche_id, hs_code, unit_cost, weight_kg, volume_cbm, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		p.SKU, p.Name, p.SupplierID, p.CategoryID, p.NicheID, p.HSCode, p.UnitCost, p.WeightKg, p.VolumeCbm, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapConstraint(err)
	}
	return p, nil
}

func (r *repository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products SET sku = $2, name = $3, supplier_id = $4, category_id = $5, niche_id = $6,
			hs_code = $7, unit_cost = $8, weight_kg = $9, volume_cbm = $10, is_active = $11, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.SKU, p.Name, p.SupplierID, p.CategoryID, p.NicheID, p.HSCode, p.UnitCost, p.WeightKg, p.VolumeCbm, p.IsActive,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetProductTags(ctx context.Context, productID int64, tagIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM product_tags WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, tagID); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *repository) ListPortfolios(ctx context.Context, limit, offset int) ([]Portfolio, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM portfolios`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM portfolios ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, total, rows.Err()
}

func (r *repository) GetPortfolio(ctx context.Context, id int64) (Portfolio, error) {
	var p Portfolio
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, created_by, created_at, updated_at FROM portfolios WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Portfolio{}, shared.ErrNotFound
	}
	if err != nil {
		return Portfolio{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT product_id FROM portfolio_products WHERE portfolio_id = $1 ORDER BY product_id`, id)
	if err != nil {
		return Portfolio{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		if err := rows.Scan(&productID); err != nil {
			return Portfolio{}, err
		}
		p.ProductIDs = append(p.ProductIDs, productID)
	}
	return p, rows.Err()
}

func (r *repository) CreatePortfolio(ctx context.Context, p Portfolio) (Portfolio, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO portfolios (name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Portfolio{}, mapConstraint(err)
	}
	if err := r.setPortfolioProducts(ctx, p.ID, p.ProductIDs); err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

func (r *repository) UpdatePortfolio(ctx context.Context, p Portfolio) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE portfolios SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		p.ID, p.Name, p.Description,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return r.setPortfolioProducts(ctx, p.ID, p.ProductIDs)
}

func (r *repository) DeletePortfolio(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) setPortfolioProducts(ctx context.Context, portfolioID int64, productIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM portfolio_products WHERE portfolio_id = $1`, portfolioID); err != nil {
		return err
	}
	for _, productID := range productIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO portfolio_products (portfolio_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			portfolioID, productID); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
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
