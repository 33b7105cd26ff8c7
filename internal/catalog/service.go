package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

// Service applies catalog business rules on top of the repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListSuppliers(ctx context.Context, f ListFilters) ([]Supplier, int, error) {
	return s.repo.ListSuppliers(ctx, f)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) CreateSupplier(ctx context.Context, req SupplierRequest) (Supplier, error) {
	sup := supplierFromRequest(req)
	created, err := s.repo.CreateSupplier(ctx, sup)
	if err != nil {
		return Supplier{}, err
	}
	s.logger.Info("supplier created", slog.Int64("id", created.ID), slog.String("code", created.Code))
	return created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req SupplierRequest) (Supplier, error) {
	sup := supplierFromRequest(req)
	sup.ID = id
	if err := s.repo.UpdateSupplier(ctx, sup); err != nil {
		return Supplier{}, err
	}
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.repo.DeleteSupplier(ctx, id)
}

func (s *Service) ListTaxonomies(ctx context.Context, kind TaxonomyKind) ([]Taxonomy, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown taxonomy %q", shared.ErrValidation, kind)
	}
	return s.repo.ListTaxonomies(ctx, kind)
}

func (s *Service) CreateTaxonomy(ctx context.Context, kind TaxonomyKind, req TaxonomyRequest) (Taxonomy, error) {
	if !kind.Valid() {
		return Taxonomy{}, fmt.Errorf("%w: unknown taxonomy %q", shared.ErrValidation, kind)
	}
	return s.repo.CreateTaxonomy(ctx, kind, taxonomyFromRequest(req))
}

func (s *Service) UpdateTaxonomy(ctx context.Context, kind TaxonomyKind, id int64, req TaxonomyRequest) (Taxonomy, error) {
	if !kind.Valid() {
		return Taxonomy{}, fmt.Errorf("%w: unknown taxonomy %q", shared.ErrValidation, kind)
	}
	t := taxonomyFromRequest(req)
	t.ID = id
	if err := s.repo.UpdateTaxonomy(ctx, kind, t); err != nil {
		return Taxonomy{}, err
	}
	return t, nil
}

func (s *Service) DeleteTaxonomy(ctx context.Context, kind TaxonomyKind, id int64) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown taxonomy %q", shared.ErrValidation, kind)
	}
	return s.repo.DeleteTaxonomy(ctx, kind, id)
}

func (s *Service) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, f)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req ProductRequest) (Product, error) {
	p, err := productFromRequest(req)
	if err != nil {
		return Product{}, err
	}
	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	if len(req.TagIDs) > 0 {
		if err := s.repo.SetProductTags(ctx, created.ID, req.TagIDs); err != nil {
			return Product{}, err
		}
		created.TagIDs = req.TagIDs
	}
	s.logger.Info("product created", slog.Int64("id", created.ID), slog.String("sku", created.SKU))
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req ProductRequest) (Product, error) {
	p, err := productFromRequest(req)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	if err := s.repo.SetProductTags(ctx, id, req.TagIDs); err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListPortfolios(ctx context.Context, limit, offset int) ([]Portfolio, int, error) {
	return s.repo.ListPortfolios(ctx, limit, offset)
}

func (s *Service) GetPortfolio(ctx context.Context, id int64) (Portfolio, error) {
	return s.repo.GetPortfolio(ctx, id)
}

func (s *Service) CreatePortfolio(ctx context.Context, req PortfolioRequest, createdBy int64) (Portfolio, error) {
	p := portfolioFromRequest(req)
	p.CreatedBy = createdBy
	return s.repo.CreatePortfolio(ctx, p)
}

func (s *Service) UpdatePortfolio(ctx context.Context, id int64, req PortfolioRequest) (Portfolio, error) {
	p := portfolioFromRequest(req)
	p.ID = id
	if err := s.repo.UpdatePortfolio(ctx, p); err != nil {
		return Portfolio{}, err
	}
	return s.repo.GetPortfolio(ctx, id)
}

func (s *Service) DeletePortfolio(ctx context.Context, id int64) error {
	return s.repo.DeletePortfolio(ctx, id)
}

func supplierFromRequest(req SupplierRequest) Supplier {
	sup := Supplier{
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:            strings.TrimSpace(req.Name),
		Country:         strings.TrimSpace(req.Country),
		DefaultIncoterm: strings.ToUpper(strings.TrimSpace(req.DefaultIncoterm)),
		IsActive:        true,
	}
	if req.ContactEmail != "" {
		email := strings.ToLower(req.ContactEmail)
		sup.ContactEmail = &email
	}
	if req.IsActive != nil {
		sup.IsActive = *req.IsActive
	}
	return sup
}

func taxonomyFromRequest(req TaxonomyRequest) Taxonomy {
	t := Taxonomy{
		Name: strings.TrimSpace(req.Name),
		Slug: strings.TrimSpace(req.Slug),
	}
	if t.Slug == "" {
		t.Slug = slugify(t.Name)
	}
	if req.Description != "" {
		desc := req.Description
		t.Description = &desc
	}
	return t
}

func productFromRequest(req ProductRequest) (Product, error) {
	if req.UnitCost.Sign() < 0 {
		return Product{}, fmt.Errorf("%w: unit_cost must not be negative", shared.ErrValidation)
	}
	if req.WeightKg.Sign() < 0 || req.VolumeCbm.Sign() < 0 {
		return Product{}, fmt.Errorf("%w: weight and volume must not be negative", shared.ErrValidation)
	}
	p := Product{
		SKU:        strings.ToUpper(strings.TrimSpace(req.SKU)),
		Name:       strings.TrimSpace(req.Name),
		SupplierID: req.SupplierID,
		CategoryID: req.CategoryID,
		NicheID:    req.NicheID,
		HSCode:     req.HSCode,
		UnitCost:   req.UnitCost,
		WeightKg:   req.WeightKg,
		VolumeCbm:  req.VolumeCbm,
		IsActive:   true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return p, nil
}

func portfolioFromRequest(req PortfolioRequest) Portfolio {
	p := Portfolio{
		Name:       strings.TrimSpace(req.Name),
		ProductIDs: req.ProductIDs,
	}
	if req.Description != "" {
		desc := req.Description
		p.Description = &desc
	}
	return p
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}
