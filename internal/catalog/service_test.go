package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

type mockCatalogRepo struct {
	suppliers  map[int64]Supplier
	taxonomies map[TaxonomyKind]map[int64]Taxonomy
	products   map[int64]Product
	tags       map[int64][]int64
	portfolios map[int64]Portfolio
	nextID     int64
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		suppliers: make(map[int64]Supplier),
		taxonomies: map[TaxonomyKind]map[int64]Taxonomy{
			KindCategory: {}, KindTag: {}, KindNiche: {},
		},
		products:   make(map[int64]Product),
		tags:       make(map[int64][]int64),
		portfolios: make(map[int64]Portfolio),
	}
}

func (m *mockCatalogRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockCatalogRepo) ListSuppliers(ctx context.Context, f ListFilters) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockCatalogRepo) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockCatalogRepo) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	for _, existing := range m.suppliers {
		if existing.Code == s.Code {
			return Supplier{}, shared.ErrConflict
		}
	}
	s.ID = m.id()
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *mockCatalogRepo) UpdateSupplier(ctx context.Context, s Supplier) error {
	if _, ok := m.suppliers[s.ID]; !ok {
		return shared.ErrNotFound
	}
	m.suppliers[s.ID] = s
	return nil
}

func (m *mockCatalogRepo) DeleteSupplier(ctx context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	for _, p := range m.products {
		if p.SupplierID == id {
			return shared.ErrConflict
		}
	}
	delete(m.suppliers, id)
	return nil
}

func (m *mockCatalogRepo) ListTaxonomies(ctx context.Context, kind TaxonomyKind) ([]Taxonomy, error) {
	var out []Taxonomy
	for _, t := range m.taxonomies[kind] {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockCatalogRepo) CreateTaxonomy(ctx context.Context, kind TaxonomyKind, t Taxonomy) (Taxonomy, error) {
	t.ID = m.id()
	m.taxonomies[kind][t.ID] = t
	return t, nil
}

func (m *mockCatalogRepo) UpdateTaxonomy(ctx context.Context, kind TaxonomyKind, t Taxonomy) error {
	if _, ok := m.taxonomies[kind][t.ID]; !ok {
		return shared.ErrNotFound
	}
	m.taxonomies[kind][t.ID] = t
	return nil
}

func (m *mockCatalogRepo) DeleteTaxonomy(ctx context.Context, kind TaxonomyKind, id int64) error {
	if _, ok := m.taxonomies[kind][id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.taxonomies[kind], id)
	return nil
}

func (m *mockCatalogRepo) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockCatalogRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	p.TagIDs = m.tags[id]
	return p, nil
}

func (m *mockCatalogRepo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.ID = m.id()
	m.products[p.ID] = p
	return p, nil
}

func (m *mockCatalogRepo) UpdateProduct(ctx context.Context, p Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return shared.ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockCatalogRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockCatalogRepo) SetProductTags(ctx context.Context, productID int64, tagIDs []int64) error {
	m.tags[productID] = tagIDs
	return nil
}

func (m *mockCatalogRepo) ListPortfolios(ctx context.Context, limit, offset int) ([]Portfolio, int, error) {
	var out []Portfolio
	for _, p := range m.portfolios {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockCatalogRepo) GetPortfolio(ctx context.Context, id int64) (Portfolio, error) {
	p, ok := m.portfolios[id]
	if !ok {
		return Portfolio{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalogRepo) CreatePortfolio(ctx context.Context, p Portfolio) (Portfolio, error) {
	p.ID = m.id()
	m.portfolios[p.ID] = p
	return p, nil
}

func (m *mockCatalogRepo) UpdatePortfolio(ctx context.Context, p Portfolio) error {
	if _, ok := m.portfolios[p.ID]; !ok {
		return shared.ErrNotFound
	}
	m.portfolios[p.ID] = p
	return nil
}

func (m *mockCatalogRepo) DeletePortfolio(ctx context.Context, id int64) error {
	if _, ok := m.portfolios[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.portfolios, id)
	return nil
}

func newTestCatalogService() (*Service, *mockCatalogRepo) {
	repo := newMockCatalogRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, logger), repo
}

func TestCreateSupplierNormalizes(t *testing.T) {
	svc, _ := newTestCatalogService()

	sup, err := svc.CreateSupplier(context.Background(), SupplierRequest{
		Code:         " acm ",
		Name:         " Acme Trading ",
		ContactEmail: "Sales@Acme.COM",
	})
	require.NoError(t, err)
	assert.Equal(t, "ACM", sup.Code)
	assert.Equal(t, "Acme Trading", sup.Name)
	require.NotNil(t, sup.ContactEmail)
	assert.Equal(t, "sales@acme.com", *sup.ContactEmail)
	assert.True(t, sup.IsActive, "suppliers default to active")
}

func TestDuplicateSupplierCodeConflicts(t *testing.T) {
	svc, _ := newTestCatalogService()
	ctx := context.Background()

	_, err := svc.CreateSupplier(ctx, SupplierRequest{Code: "ACM", Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.CreateSupplier(ctx, SupplierRequest{Code: "acm", Name: "Acme Clone"})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeleteReferencedSupplierConflicts(t *testing.T) {
	svc, repo := newTestCatalogService()
	ctx := context.Background()

	sup, err := svc.CreateSupplier(ctx, SupplierRequest{Code: "ACM", Name: "Acme"})
	require.NoError(t, err)
	repo.products[99] = Product{ID: 99, SKU: "X", SupplierID: sup.ID}

	assert.ErrorIs(t, svc.DeleteSupplier(ctx, sup.ID), shared.ErrConflict)
}

func TestTaxonomySlugDerived(t *testing.T) {
	svc, _ := newTestCatalogService()

	tax, err := svc.CreateTaxonomy(context.Background(), KindCategory, TaxonomyRequest{
		Name: "Home & Garden Tools",
	})
	require.NoError(t, err)
	assert.Equal(t, "home--garden-tools", tax.Slug)

	tax, err = svc.CreateTaxonomy(context.Background(), KindTag, TaxonomyRequest{
		Name: "Eco Friendly", Slug: "eco",
	})
	require.NoError(t, err)
	assert.Equal(t, "eco", tax.Slug)
}

func TestUnknownTaxonomyKindRejected(t *testing.T) {
	svc, _ := newTestCatalogService()
	_, err := svc.CreateTaxonomy(context.Background(), TaxonomyKind("colors"), TaxonomyRequest{Name: "Red"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.ListTaxonomies(context.Background(), TaxonomyKind("colors"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestCatalogService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductRequest{
		SKU: "W-1", Name: "Widget", SupplierID: 1, UnitCost: decimal.NewFromInt(-10),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(ctx, ProductRequest{
		SKU: "W-1", Name: "Widget", SupplierID: 1, WeightKg: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductWithTags(t *testing.T) {
	svc, repo := newTestCatalogService()

	p, err := svc.CreateProduct(context.Background(), ProductRequest{
		SKU:        "w-100",
		Name:       "Widget",
		SupplierID: 1,
		UnitCost:   decimal.NewFromInt(12),
		TagIDs:     []int64{3, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "W-100", p.SKU)
	assert.Equal(t, []int64{3, 5}, repo.tags[p.ID])
}

func TestPortfolioLifecycle(t *testing.T) {
	svc, _ := newTestCatalogService()
	ctx := context.Background()

	p, err := svc.CreatePortfolio(ctx, PortfolioRequest{
		Name: "Spring Picks", ProductIDs: []int64{1, 2},
	}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.CreatedBy)
	assert.Equal(t, []int64{1, 2}, p.ProductIDs)

	updated, err := svc.UpdatePortfolio(ctx, p.ID, PortfolioRequest{
		Name: "Summer Picks", ProductIDs: []int64{2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Picks", updated.Name)

	require.NoError(t, svc.DeletePortfolio(ctx, p.ID))
	_, err = svc.GetPortfolio(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
