package quotes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotizo-erp/cotizo/internal/pricing"
	"github.com/cotizo-erp/cotizo/internal/shared"
)

type mockRepository struct {
	quotations map[int64]*Quotation
	items      map[int64]Item
	nextID     int64
	nextItemID int64
	seq        int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotations: make(map[int64]*Quotation),
		items:      make(map[int64]Item),
		nextID:     1,
		nextItemID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *q
	items, _ := m.ListItems(ctx, id)
	copied.Items = items
	return &copied, nil
}

func (m *mockRepository) GetByNumber(ctx context.Context, number string) (*Quotation, error) {
	for id, q := range m.quotations {
		if q.Number == number {
			return m.Get(ctx, id)
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	var out []Quotation
	for id := range m.quotations {
		q, _ := m.Get(ctx, id)
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(q.ClientName), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, q Quotation) (int64, error) {
	q.ID = m.nextID
	m.nextID++
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	q.Items = nil
	m.quotations[q.ID] = &q
	return q.ID, nil
}

func (m *mockRepository) UpdateHeader(ctx context.Context, q *Quotation) error {
	stored, ok := m.quotations[q.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.ClientName = q.ClientName
	stored.ClientReference = q.ClientReference
	stored.Incoterm = q.Incoterm
	stored.Origin = q.Origin
	stored.Destination = q.Destination
	stored.Notes = q.Notes
	stored.ValidUntil = q.ValidUntil
	return nil
}

func (m *mockRepository) UpdateTotals(ctx context.Context, q *Quotation) error {
	stored, ok := m.quotations[q.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Subtotal = q.Subtotal
	stored.FreightCost = q.FreightCost
	stored.InsuranceCost = q.InsuranceCost
	stored.OtherCosts = q.OtherCosts
	stored.Total = q.Total
	stored.DiscountPercent = q.DiscountPercent
	stored.DiscountAmount = q.DiscountAmount
	stored.GrandTotal = q.GrandTotal
	stored.Breakdown = q.Breakdown
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status, decidedAt *time.Time) error {
	stored, ok := m.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Status = status
	stored.DecidedAt = decidedAt
	return nil
}

func (m *mockRepository) ListItems(ctx context.Context, quotationID int64) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.QuotationID == quotationID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockRepository) GetItem(ctx context.Context, id int64) (*Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &it, nil
}

func (m *mockRepository) InsertItem(ctx context.Context, item Item) (int64, error) {
	item.ID = m.nextItemID
	m.nextItemID++
	m.items[item.ID] = item
	return item.ID, nil
}

func (m *mockRepository) UpdateItem(ctx context.Context, item Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return shared.ErrNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockRepository) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockRepository) NextNumber(ctx context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("QT-%06d", m.seq), nil
}

type mockPricingRepo struct {
	settings map[string]pricing.Setting
	hsCodes  map[string]pricing.HSCode
	freight  []pricing.FreightRate
}

func newMockPricingRepo() *mockPricingRepo {
	return &mockPricingRepo{
		settings: make(map[string]pricing.Setting),
		hsCodes:  make(map[string]pricing.HSCode),
	}
}

func (m *mockPricingRepo) GetSetting(ctx context.Context, key string) (pricing.Setting, error) {
	s, ok := m.settings[key]
	if !ok {
		return pricing.Setting{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockPricingRepo) ListSettings(ctx context.Context) ([]pricing.Setting, error) {
	var out []pricing.Setting
	for _, s := range m.settings {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockPricingRepo) UpsertSetting(ctx context.Context, s pricing.Setting) (pricing.Setting, error) {
	m.settings[s.Key] = s
	return s, nil
}

func (m *mockPricingRepo) SeedSetting(ctx context.Context, s pricing.Setting) error {
	if _, ok := m.settings[s.Key]; !ok {
		m.settings[s.Key] = s
	}
	return nil
}

func (m *mockPricingRepo) GetHSCode(ctx context.Context, code string) (pricing.HSCode, error) {
	hs, ok := m.hsCodes[code]
	if !ok {
		return pricing.HSCode{}, shared.ErrNotFound
	}
	return hs, nil
}

func (m *mockPricingRepo) ListHSCodes(ctx context.Context, search string, limit, offset int) ([]pricing.HSCode, int, error) {
	var out []pricing.HSCode
	for _, hs := range m.hsCodes {
		out = append(out, hs)
	}
	return out, len(out), nil
}

func (m *mockPricingRepo) CreateHSCode(ctx context.Context, hs pricing.HSCode) (pricing.HSCode, error) {
	m.hsCodes[hs.Code] = hs
	return hs, nil
}

func (m *mockPricingRepo) UpdateHSCode(ctx context.Context, code string, hs pricing.HSCode) (pricing.HSCode, error) {
	m.hsCodes[code] = hs
	return hs, nil
}

func (m *mockPricingRepo) GetFreightRate(ctx context.Context, origin, destination string, incoterm pricing.Incoterm, asOf time.Time) (pricing.FreightRate, error) {
	for _, fr := range m.freight {
		if fr.Origin == origin && fr.Destination == destination && fr.IsActive {
			return fr, nil
		}
	}
	return pricing.FreightRate{}, shared.ErrNotFound
}

func (m *mockPricingRepo) ListFreightRates(ctx context.Context, origin, destination string, limit, offset int) ([]pricing.FreightRate, int, error) {
	return m.freight, len(m.freight), nil
}

func (m *mockPricingRepo) CreateFreightRate(ctx context.Context, fr pricing.FreightRate) (pricing.FreightRate, error) {
	fr.ID = int64(len(m.freight) + 1)
	m.freight = append(m.freight, fr)
	return fr, nil
}

func (m *mockPricingRepo) DeactivateFreightRate(ctx context.Context, id int64) error {
	for i := range m.freight {
		if m.freight[i].ID == id {
			m.freight[i].IsActive = false
			return nil
		}
	}
	return shared.ErrNotFound
}

type mockTokens struct {
	issued map[string]shareGrant
	n      int
}

type shareGrant struct {
	quotationID int64
	expiresAt   time.Time
}

func newMockTokens() *mockTokens {
	return &mockTokens{issued: make(map[string]shareGrant)}
}

func (m *mockTokens) IssueShareToken(quotationID int64, ttl time.Duration) (string, time.Time, error) {
	m.n++
	token := fmt.Sprintf("share-%d", m.n)
	expiresAt := time.Now().Add(ttl)
	m.issued[token] = shareGrant{quotationID: quotationID, expiresAt: expiresAt}
	return token, expiresAt, nil
}

func (m *mockTokens) VerifyShareToken(token string) (int64, error) {
	grant, ok := m.issued[token]
	if !ok {
		return 0, fmt.Errorf("token not recognised")
	}
	if time.Now().After(grant.expiresAt) {
		return 0, fmt.Errorf("token expired")
	}
	return grant.quotationID, nil
}

type mockRenderer struct {
	calls int
}

func (m *mockRenderer) Render(ctx context.Context, q *Quotation) ([]byte, error) {
	m.calls++
	return []byte("%PDF-1.7 " + q.Number), nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *mockPricingRepo, *mockTokens) {
	t.Helper()
	repo := newMockRepository()
	pricingRepo := newMockPricingRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pricingSvc := pricing.NewService(pricingRepo, logger)
	tokens := newMockTokens()
	svc := NewService(repo, pricingSvc, tokens, &mockRenderer{}, logger)

	pricingRepo.hsCodes["8517.12"] = pricing.HSCode{ID: 1, Code: "8517.12", DutyRate: decimal.NewFromInt(10)}
	pricingRepo.freight = []pricing.FreightRate{{
		ID:            1,
		Origin:        "Shanghai",
		Destination:   "Bogota",
		RatePerKg:     decimal.NewFromInt(2),
		RatePerCbm:    decimal.NewFromInt(100),
		MinimumCharge: decimal.NewFromInt(120),
		IsActive:      true,
		ValidFrom:     time.Now().AddDate(-1, 0, 0),
	}}
	return svc, repo, pricingRepo, tokens
}

func createDraft(t *testing.T, svc *Service) *Quotation {
	t.Helper()
	q, err := svc.Create(context.Background(), CreateQuotationRequest{
		ClientName:  "Acme Imports",
		Incoterm:    "FOB",
		Origin:      "Shanghai",
		Destination: "Bogota",
	}, 7)
	require.NoError(t, err)
	return q
}

func addReferenceItem(t *testing.T, svc *Service, quotationID int64) *Quotation {
	t.Helper()
	hs := "8517.12"
	q, err := svc.AddItem(context.Background(), quotationID, ItemRequest{
		Description:   "IP handset",
		HSCode:        &hs,
		Quantity:      10,
		UnitCost:      decimal.NewFromInt(50),
		MarkupPercent: decimal.NewFromInt(30),
		WeightKg:      decimal.NewFromInt(1),
		VolumeCbm:     decimal.NewFromFloat(0.01),
	})
	require.NoError(t, err)
	return q
}

func TestCreateDraft(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	q := createDraft(t, svc)

	assert.Equal(t, "QT-000001", q.Number)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "COP", q.LocalCurrency)
	assert.True(t, q.Subtotal.IsZero())
	assert.True(t, q.GrandTotal.IsZero())
	assert.Empty(t, q.Items)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), q.ValidUntil, time.Minute)
}

func TestCreateRejectsUnknownIncoterm(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateQuotationRequest{
		ClientName: "Acme", Incoterm: "XYZ",
	}, 7)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsBadDiscount(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	cases := []struct {
		name    string
		percent decimal.Decimal
		amount  decimal.Decimal
	}{
		{"negative percent", decimal.NewFromInt(-50), decimal.Zero},
		{"percent above 100", decimal.NewFromInt(150), decimal.Zero},
		{"negative amount", decimal.Zero, decimal.NewFromInt(-10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateQuotationRequest{
				ClientName: "Acme Imports", Incoterm: "FOB",
				Origin: "Shanghai", Destination: "Bogota",
				DiscountPercent: tc.percent, DiscountAmount: tc.amount,
			}, 7)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestAddItemRecalculates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	q := addReferenceItem(t, svc, draft.ID)

	require.Len(t, q.Items, 1)
	item := q.Items[0]
	// 30% markup on a 50 cost.
	assert.Equal(t, "65.00", item.UnitPrice.StringFixed(2))
	// Duty snapshotted from the HS code at 10% of cost.
	assert.Equal(t, "10", item.TariffPercent.String())
	assert.Equal(t, "50.00", item.TariffAmount.StringFixed(2))
	assert.Equal(t, "700.00", item.LineTotal.StringFixed(2))

	// Header totals: sell-side subtotal plus freight and insurance.
	assert.Equal(t, "650.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "120.00", q.FreightCost.StringFixed(2))
	assert.Equal(t, "9.00", q.InsuranceCost.StringFixed(2))
	assert.Equal(t, "779.00", q.GrandTotal.StringFixed(2))

	// Landed-cost breakdown in destination currency.
	assert.Equal(t, "500", q.Breakdown.SubtotalFOB.String())
	assert.Equal(t, "50", q.Breakdown.TariffTotal.String())
	assert.Equal(t, "COP", q.Breakdown.Currency)
	assert.Equal(t, "4200", q.Breakdown.ExchangeRate.String())
}

func TestAddItemUnknownHSCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)

	hs := "9999.99"
	_, err := svc.AddItem(context.Background(), draft.ID, ItemRequest{
		Description: "Widget", HSCode: &hs, Quantity: 1, UnitCost: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddItemMissingFreightLane(t *testing.T) {
	svc, _, pricingRepo, _ := newTestService(t)
	pricingRepo.freight = nil
	draft := createDraft(t, svc)

	_, err := svc.AddItem(context.Background(), draft.ID, ItemRequest{
		Description: "Widget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, shared.ErrLookup)
}

func TestAddItemDuplicateSortOrderRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	addReferenceItem(t, svc, draft.ID)

	_, err := svc.AddItem(context.Background(), draft.ID, ItemRequest{
		Description: "Widget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
		SortOrder: 1,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddItemDefaultSortOrderSkipsGaps(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	_, err := svc.AddItem(context.Background(), draft.ID, ItemRequest{
		Description: "Widget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
		SortOrder: 5,
	})
	require.NoError(t, err)

	q, err := svc.AddItem(context.Background(), draft.ID, ItemRequest{
		Description: "Gadget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, 6, q.Items[1].SortOrder)
}

func TestUpdateItemDuplicateSortOrderRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	q := addReferenceItem(t, svc, draft.ID)
	q, err := svc.AddItem(context.Background(), draft.ID, ItemRequest{
		Description: "Widget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)

	second := q.Items[1]
	_, err = svc.UpdateItem(context.Background(), draft.ID, second.ID, ItemRequest{
		Description: "Widget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
		SortOrder: q.Items[0].SortOrder,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	// Re-asserting its own slot is not a collision.
	_, err = svc.UpdateItem(context.Background(), draft.ID, second.ID, ItemRequest{
		Description: "Widget", Quantity: 1, UnitCost: decimal.NewFromInt(10),
		SortOrder: second.SortOrder,
	})
	assert.NoError(t, err)
}

func TestItemMutationAfterSendRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	q := addReferenceItem(t, svc, draft.ID)
	itemID := q.Items[0].ID

	_, err := svc.TransitionStatus(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), q.ID, ItemRequest{
		Description: "Late addition", Quantity: 1, UnitCost: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, shared.ErrImmutableState)

	_, err = svc.UpdateItem(context.Background(), q.ID, itemID, ItemRequest{
		Description: "Edit", Quantity: 2, UnitCost: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, shared.ErrImmutableState)

	_, err = svc.RemoveItem(context.Background(), q.ID, itemID)
	assert.ErrorIs(t, err, shared.ErrImmutableState)
}

func TestRemoveLastItemZeroesTotals(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	q := addReferenceItem(t, svc, draft.ID)

	q, err := svc.RemoveItem(context.Background(), q.ID, q.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, q.Items)
	assert.True(t, q.Subtotal.IsZero())
	assert.True(t, q.GrandTotal.IsZero())
	assert.True(t, q.Breakdown.GrandTotal.IsZero())
}

func TestTransitionStatusPersisted(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	q := createDraft(t, svc)

	updated, err := svc.TransitionStatus(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)
	assert.Equal(t, StatusSent, repo.quotations[q.ID].Status)

	_, err = svc.TransitionStatus(context.Background(), q.ID, StatusSent)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	updated, err = svc.TransitionStatus(context.Background(), q.ID, StatusAccepted)
	require.NoError(t, err)
	assert.NotNil(t, updated.DecidedAt)

	_, err = svc.TransitionStatus(context.Background(), q.ID, StatusRejected)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCloneRoundTrip(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	source := addReferenceItem(t, svc, draft.ID)

	_, err := svc.TransitionStatus(context.Background(), source.ID, StatusSent)
	require.NoError(t, err)

	clone, err := svc.Clone(context.Background(), source.ID, 9)
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, clone.ID)
	assert.NotEqual(t, source.Number, clone.Number)
	assert.Equal(t, StatusDraft, clone.Status)
	assert.Nil(t, clone.DecidedAt)
	assert.Equal(t, int64(9), clone.CreatedBy)
	require.Len(t, clone.Items, 1)
	assert.NotEqual(t, source.Items[0].ID, clone.Items[0].ID)

	// Same items under unchanged settings and rates price identically.
	assert.Equal(t, source.GrandTotal.StringFixed(2), clone.GrandTotal.StringFixed(2))
}

func TestLazyExpiryOnRead(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	q := createDraft(t, svc)

	_, err := svc.TransitionStatus(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)
	repo.quotations[q.ID].ValidUntil = time.Now().Add(-time.Hour)

	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	assert.Equal(t, StatusExpired, repo.quotations[q.ID].Status, "expiry must persist")
}

func TestShareTokenFlow(t *testing.T) {
	svc, _, _, tokens := newTestService(t)
	draft := createDraft(t, svc)
	q := addReferenceItem(t, svc, draft.ID)

	token, expiresAt, err := svc.GenerateShareToken(context.Background(), q.ID, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	public, err := svc.GetShared(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, q.Number, public.Number)
	assert.Equal(t, q.GrandTotal.StringFixed(2), public.GrandTotal.StringFixed(2))
	require.Len(t, public.Items, 1)
	assert.Equal(t, "65.00", public.Items[0].UnitPrice.StringFixed(2))

	_, err = svc.GetShared(context.Background(), "bogus")
	assert.ErrorIs(t, err, shared.ErrValidation)

	// Force expiry and verify rejection.
	grant := tokens.issued[token]
	grant.expiresAt = time.Now().Add(-time.Second)
	tokens.issued[token] = grant
	_, err = svc.GetShared(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSharedProjectionRedactsCosts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	draft := createDraft(t, svc)
	q := addReferenceItem(t, svc, draft.ID)

	public := q.Public()
	require.Len(t, public.Items, 1)
	// The projection carries sell prices only; rebuilding the cost basis
	// from it must be impossible.
	assert.Equal(t, q.Items[0].UnitPrice, public.Items[0].UnitPrice)
	assert.Equal(t, q.Items[0].LineTotal, public.Items[0].LineTotal)
}

func TestExportPDF(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	q := createDraft(t, svc)

	doc, err := svc.ExportPDF(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Contains(t, string(doc), q.Number)
}
