package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cotizo-erp/cotizo/internal/pricing"
	"github.com/cotizo-erp/cotizo/internal/shared"
)

// PDFRenderer converts a quotation snapshot into a document. Rendering
// failures are reported to the caller, never retried here.
type PDFRenderer interface {
	Render(ctx context.Context, q *Quotation) ([]byte, error)
}

// CacheInvalidator is notified after every quotation write so derived
// views (the dashboard) can drop stale caches.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service orchestrates the quotation lifecycle: numbering, item
// management, recalculation, status workflow, cloning, sharing, export.
type Service struct {
	repo        Repository
	pricing     *pricing.Service
	tokens      ShareTokens
	renderer    PDFRenderer
	invalidator CacheInvalidator
	logger      *slog.Logger
}

func NewService(repo Repository, pricingSvc *pricing.Service, tokens ShareTokens, renderer PDFRenderer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		pricing:  pricingSvc,
		tokens:   tokens,
		renderer: renderer,
		logger:   logger,
	}
}

// SetInvalidator attaches the write-notification hook. Wired after
// construction to keep the service/analytics dependency one-way.
func (s *Service) SetInvalidator(inv CacheInvalidator) {
	s.invalidator = inv
}

func (s *Service) notifyWrite(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

var oneHundred = decimal.NewFromInt(100)

// validateDiscount guards the reduction invariant: a discount can only
// lower the grand total, never raise it.
func validateDiscount(percent, amount decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(oneHundred) {
		return fmt.Errorf("%w: discount_percent must be between 0 and 100", shared.ErrValidation)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: discount_amount must be non-negative", shared.ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	incoterm := pricing.Incoterm(strings.ToUpper(req.Incoterm))
	if !incoterm.Known() {
		return nil, fmt.Errorf("%w: unrecognised incoterm %q", shared.ErrValidation, req.Incoterm)
	}
	if err := validateDiscount(req.DiscountPercent, req.DiscountAmount); err != nil {
		return nil, err
	}

	validUntil := time.Now().AddDate(0, 0, s.pricing.QuoteValidityDays(ctx))
	if req.ValidUntil != nil {
		if req.ValidUntil.Before(time.Now()) {
			return nil, fmt.Errorf("%w: valid_until must be in the future", shared.ErrValidation)
		}
		validUntil = *req.ValidUntil
	}

	q := Quotation{
		ClientName:      req.ClientName,
		ClientReference: req.ClientReference,
		Status:          StatusDraft,
		Incoterm:        incoterm,
		Currency:        defaultString(req.Currency, "USD"),
		LocalCurrency:   defaultString(req.LocalCurrency, "COP"),
		Origin:          req.Origin,
		Destination:     req.Destination,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		Notes:           req.Notes,
		ValidUntil:      validUntil,
		CreatedBy:       createdBy,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("next quotation number: %w", err)
		}
		q.Number = number
		id, err = repo.Create(ctx, q)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quotation created", slog.String("number", q.Number), slog.Int64("id", id))
	s.notifyWrite(ctx)
	return s.Get(ctx, id)
}

// Get loads a quotation and applies lazy expiry: a sent quotation past
// its validity window flips to expired on read. The flip is persisted
// best-effort; the read still succeeds if that write fails.
func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if ExpireIfDue(q, time.Now()) {
		if err := s.repo.UpdateStatus(ctx, q.ID, q.Status, q.DecidedAt); err != nil {
			s.logger.Warn("persist lazy expiry", slog.Int64("id", q.ID), slog.Any("error", err))
		}
	}
	return q, nil
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	return s.repo.List(ctx, req)
}

// UpdateHeader edits client and pricing-relevant header fields. Only
// draft quotations accept changes that affect totals; the recalculation
// and header write commit together.
func (s *Service) UpdateHeader(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.Editable() {
		return nil, fmt.Errorf("%w: status is %s", shared.ErrImmutableState, q.Status)
	}

	if req.ClientName != nil {
		q.ClientName = *req.ClientName
	}
	if req.ClientReference != nil {
		q.ClientReference = req.ClientReference
	}
	if req.Incoterm != nil {
		incoterm := pricing.Incoterm(strings.ToUpper(*req.Incoterm))
		if !incoterm.Known() {
			return nil, fmt.Errorf("%w: unrecognised incoterm %q", shared.ErrValidation, *req.Incoterm)
		}
		q.Incoterm = incoterm
	}
	if req.Origin != nil {
		q.Origin = *req.Origin
	}
	if req.Destination != nil {
		q.Destination = *req.Destination
	}
	if req.OtherCosts != nil {
		if req.OtherCosts.IsNegative() {
			return nil, fmt.Errorf("%w: other_costs must be non-negative", shared.ErrValidation)
		}
		q.OtherCosts = *req.OtherCosts
	}
	if req.DiscountPercent != nil {
		q.DiscountPercent = *req.DiscountPercent
	}
	if req.DiscountAmount != nil {
		q.DiscountAmount = *req.DiscountAmount
	}
	if err := validateDiscount(q.DiscountPercent, q.DiscountAmount); err != nil {
		return nil, err
	}
	if req.Notes != nil {
		q.Notes = req.Notes
	}
	if req.ValidUntil != nil {
		q.ValidUntil = *req.ValidUntil
	}

	if err := s.recalculate(ctx, q); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, q); err != nil {
			return fmt.Errorf("update header: %w", err)
		}
		return repo.UpdateTotals(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.notifyWrite(ctx)
	return s.Get(ctx, id)
}

// nextSortOrder returns one past the highest order in use, so defaults
// stay unique even after deletions leave gaps.
func nextSortOrder(items []Item) int {
	highest := 0
	for _, it := range items {
		if it.SortOrder > highest {
			highest = it.SortOrder
		}
	}
	return highest + 1
}

func sortOrderTaken(items []Item, order int, excludeID int64) bool {
	for _, it := range items {
		if it.ID != excludeID && it.SortOrder == order {
			return true
		}
	}
	return false
}

// AddItem appends a line to a draft quotation. The tariff percent is
// resolved from the item's HS code now, at creation time, and stored on
// the line. The item insert and the recomputed totals commit atomically.
func (s *Service) AddItem(ctx context.Context, quotationID int64, req ItemRequest) (*Quotation, error) {
	q, err := s.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Status.Editable() {
		return nil, fmt.Errorf("%w: status is %s", shared.ErrImmutableState, q.Status)
	}

	item, err := s.buildItem(ctx, q, req)
	if err != nil {
		return nil, err
	}
	if item.SortOrder == 0 {
		item.SortOrder = nextSortOrder(q.Items)
	} else if sortOrderTaken(q.Items, item.SortOrder, 0) {
		return nil, fmt.Errorf("%w: sort_order %d already in use", shared.ErrValidation, item.SortOrder)
	}

	q.Items = append(q.Items, *item)
	if err := s.recalculate(ctx, q); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.InsertItem(ctx, *item); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return repo.UpdateTotals(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.notifyWrite(ctx)
	return s.Get(ctx, quotationID)
}

func (s *Service) UpdateItem(ctx context.Context, quotationID, itemID int64, req ItemRequest) (*Quotation, error) {
	q, err := s.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Status.Editable() {
		return nil, fmt.Errorf("%w: status is %s", shared.ErrImmutableState, q.Status)
	}

	idx := -1
	for i := range q.Items {
		if q.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: item %d", shared.ErrNotFound, itemID)
	}

	item, err := s.buildItem(ctx, q, req)
	if err != nil {
		return nil, err
	}
	item.ID = itemID
	if item.SortOrder == 0 {
		item.SortOrder = q.Items[idx].SortOrder
	} else if sortOrderTaken(q.Items, item.SortOrder, itemID) {
		return nil, fmt.Errorf("%w: sort_order %d already in use", shared.ErrValidation, item.SortOrder)
	}

	q.Items[idx] = *item
	if err := s.recalculate(ctx, q); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateItem(ctx, *item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return repo.UpdateTotals(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.notifyWrite(ctx)
	return s.Get(ctx, quotationID)
}

func (s *Service) RemoveItem(ctx context.Context, quotationID, itemID int64) (*Quotation, error) {
	q, err := s.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Status.Editable() {
		return nil, fmt.Errorf("%w: status is %s", shared.ErrImmutableState, q.Status)
	}

	kept := q.Items[:0]
	found := false
	for _, it := range q.Items {
		if it.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return nil, fmt.Errorf("%w: item %d", shared.ErrNotFound, itemID)
	}
	q.Items = kept

	if err := s.recalculate(ctx, q); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return repo.UpdateTotals(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.notifyWrite(ctx)
	return s.Get(ctx, quotationID)
}

// TransitionStatus applies the state machine and persists the result.
func (s *Service) TransitionStatus(ctx context.Context, id int64, target Status) (*Quotation, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(q, target, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, q.ID, q.Status, q.DecidedAt); err != nil {
		return nil, fmt.Errorf("persist status: %w", err)
	}
	s.logger.Info("quotation status changed",
		slog.String("number", q.Number), slog.String("status", string(q.Status)))
	s.notifyWrite(ctx)
	return q, nil
}

// Clone produces a fresh draft with a new number and copied items under
// new identities. Source status, timestamps and share tokens are ignored;
// totals are recomputed against current settings.
func (s *Service) Clone(ctx context.Context, id int64, createdBy int64) (*Quotation, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := *src
	clone.ID = 0
	clone.Status = StatusDraft
	clone.DecidedAt = nil
	clone.CreatedBy = createdBy
	clone.ValidUntil = time.Now().AddDate(0, 0, s.pricing.QuoteValidityDays(ctx))
	clone.Items = nil

	if err := s.recalcFromItems(ctx, &clone, src.Items); err != nil {
		return nil, err
	}

	var cloneID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("next quotation number: %w", err)
		}
		clone.Number = number
		cloneID, err = repo.Create(ctx, clone)
		if err != nil {
			return fmt.Errorf("create clone: %w", err)
		}
		for i, it := range src.Items {
			it.ID = 0
			it.QuotationID = cloneID
			if it.SortOrder == 0 {
				it.SortOrder = i + 1
			}
			if _, err := repo.InsertItem(ctx, it); err != nil {
				return fmt.Errorf("copy item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quotation cloned", slog.Int64("source", id), slog.Int64("clone", cloneID))
	s.notifyWrite(ctx)
	return s.Get(ctx, cloneID)
}

// GenerateShareToken issues a signed, expiring read-only link credential
// for the quotation. Re-issuing is the only way to "revoke" one.
func (s *Service) GenerateShareToken(ctx context.Context, id int64, ttl time.Duration) (string, time.Time, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	token, expiresAt, err := s.tokens.IssueShareToken(q.ID, ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue share token: %w", err)
	}
	return token, expiresAt, nil
}

// GetShared resolves a share token to the public projection.
func (s *Service) GetShared(ctx context.Context, token string) (*PublicQuotation, error) {
	id, err := s.tokens.VerifyShareToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	public := q.Public()
	return &public, nil
}

// ExportPDF renders the persisted state of the quotation. Nothing is
// recomputed here; the document reflects what the totals columns hold.
func (s *Service) ExportPDF(ctx context.Context, id int64) ([]byte, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("render quotation %s: %w", q.Number, err)
	}
	return doc, nil
}

// buildItem validates an item request and snapshots HS code and product
// data onto the line.
func (s *Service) buildItem(ctx context.Context, q *Quotation, req ItemRequest) (*Item, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", shared.ErrValidation)
	}
	if req.UnitCost.IsNegative() || req.UnitPrice.IsNegative() || req.MarkupPercent.IsNegative() || req.FreightAmount.IsNegative() {
		return nil, fmt.Errorf("%w: monetary fields must be non-negative", shared.ErrValidation)
	}

	item := Item{
		QuotationID:   q.ID,
		ProductID:     req.ProductID,
		Description:   req.Description,
		Quantity:      req.Quantity,
		UnitCost:      req.UnitCost,
		UnitPrice:     req.UnitPrice,
		MarkupPercent: req.MarkupPercent,
		FreightAmount: req.FreightAmount,
		WeightKg:      req.WeightKg,
		VolumeCbm:     req.VolumeCbm,
		SortOrder:     req.SortOrder,
	}

	if req.HSCode != nil && *req.HSCode != "" {
		hs, err := s.pricing.GetHSCode(ctx, *req.HSCode)
		if err != nil {
			return nil, err
		}
		item.HSCode = &hs.Code
		item.TariffPercent = hs.DutyRate
	}

	item.ComputeDerived()
	return &item, nil
}

// recalculate reprices the quotation from its current item set.
func (s *Service) recalculate(ctx context.Context, q *Quotation) error {
	return s.recalcFromItems(ctx, q, q.Items)
}

func (s *Service) recalcFromItems(ctx context.Context, q *Quotation, items []Item) error {
	q.Items = items

	if len(items) == 0 {
		zero := decimal.Zero
		q.Subtotal, q.FreightCost, q.InsuranceCost, q.Total, q.GrandTotal = zero, zero, zero, zero, zero
		q.Breakdown = pricing.Breakdown{Currency: q.LocalCurrency}
		return nil
	}

	settings, err := s.pricing.CalcSettings(ctx)
	if err != nil {
		return err
	}

	lines := make([]pricing.LineInput, 0, len(items))
	var subtotal, total decimal.Decimal
	for _, it := range items {
		lines = append(lines, pricing.LineInput{
			UnitCost:      it.UnitCost,
			Quantity:      it.Quantity,
			TariffPercent: it.TariffPercent,
			WeightKg:      it.WeightKg,
			VolumeCbm:     it.VolumeCbm,
		})
		qty := decimal.NewFromInt(it.Quantity)
		subtotal = subtotal.Add(it.UnitPrice.Mul(qty))
		total = total.Add(it.LineTotal)
	}

	var freight *pricing.FreightRate
	if q.Incoterm.BuyerPaysFreight() {
		fr, err := s.pricing.ResolveFreight(ctx, q.Origin, q.Destination, q.Incoterm, time.Now())
		if err != nil {
			return err
		}
		freight = &fr
	}

	breakdown, err := pricing.Calculate(lines, q.Incoterm, settings, freight)
	if err != nil {
		return err
	}
	breakdown.Currency = q.LocalCurrency
	q.Breakdown = breakdown

	q.Subtotal = pricing.RoundMoney(subtotal)
	q.FreightCost = pricing.RoundMoney(breakdown.FreightIntl)
	q.InsuranceCost = pricing.RoundMoney(breakdown.Insurance)
	q.Total = pricing.RoundMoney(total)

	base := q.Subtotal.Add(q.FreightCost).Add(q.InsuranceCost).Add(q.OtherCosts)
	discounted := base.Mul(oneHundred.Sub(q.DiscountPercent)).Div(oneHundred).Sub(q.DiscountAmount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}
	q.GrandTotal = pricing.RoundMoney(discounted)
	return nil
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
