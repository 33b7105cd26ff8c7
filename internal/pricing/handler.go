package pricing

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cotizo-erp/cotizo/internal/platform/httpx"
	"github.com/cotizo-erp/cotizo/internal/rbac"
	"github.com/cotizo-erp/cotizo/internal/shared"
)

// Handler exposes pricing configuration over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		rbac:      rbacMW,
	}
}

func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ListSettings(r.Context())
	if err != nil {
		h.logger.Error("list settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (h *Handler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var req UpsertSettingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	setting, err := h.service.UpsertSetting(r.Context(), Setting{
		Key:          req.Key,
		Value:        req.Value,
		IsPercentage: req.IsPercentage,
		Description:  req.Description,
	})
	if err != nil {
		h.logger.Error("upsert setting", slog.String("key", req.Key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, setting)
}

func (h *Handler) ListHSCodes(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	codes, total, err := h.service.ListHSCodes(r.Context(), r.URL.Query().Get("search"), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list hs codes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"hs_codes":   codes,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) GetHSCode(w http.ResponseWriter, r *http.Request) {
	hs, err := h.service.GetHSCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, hs)
}

func (h *Handler) CreateHSCode(w http.ResponseWriter, r *http.Request) {
	var req CreateHSCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	hs, err := h.service.CreateHSCode(r.Context(), HSCode{
		Code:        req.Code,
		Description: req.Description,
		DutyRate:    req.DutyRate,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.Error("create hs code", slog.String("code", req.Code), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, hs)
}

func (h *Handler) UpdateHSCode(w http.ResponseWriter, r *http.Request) {
	var req UpdateHSCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	hs, err := h.service.UpdateHSCode(r.Context(), chi.URLParam(r, "code"), HSCode{
		Description: req.Description,
		DutyRate:    req.DutyRate,
		Notes:       req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, hs)
}

func (h *Handler) ListFreightRates(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	rates, total, err := h.service.ListFreightRates(
		r.Context(),
		r.URL.Query().Get("origin"),
		r.URL.Query().Get("destination"),
		perPage, (page-1)*perPage,
	)
	if err != nil {
		h.logger.Error("list freight rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"freight_rates": rates,
		"pagination":    shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) CreateFreightRate(w http.ResponseWriter, r *http.Request) {
	var req CreateFreightRateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	fr, err := h.service.CreateFreightRate(r.Context(), FreightRate{
		Origin:        req.Origin,
		Destination:   req.Destination,
		Incoterm:      Incoterm(req.Incoterm),
		RatePerKg:     req.RatePerKg,
		RatePerCbm:    req.RatePerCbm,
		MinimumCharge: req.MinimumCharge,
		TransitDays:   req.TransitDays,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		IsActive:      true,
	})
	if err != nil {
		h.logger.Error("create freight rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, fr)
}

func (h *Handler) DeactivateFreightRate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid freight rate id", shared.ErrValidation))
		return
	}
	if err := h.service.DeactivateFreightRate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
