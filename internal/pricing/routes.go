package pricing

import (
	"github.com/go-chi/chi/v5"

	"github.com/cotizo-erp/cotizo/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermPricingView))
		r.Get("/settings", h.ListSettings)
		r.Get("/hs-codes", h.ListHSCodes)
		r.Get("/hs-codes/{code}", h.GetHSCode)
		r.Get("/freight-rates", h.ListFreightRates)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermPricingEdit))
		r.Put("/settings", h.UpsertSetting)
		r.Post("/hs-codes", h.CreateHSCode)
		r.Put("/hs-codes/{code}", h.UpdateHSCode)
		r.Post("/freight-rates", h.CreateFreightRate)
		r.Delete("/freight-rates/{id}", h.DeactivateFreightRate)
	})
}
