package quotes

import (
	"github.com/go-chi/chi/v5"

	"github.com/cotizo-erp/cotizo/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermQuotationView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/pdf", h.ExportPDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermQuotationCreate))
		r.Post("/", h.Create)
		r.Post("/{id}/clone", h.Clone)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermQuotationEdit))
		r.Put("/{id}", h.Update)
		r.Post("/{id}/items", h.AddItem)
		r.Put("/{id}/items/{itemID}", h.UpdateItem)
		r.Delete("/{id}/items/{itemID}", h.RemoveItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermQuotationSend))
		r.Post("/{id}/transition", h.Transition)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermQuotationShare))
		r.Post("/{id}/share", h.Share)
	})
}

// MountPublicRoutes registers the unauthenticated share-link endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/shared/{token}", h.Shared)
}
