package catalog

import (
	"github.com/go-chi/chi/v5"

	"github.com/cotizo-erp/cotizo/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermCatalogView))
		r.Get("/suppliers", h.ListSuppliers)
		r.Get("/suppliers/{id}", h.GetSupplier)
		r.Get("/taxonomies/{kind}", h.ListTaxonomies)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/portfolios", h.ListPortfolios)
		r.Get("/portfolios/{id}", h.GetPortfolio)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermCatalogEdit))
		r.Post("/suppliers", h.CreateSupplier)
		r.Put("/suppliers/{id}", h.UpdateSupplier)
		r.Delete("/suppliers/{id}", h.DeleteSupplier)
		r.Post("/taxonomies/{kind}", h.CreateTaxonomy)
		r.Put("/taxonomies/{kind}/{id}", h.UpdateTaxonomy)
		r.Delete("/taxonomies/{kind}/{id}", h.DeleteTaxonomy)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Post("/portfolios", h.CreatePortfolio)
		r.Put("/portfolios/{id}", h.UpdatePortfolio)
		r.Delete("/portfolios/{id}", h.DeletePortfolio)
	})
}
