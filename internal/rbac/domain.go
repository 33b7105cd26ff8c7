package rbac

import "strings"

// Permission strings referenced by route guards.
const (
	PermCatalogView     = "catalog.view"
	PermCatalogEdit     = "catalog.edit"
	PermPricingView     = "pricing.view"
	PermPricingEdit     = "pricing.edit"
	PermQuotationView   = "quotation.view"
	PermQuotationCreate = "quotation.create"
	PermQuotationEdit   = "quotation.edit"
	PermQuotationSend   = "quotation.send"
	PermQuotationShare  = "quotation.share"
	PermDashboardView   = "dashboard.view"
	PermAdmin           = "admin"
)

// Roles known to the system.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSales   = "sales"
	RoleViewer  = "viewer"
)

// rolePermissions is the single source of truth mapping roles to grants.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermCatalogView, PermCatalogEdit, PermPricingView, PermPricingEdit,
		PermQuotationView, PermQuotationCreate, PermQuotationEdit,
		PermQuotationSend, PermQuotationShare, PermDashboardView, PermAdmin,
	},
	RoleManager: {
		PermCatalogView, PermCatalogEdit, PermPricingView, PermPricingEdit,
		PermQuotationView, PermQuotationCreate, PermQuotationEdit,
		PermQuotationSend, PermQuotationShare, PermDashboardView,
	},
	RoleSales: {
		PermCatalogView, PermPricingView,
		PermQuotationView, PermQuotationCreate, PermQuotationEdit,
		PermQuotationShare, PermDashboardView,
	},
	RoleViewer: {
		PermCatalogView, PermQuotationView, PermDashboardView,
	},
}

// PermissionsForRole returns the grants for a role, empty for unknown roles.
func PermissionsForRole(role string) []string {
	perms, ok := rolePermissions[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

func hasAny(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

func hasAll(granted []string, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

func normalize(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
