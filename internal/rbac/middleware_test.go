package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

func doRequest(t *testing.T, mw func(http.Handler) http.Handler, identity *shared.Identity) int {
	t.Helper()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAny(t *testing.T) {
	m := Middleware{}

	cases := []struct {
		name     string
		role     string
		perms    []string
		expected int
	}{
		{"viewer can view quotations", RoleViewer, []string{PermQuotationView}, http.StatusOK},
		{"viewer cannot edit catalog", RoleViewer, []string{PermCatalogEdit}, http.StatusForbidden},
		{"sales holds one of several", RoleSales, []string{PermPricingEdit, PermQuotationCreate}, http.StatusOK},
		{"manager edits pricing", RoleManager, []string{PermPricingEdit}, http.StatusOK},
		{"sales cannot send", RoleSales, []string{PermQuotationSend}, http.StatusForbidden},
		{"unknown role denied", "intern", []string{PermQuotationView}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := doRequest(t, m.RequireAny(tc.perms...), &shared.Identity{UserID: 1, Role: tc.role})
			assert.Equal(t, tc.expected, code)
		})
	}
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	m := Middleware{}

	code := doRequest(t, m.RequireAll(PermQuotationView, PermQuotationSend), &shared.Identity{UserID: 1, Role: RoleManager})
	assert.Equal(t, http.StatusOK, code)

	code = doRequest(t, m.RequireAll(PermQuotationView, PermQuotationSend), &shared.Identity{UserID: 1, Role: RoleSales})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMissingIdentityUnauthorized(t *testing.T) {
	m := Middleware{}
	code := doRequest(t, m.RequireAny(PermQuotationView), nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEmptyRequirementPasses(t *testing.T) {
	m := Middleware{}
	code := doRequest(t, m.RequireAny(), nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPermissionsForRole(t *testing.T) {
	assert.Contains(t, PermissionsForRole("ADMIN"), PermAdmin)
	assert.Contains(t, PermissionsForRole(" manager "), PermQuotationSend)
	assert.NotContains(t, PermissionsForRole(RoleSales), PermQuotationSend)
	assert.Empty(t, PermissionsForRole("nobody"))
}
