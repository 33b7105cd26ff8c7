package quotes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cotizo-erp/cotizo/internal/rbac"
)

func TestListRejectsMalformedDateFilters(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, rbac.Middleware{})

	for _, query := range []string{"date_from=31-12-2026", "date_to=notadate"} {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/?date_from=2026-01-01&date_to=2026-02-01", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
