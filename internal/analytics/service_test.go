package analytics

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnalyticsRepo struct {
	summary      Summary
	byStatus     []StatusCount
	monthly      []MonthlyTotal
	topClients   []TopClient
	summaryCalls atomic.Int64
}

func (m *mockAnalyticsRepo) Summary(ctx context.Context) (Summary, error) {
	m.summaryCalls.Add(1)
	return m.summary, nil
}

func (m *mockAnalyticsRepo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	return m.byStatus, nil
}

func (m *mockAnalyticsRepo) MonthlyTotals(ctx context.Context, months int) ([]MonthlyTotal, error) {
	if months > len(m.monthly) {
		months = len(m.monthly)
	}
	return m.monthly[:months], nil
}

func (m *mockAnalyticsRepo) TopClients(ctx context.Context, limit int) ([]TopClient, error) {
	if limit > len(m.topClients) {
		limit = len(m.topClients)
	}
	return m.topClients[:limit], nil
}

func fixtureRepo() *mockAnalyticsRepo {
	return &mockAnalyticsRepo{
		summary: Summary{
			TotalQuotations: 12,
			OpenQuotations:  4,
			AcceptedValue:   decimal.NewFromInt(50000),
			AcceptanceRate:  decimal.NewFromFloat(62.5),
		},
		byStatus: []StatusCount{
			{Status: "draft", Count: 2}, {Status: "sent", Count: 2}, {Status: "accepted", Count: 5},
		},
		monthly: []MonthlyTotal{
			{Month: "2026-07", Count: 6, Total: decimal.NewFromInt(30000)},
			{Month: "2026-08", Count: 6, Total: decimal.NewFromInt(28000)},
		},
		topClients: []TopClient{
			{ClientName: "Acme", Count: 3, Total: decimal.NewFromInt(40000)},
		},
	}
}

func TestDashboardAggregates(t *testing.T) {
	repo := fixtureRepo()
	svc := NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	dash, err := svc.Dashboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(12), dash.Summary.TotalQuotations)
	assert.Len(t, dash.ByStatus, 3)
	assert.Len(t, dash.Monthly, 2)
	assert.Len(t, dash.TopClients, 1)
	assert.Equal(t, 2, dash.MonthsWindow)
}

func TestDashboardClampsWindow(t *testing.T) {
	repo := fixtureRepo()
	svc := NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	dash, err := svc.Dashboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultMonthsWindow, dash.MonthsWindow)

	dash, err = svc.Dashboard(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, maxMonthsWindow, dash.MonthsWindow)
}

func TestDashboardServedFromCache(t *testing.T) {
	repo := fixtureRepo()
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, 12)
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(1), repo.summaryCalls.Load(), "second call must come from cache")

	svc.Invalidate(ctx)
	_, err = svc.Dashboard(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.summaryCalls.Load(), "invalidation must force a reload")
}
