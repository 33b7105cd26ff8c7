package analytics

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMonthsWindow = 12
	maxMonthsWindow     = 36
	topClientsLimit     = 5
)

type Service struct {
	repo   Repository
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Dashboard assembles the KPI payload. Concurrent identical requests
// collapse into one load; results are served from the versioned cache
// when fresh.
func (s *Service) Dashboard(ctx context.Context, months int) (Dashboard, error) {
	if months <= 0 {
		months = defaultMonthsWindow
	}
	if months > maxMonthsWindow {
		months = maxMonthsWindow
	}

	key, err := s.cache.Key(ctx, "dashboard", strconv.Itoa(months))
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		return s.load(ctx, months)
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		var dash Dashboard
		err := s.cache.FetchJSON(ctx, key, &dash, func(ctx context.Context) (any, error) {
			return s.load(ctx, months)
		})
		return dash, err
	})
	if err != nil {
		return Dashboard{}, err
	}
	return result.(Dashboard), nil
}

// Invalidate drops cached dashboards after a quotation write. Failures
// are logged and swallowed so cache trouble never fails the write.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump", slog.Any("error", err))
	}
}

func (s *Service) load(ctx context.Context, months int) (Dashboard, error) {
	var dash Dashboard
	dash.MonthsWindow = months

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.repo.Summary(ctx)
		if err != nil {
			return err
		}
		dash.Summary = summary
		return nil
	})
	g.Go(func() error {
		byStatus, err := s.repo.CountByStatus(ctx)
		if err != nil {
			return err
		}
		dash.ByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		monthly, err := s.repo.MonthlyTotals(ctx, months)
		if err != nil {
			return err
		}
		dash.Monthly = monthly
		return nil
	})
	g.Go(func() error {
		topClients, err := s.repo.TopClients(ctx, topClientsLimit)
		if err != nil {
			return err
		}
		dash.TopClients = topClients
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}
