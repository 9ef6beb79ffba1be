package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/target/userdeck/internal/domain/model"
	"github.com/target/userdeck/internal/ports"
)

// DashboardService loads the analytics dashboard.
type DashboardService struct {
	api ports.UserAPI
}

// NewDashboardService constructs a new DashboardService.
func NewDashboardService(api ports.UserAPI) *DashboardService {
	return &DashboardService{api: api}
}

// Load fetches the overview counters and recent signups in parallel. The
// first failure cancels the other call.
func (s *DashboardService) Load(ctx context.Context) (model.Dashboard, error) {
	var d model.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov, err := s.api.AnalyticsOverview(gctx)
		d.Overview = ov
		return err
	})
	g.Go(func() error {
		recent, err := s.api.AnalyticsRecent(gctx)
		d.Recent = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}
	return d, nil
}
