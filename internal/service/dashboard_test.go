package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/mocks"
	"github.com/target/userdeck/internal/testutil"
)

func TestDashboardService_Load(t *testing.T) {
	api := mocks.NewMockUserAPI(gomock.NewController(t))
	svc := NewDashboardService(api)

	api.EXPECT().AnalyticsOverview(gomock.Any()).
		Return(model.AnalyticsOverview{TotalUsers: 10, NewUsers: 3, WeeklyUsers: 5, TodayUsers: 1}, nil)
	api.EXPECT().AnalyticsRecent(gomock.Any()).
		Return(testutil.RecentFrom(testutil.NewUser().Build()), nil)

	d, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, d.Overview.TotalUsers)
	require.Len(t, d.Recent, 1)
	assert.Equal(t, "u1", d.Recent[0].ID)
}

func TestDashboardService_LoadFailure(t *testing.T) {
	api := mocks.NewMockUserAPI(gomock.NewController(t))
	svc := NewDashboardService(api)

	api.EXPECT().AnalyticsOverview(gomock.Any()).
		Return(model.AnalyticsOverview{}, apperrors.Network(context.DeadlineExceeded)).AnyTimes()
	api.EXPECT().AnalyticsRecent(gomock.Any()).Return(nil, nil).AnyTimes()

	d, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, model.Dashboard{}, d)
}
