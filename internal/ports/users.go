package ports

import (
	"context"

	"github.com/target/userdeck/internal/domain/model"
)

// UserAPI is the remote REST API that owns users, credentials, and analytics.
// Implementations attach the caller's bearer token from ctx.
type UserAPI interface {
	Signup(ctx context.Context, req model.SignupRequest) error
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error)
	GoogleLogin(ctx context.Context, accessToken string) (model.AuthResult, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	Me(ctx context.Context) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateMe(ctx context.Context, req model.UpdateProfileRequest) (model.User, error)

	AnalyticsOverview(ctx context.Context) (model.AnalyticsOverview, error)
	AnalyticsRecent(ctx context.Context) ([]model.RecentUser, error)
}
