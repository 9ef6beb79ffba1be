package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/target/userdeck/internal/async"
	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/ports"
	"github.com/target/userdeck/internal/session"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	API            ports.UserAPI
	Gate           *async.Gate
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// UserService serves the directory and profile pages.
type UserService struct {
	api       ports.UserAPI
	gate      *async.Gate
	maxUpload int64
	logger    *slog.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := opts.Gate
	if gate == nil {
		gate = async.NewGate()
	}
	return &UserService{
		api:       opts.API,
		gate:      gate,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger.With("component", "user_service"),
	}
}

// Directory lists every user.
func (s *UserService) Directory(ctx context.Context) ([]model.User, error) {
	return s.api.ListUsers(ctx)
}

// User returns a single user by id.
func (s *UserService) User(ctx context.Context, id string) (model.User, error) {
	return s.api.GetUser(ctx, id)
}

// Profile returns the signed-in user.
func (s *UserService) Profile(ctx context.Context) (model.User, error) {
	return s.api.Me(ctx)
}

// ProfileView is a user's profile as seen by the signed-in viewer.
type ProfileView struct {
	Viewer model.User
	User   model.User
}

// Own reports whether the viewer is looking at their own profile.
func (v ProfileView) Own() bool {
	return v.Viewer.ID != "" && v.Viewer.ID == v.User.ID
}

// ProfileView fetches the viewer and the requested user in parallel.
func (s *UserService) ProfileView(ctx context.Context, id string) (ProfileView, error) {
	var view ProfileView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		me, err := s.api.Me(gctx)
		view.Viewer = me
		return err
	})
	g.Go(func() error {
		u, err := s.api.GetUser(gctx, id)
		view.User = u
		return err
	})
	if err := g.Wait(); err != nil {
		return ProfileView{}, err
	}
	return view, nil
}

// UpdateProfile validates and submits the profile form, then replaces the
// session's cached user with the one the API returned.
func (s *UserService) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateProfile(req, s.maxUpload); err != nil {
		return model.User{}, err
	}

	avatar, err := bufferAvatar(req.Avatar, s.maxUpload)
	if err != nil {
		return model.User{}, err
	}
	req.Avatar = avatar

	store := session.FromContext(ctx)
	actor := store.User().ID
	if actor == "" {
		actor = store.Token()
	}

	key := async.Key("profile.update", actor, req.Name, req.Email, req.Avatar.Digest())
	user, _, err := async.Submit(ctx, s.gate, key, func(ctx context.Context) (model.User, error) {
		return s.api.UpdateMe(ctx, req)
	})
	if err != nil {
		return model.User{}, err
	}
	if err := store.UpdateUser(user); err != nil {
		return model.User{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "update session user")
	}
	s.logger.InfoContext(ctx, "profile updated", "user_id", user.ID)
	return user, nil
}
