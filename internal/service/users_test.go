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

func newUserService(t *testing.T) (*UserService, *mocks.MockUserAPI) {
	t.Helper()
	api := mocks.NewMockUserAPI(gomock.NewController(t))
	return NewUserService(UserServiceOptions{API: api}), api
}

func TestUserService_Directory(t *testing.T) {
	svc, api := newUserService(t)
	users := []model.User{testutil.NewUser().Build(), testutil.NewUser().WithID("u2").Build()}
	api.EXPECT().ListUsers(gomock.Any()).Return(users, nil)

	got, err := svc.Directory(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUserService_UserNotFound(t *testing.T) {
	svc, api := newUserService(t)
	api.EXPECT().GetUser(gomock.Any(), "missing").Return(model.User{}, apperrors.NotFound("User not found"))

	_, err := svc.User(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserService_ProfileViewOwn(t *testing.T) {
	svc, api := newUserService(t)
	me := testutil.NewUser().Build()
	api.EXPECT().Me(gomock.Any()).Return(me, nil)
	api.EXPECT().GetUser(gomock.Any(), "u1").Return(me, nil)

	view, err := svc.ProfileView(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, view.Own())
}

func TestUserService_ProfileViewOther(t *testing.T) {
	svc, api := newUserService(t)
	api.EXPECT().Me(gomock.Any()).Return(testutil.NewUser().Build(), nil)
	api.EXPECT().GetUser(gomock.Any(), "u2").Return(testutil.NewUser().WithID("u2").Build(), nil)

	view, err := svc.ProfileView(context.Background(), "u2")
	require.NoError(t, err)
	assert.False(t, view.Own())
	assert.Equal(t, "u2", view.User.ID)
}

func TestUserService_ProfileViewFailure(t *testing.T) {
	svc, api := newUserService(t)
	api.EXPECT().Me(gomock.Any()).Return(model.User{}, apperrors.Unauthorized(401, "")).AnyTimes()
	api.EXPECT().GetUser(gomock.Any(), "u2").Return(model.User{}, nil).AnyTimes()

	_, err := svc.ProfileView(context.Background(), "u2")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestUserService_UpdateProfileReplacesSessionUser(t *testing.T) {
	svc, api := newUserService(t)
	ctx, store := newSessionCtx(t, "")
	require.NoError(t, store.Set("t1", testutil.NewUser().Build(), 7))

	updated := testutil.NewUser().WithName("Ada L.").Build()
	api.EXPECT().
		UpdateMe(gomock.Any(), model.UpdateProfileRequest{Name: "Ada L.", Email: "a@b.com"}).
		Return(updated, nil)

	got, err := svc.UpdateProfile(ctx, model.UpdateProfileRequest{Name: " Ada L. ", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "Ada L.", store.User().Name)
	assert.Equal(t, "t1", store.Token())
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx, _ := newSessionCtx(t, "t1")

	_, err := svc.UpdateProfile(ctx, model.UpdateProfileRequest{Name: "", Email: "a@b.com"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "name", apperrors.GetField(err))

	_, err = svc.UpdateProfile(ctx, model.UpdateProfileRequest{
		Name: "Ada", Email: "a@b.com",
		Avatar: &model.Upload{Filename: "x.txt", ContentType: "text/plain", Size: 3},
	})
	assert.Equal(t, "Only image files are allowed", apperrors.UserMessage(err, ""))
}

func TestUserService_UpdateProfileError(t *testing.T) {
	svc, api := newUserService(t)
	ctx, store := newSessionCtx(t, "")
	require.NoError(t, store.Set("t1", testutil.NewUser().Build(), 7))

	api.EXPECT().UpdateMe(gomock.Any(), gomock.Any()).Return(model.User{}, apperrors.Application(500, ""))

	_, err := svc.UpdateProfile(ctx, model.UpdateProfileRequest{Name: "Ada", Email: "a@b.com"})
	require.Error(t, err)
	assert.Equal(t, "Error updating profile", apperrors.UserMessage(err, "Error updating profile"))
	assert.Equal(t, "Ada Lovelace", store.User().Name)
}
