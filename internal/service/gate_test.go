package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/userdeck/internal/async"
	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/mocks"
)

// barrier releases its callers once n of them have arrived. It reports false
// when it gave up waiting, which means fewer than n calls reached the API.
type barrier struct {
	mu      sync.Mutex
	n       int
	arrived int
	ready   chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, ready: make(chan struct{})}
}

func (b *barrier) wait() bool {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.ready)
	}
	b.mu.Unlock()

	select {
	case <-b.ready:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

// runBoth runs two submissions at the same time and returns their outcomes.
func runBoth(first, second func() (string, error)) ([2]string, [2]error) {
	var (
		wg   sync.WaitGroup
		out  [2]string
		errs [2]error
	)
	for i, fn := range []func() (string, error){first, second} {
		wg.Add(1)
		go func(i int, fn func() (string, error)) {
			defer wg.Done()
			out[i], errs[i] = fn()
		}(i, fn)
	}
	wg.Wait()
	return out, errs
}

func TestGatedSubmissions_DistinctPayloadsRunSeparately(t *testing.T) {
	tests := []struct {
		name   string
		expect func(api *mocks.MockUserAPI, b *barrier, seen func(string))
		run    func(auth *AuthService, users *UserService) ([2]string, [2]error)
		check  func(t *testing.T, out [2]string, errs [2]error)
	}{
		{
			name: "login with a different password",
			expect: func(api *mocks.MockUserAPI, b *barrier, seen func(string)) {
				api.EXPECT().Login(gomock.Any(), gomock.Any()).Times(2).
					DoAndReturn(func(_ context.Context, req model.LoginRequest) (model.AuthResult, error) {
						seen(req.Email + "/" + req.Password)
						b.wait()
						if req.Password != "secret1" {
							return model.AuthResult{}, apperrors.Unauthorized(401, "Invalid credentials")
						}
						return model.AuthResult{User: model.User{ID: "u1"}, Token: "t1"}, nil
					})
			},
			run: func(auth *AuthService, _ *UserService) ([2]string, [2]error) {
				login := func(email, password string) func() (string, error) {
					return func() (string, error) {
						ctx, store := newSessionCtx(t, "")
						_, err := auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
						return store.Token(), err
					}
				}
				return runBoth(login("a@b.com", "secret1"), login("a@b.com", "wrong-password"))
			},
			check: func(t *testing.T, out [2]string, errs [2]error) {
				require.NoError(t, errs[0])
				assert.Equal(t, "t1", out[0])
				assert.True(t, apperrors.IsUnauthorized(errs[1]))
				assert.Empty(t, out[1], "a rejected password must not receive a session")
			},
		},
		{
			name: "signup with different details for one email",
			expect: func(api *mocks.MockUserAPI, b *barrier, seen func(string)) {
				api.EXPECT().Signup(gomock.Any(), gomock.Any()).Times(2).
					DoAndReturn(func(_ context.Context, req model.SignupRequest) error {
						seen(req.Name)
						b.wait()
						return nil
					})
			},
			run: func(auth *AuthService, _ *UserService) ([2]string, [2]error) {
				signup := func(name string) func() (string, error) {
					return func() (string, error) {
						return name, auth.Signup(context.Background(), model.SignupRequest{
							Name: name, Email: "ada@example.com", Password: "secret1", Age: "30",
						})
					}
				}
				return runBoth(signup("Ada"), signup("Grace"))
			},
			check: func(t *testing.T, _ [2]string, errs [2]error) {
				assert.NoError(t, errs[0])
				assert.NoError(t, errs[1])
			},
		},
		{
			name: "profile edits from two tabs",
			expect: func(api *mocks.MockUserAPI, b *barrier, seen func(string)) {
				api.EXPECT().UpdateMe(gomock.Any(), gomock.Any()).Times(2).
					DoAndReturn(func(_ context.Context, req model.UpdateProfileRequest) (model.User, error) {
						seen(req.Name)
						b.wait()
						return model.User{ID: "u1", Name: req.Name, Email: req.Email}, nil
					})
			},
			run: func(_ *AuthService, users *UserService) ([2]string, [2]error) {
				update := func(name string) func() (string, error) {
					return func() (string, error) {
						ctx, _ := newSessionCtx(t, "t1")
						u, err := users.UpdateProfile(ctx, model.UpdateProfileRequest{Name: name, Email: "a@b.com"})
						return u.Name, err
					}
				}
				return runBoth(update("Alice"), update("Bob"))
			},
			check: func(t *testing.T, out [2]string, errs [2]error) {
				require.NoError(t, errs[0])
				require.NoError(t, errs[1])
				assert.Equal(t, [2]string{"Alice", "Bob"}, out)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockUserAPI(gomock.NewController(t))
			gate := async.NewGate()
			auth := NewAuthService(AuthServiceOptions{API: api, Gate: gate})
			users := NewUserService(UserServiceOptions{API: api, Gate: gate})

			var mu sync.Mutex
			var calls []string
			tt.expect(api, newBarrier(2), func(s string) {
				mu.Lock()
				calls = append(calls, s)
				mu.Unlock()
			})

			out, errs := tt.run(auth, users)
			tt.check(t, out, errs)

			assert.Len(t, calls, 2, "each payload needs its own remote call: %v", calls)
		})
	}
}

func TestGatedSubmissions_IdenticalLoginsShareOneCall(t *testing.T) {
	api := mocks.NewMockUserAPI(gomock.NewController(t))
	svc := NewAuthService(AuthServiceOptions{API: api})

	entered := make(chan struct{})
	release := make(chan struct{})
	api.EXPECT().Login(gomock.Any(), model.LoginRequest{Email: "a@b.com", Password: "secret1"}).Times(1).
		DoAndReturn(func(context.Context, model.LoginRequest) (model.AuthResult, error) {
			close(entered)
			<-release
			return model.AuthResult{User: model.User{ID: "u1"}, Token: "t1"}, nil
		})

	login := func() (string, error) {
		ctx, store := newSessionCtx(t, "")
		_, err := svc.Login(ctx, model.LoginRequest{Email: "a@b.com", Password: "secret1"})
		return store.Token(), err
	}

	var wg sync.WaitGroup
	var out [2]string
	var errs [2]error
	wg.Add(1)
	go func() {
		defer wg.Done()
		out[0], errs[0] = login()
	}()
	<-entered
	wg.Add(1)
	go func() {
		defer wg.Done()
		out[1], errs[1] = login()
	}()
	// Let the duplicate join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range out {
		require.NoError(t, errs[i])
		assert.Equal(t, "t1", out[i])
	}
}

func TestUpdateProfile_AvatarOutlivesCallerRequest(t *testing.T) {
	api := mocks.NewMockUserAPI(gomock.NewController(t))
	svc := NewUserService(UserServiceOptions{API: api})

	// The avatar is backed by a file the way multipart parts spill to disk.
	path := filepath.Join(t.TempDir(), "multipart-avatar")
	content := []byte("\x89PNG avatar bytes")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	upload := &model.Upload{
		Filename:    "me.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	sent := make(chan []byte, 1)
	api.EXPECT().UpdateMe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req model.UpdateProfileRequest) (model.User, error) {
			close(entered)
			<-release
			src, err := req.Avatar.Open()
			if err != nil {
				sent <- nil
				return model.User{}, err
			}
			defer src.Close()
			data, _ := io.ReadAll(src)
			sent <- data
			return model.User{ID: "u1", Name: req.Name}, nil
		})

	ctx, _ := newSessionCtx(t, "t1")
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		_, err := svc.UpdateProfile(ctx, model.UpdateProfileRequest{Name: "Ada", Email: "a@b.com", Avatar: upload})
		done <- err
	}()

	<-entered
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The request has ended, so its multipart temp files are gone.
	require.NoError(t, os.Remove(path))
	close(release)

	select {
	case data := <-sent:
		assert.Equal(t, content, data)
	case <-time.After(2 * time.Second):
		t.Fatal("gated update never finished")
	}
}

func TestUpdateProfile_AvatarLargerThanDeclared(t *testing.T) {
	// No EXPECT: the oversized file must be rejected before any API call.
	api := mocks.NewMockUserAPI(gomock.NewController(t))
	svc := NewUserService(UserServiceOptions{API: api, MaxUploadBytes: 1024})
	ctx, _ := newSessionCtx(t, "t1")

	payload := strings.Repeat("x", 2*1024)
	_, err := svc.UpdateProfile(ctx, model.UpdateProfileRequest{
		Name:  "Ada",
		Email: "a@b.com",
		Avatar: &model.Upload{
			Filename:    "me.png",
			ContentType: "image/png",
			Size:        10,
			Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(payload)), nil },
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "profilePicture", apperrors.GetField(err))
	assert.Equal(t, "File size must be less than 1024 bytes", apperrors.UserMessage(err, ""))
}
