package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	services "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *UserRepoMock) DeleteUser(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
		errMsg     string
	}{
		{
			name:     "successful registration",
			email:    " John@Example.com ",
			password: "password123",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "john@example.com" &&
						user.Name == "John" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "password123" &&
						user.Role == models.RoleUser
				})).Return(&models.User{ID: "u-1", Name: "John", Email: "john@example.com", Role: models.RoleUser}, nil).Once()
				j.On("GenerateToken", "u-1", models.RoleUser).Return("jwt-token", nil).Once()
			},
			wantToken: "jwt-token",
		},
		{
			name:       "short password",
			email:      "john@example.com",
			password:   "123",
			setupMocks: func(_ *UserRepoMock, _ *JwtMakerMock) {},
			wantErr:    services.ErrWeakPassword,
		},
		{
			name:     "email already taken",
			email:    "john@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicate).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name:     "repository error",
			email:    "john@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			errMsg: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock)
			tt.setupMocks(repo, jwtMock)

			got, err := svc.Register(context.Background(), "John", tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, got.Token)
				assert.Equal(t, "u-1", got.User.ID)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	testUser := &models.User{
		ID:           "u-1",
		Email:        "test@example.com",
		Name:         "Test",
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	disabledUser := *testUser
	disabledUser.IsActive = false

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
		errMsg     string
	}{
		{
			name:     "successful login",
			email:    "Test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "u-1", models.RoleAdmin).Return("jwt-token-123", nil).Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name:     "user not found",
			email:    "nobody@example.com",
			password: "password",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "disabled account",
			email:    "test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(&disabledUser, nil).Once()
			},
			wantErr: services.ErrAccountDisabled,
		},
		{
			name:     "token generation error",
			email:    "test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "u-1", models.RoleAdmin).Return("", errors.New("token error")).Once()
			},
			errMsg: "token error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock)
			tt.setupMocks(repo, jwtMock)

			session, err := svc.Login(context.Background(), tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, session.Token)
				assert.Equal(t, testUser, session.User)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		want       models.Caller
		wantErr    error
	}{
		{
			name:  "active user",
			token: "good",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "good").Return(&customjwt.CustomClaims{UserID: "u-1", Role: models.RoleUser}, nil).Once()
				r.On("GetUser", mock.Anything, "u-1").
					Return(&models.User{ID: "u-1", Role: models.RoleUser, IsActive: true}, nil).Once()
			},
			want: models.Caller{UserID: "u-1", Role: models.RoleUser},
		},
		{
			name:  "role is taken from storage",
			token: "promoted",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "promoted").Return(&customjwt.CustomClaims{UserID: "u-1", Role: models.RoleUser}, nil).Once()
				r.On("GetUser", mock.Anything, "u-1").
					Return(&models.User{ID: "u-1", Role: models.RoleAdmin, IsActive: true}, nil).Once()
			},
			want: models.Caller{UserID: "u-1", Role: models.RoleAdmin},
		},
		{
			name:  "invalid token",
			token: "bad",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "bad").Return(nil, customjwt.ErrInvalidToken).Once()
			},
			wantErr: customjwt.ErrInvalidToken,
		},
		{
			name:  "deleted user",
			token: "orphan",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "orphan").Return(&customjwt.CustomClaims{UserID: "u-9", Role: models.RoleUser}, nil).Once()
				r.On("GetUser", mock.Anything, "u-9").Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:  "disabled user",
			token: "disabled",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "disabled").Return(&customjwt.CustomClaims{UserID: "u-1", Role: models.RoleUser}, nil).Once()
				r.On("GetUser", mock.Anything, "u-1").
					Return(&models.User{ID: "u-1", Role: models.RoleUser, IsActive: false}, nil).Once()
			},
			wantErr: services.ErrAccountDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock)
			tt.setupMocks(repo, jwtMock)

			caller, err := svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, caller)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_GetUser(t *testing.T) {
	repo := new(UserRepoMock)
	svc := services.NewAuthService(repo, new(JwtMakerMock))
	user := &models.User{ID: "u-1", Name: "John"}
	repo.On("GetUser", mock.Anything, "u-1").Return(user, nil).Twice()

	got, err := svc.GetUser(context.Background(), models.Caller{UserID: "u-1", Role: models.RoleUser}, "u-1")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = svc.GetUser(context.Background(), models.Caller{UserID: "admin", Role: models.RoleAdmin}, "u-1")
	require.NoError(t, err)

	_, err = svc.GetUser(context.Background(), models.Caller{UserID: "u-2", Role: models.RoleUser}, "u-1")
	assert.ErrorIs(t, err, services.ErrForbidden)
	repo.AssertExpectations(t)
}

func TestAuthService_ListUsers(t *testing.T) {
	repo := new(UserRepoMock)
	svc := services.NewAuthService(repo, new(JwtMakerMock))
	users := []*models.User{{ID: "u-1"}, {ID: "u-2"}}
	repo.On("ListUsers", mock.Anything, 10, 0).Return(users, 2, nil).Once()

	got, total, err := svc.ListUsers(context.Background(), models.Caller{UserID: "a", Role: models.RoleAdmin}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, got, 2)

	_, _, err = svc.ListUsers(context.Background(), models.Caller{UserID: "u-1", Role: models.RoleUser}, 10, 0)
	assert.ErrorIs(t, err, services.ErrForbidden)
	repo.AssertExpectations(t)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestAuthService_UpdateUser(t *testing.T) {
	owner := models.Caller{UserID: "u-1", Role: models.RoleUser}
	admin := models.Caller{UserID: "a-1", Role: models.RoleAdmin}
	stored := func() *models.User {
		return &models.User{ID: "u-1", Name: "John", Email: "john@example.com", Role: models.RoleUser, IsActive: true}
	}

	tests := []struct {
		name       string
		caller     models.Caller
		id         string
		patch      models.UserPatch
		setupMocks func(r *UserRepoMock)
		wantErr    error
		errMsg     string
		check      func(t *testing.T, u *models.User)
	}{
		{
			name:   "owner changes name and email",
			caller: owner,
			id:     "u-1",
			patch:  models.UserPatch{Name: strPtr(" Johnny "), Email: strPtr(" Johnny@Example.com ")},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(stored(), nil).Once()
				r.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Name == "Johnny" && u.Email == "johnny@example.com" &&
						u.Role == models.RoleUser && u.IsActive
				})).Return(&models.User{ID: "u-1", Name: "Johnny", Email: "johnny@example.com"}, nil).Once()
			},
			check: func(t *testing.T, u *models.User) {
				assert.Equal(t, "Johnny", u.Name)
			},
		},
		{
			name:       "other user is forbidden",
			caller:     models.Caller{UserID: "u-2", Role: models.RoleUser},
			id:         "u-1",
			patch:      models.UserPatch{Name: strPtr("Hacker")},
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    services.ErrForbidden,
		},
		{
			name:       "owner cannot change role",
			caller:     owner,
			id:         "u-1",
			patch:      models.UserPatch{Role: strPtr(models.RoleAdmin)},
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    services.ErrForbidden,
		},
		{
			name:       "owner cannot reactivate",
			caller:     owner,
			id:         "u-1",
			patch:      models.UserPatch{IsActive: boolPtr(true)},
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    services.ErrForbidden,
		},
		{
			name:   "admin changes role and deactivates",
			caller: admin,
			id:     "u-1",
			patch:  models.UserPatch{Role: strPtr(models.RoleAdmin), IsActive: boolPtr(false)},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(stored(), nil).Once()
				r.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Role == models.RoleAdmin && !u.IsActive && u.Name == "John"
				})).Return(&models.User{ID: "u-1", Role: models.RoleAdmin}, nil).Once()
			},
			check: func(t *testing.T, u *models.User) {
				assert.Equal(t, models.RoleAdmin, u.Role)
				assert.False(t, u.IsActive)
			},
		},
		{
			name:   "email in use",
			caller: owner,
			id:     "u-1",
			patch:  models.UserPatch{Email: strPtr("jane@example.com")},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(stored(), nil).Once()
				r.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicate).Once()
			},
			wantErr: services.ErrEmailInUse,
		},
		{
			name:   "user not found",
			caller: admin,
			id:     "u-9",
			patch:  models.UserPatch{Name: strPtr("Ghost")},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-9").Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: repository.ErrNotFound,
		},
		{
			name:   "repository error",
			caller: owner,
			id:     "u-1",
			patch:  models.UserPatch{Name: strPtr("Johnny")},
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(stored(), nil).Once()
				r.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			errMsg: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := services.NewAuthService(repo, new(JwtMakerMock))
			tt.setupMocks(repo)

			got, err := svc.UpdateUser(context.Background(), tt.caller, tt.id, tt.patch)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				tt.check(t, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_DeleteUser(t *testing.T) {
	admin := models.Caller{UserID: "a-1", Role: models.RoleAdmin}

	t.Run("admin removes user and drops cached subscriptions", func(t *testing.T) {
		repo := new(UserRepoMock)
		cacheMock := new(CacheMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock)).WithCache(cacheMock, nil)
		repo.On("DeleteUser", mock.Anything, "u-1").Return([]string{"s-1", "s-2"}, nil).Once()
		cacheMock.On("Invalidate", mock.Anything, "subscription:s-1").Return(nil).Once()
		cacheMock.On("Invalidate", mock.Anything, "subscription:s-2").Return(errors.New("redis down")).Once()

		require.NoError(t, svc.DeleteUser(context.Background(), admin, "u-1"))
		repo.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock))

		err := svc.DeleteUser(context.Background(), models.Caller{UserID: "u-1", Role: models.RoleUser}, "u-1")
		assert.ErrorIs(t, err, services.ErrForbidden)
		repo.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock))
		repo.On("DeleteUser", mock.Anything, "u-9").Return(nil, repository.ErrNotFound).Once()

		err := svc.DeleteUser(context.Background(), admin, "u-9")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	hashed, err := password.GetHash("oldpassword")
	require.NoError(t, err)
	caller := models.Caller{UserID: "u-1", Role: models.RoleUser}
	user := &models.User{ID: "u-1", PasswordHash: hashed, IsActive: true}

	tests := []struct {
		name       string
		current    string
		next       string
		setupMocks func(r *UserRepoMock)
		wantErr    error
		errMsg     string
	}{
		{
			name:    "password changed",
			current: "oldpassword",
			next:    "newpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(user, nil).Once()
				r.On("UpdatePassword", mock.Anything, "u-1", mock.MatchedBy(func(h string) bool {
					return password.CompareHash(h, "newpassword") == nil
				})).Return(nil).Once()
			},
		},
		{
			name:       "new password too short",
			current:    "oldpassword",
			next:       "123",
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    services.ErrWeakPassword,
		},
		{
			name:    "wrong current password",
			current: "guess",
			next:    "newpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(user, nil).Once()
			},
			wantErr: services.ErrWrongPassword,
		},
		{
			name:    "storage error",
			current: "oldpassword",
			next:    "newpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "u-1").Return(user, nil).Once()
				r.On("UpdatePassword", mock.Anything, "u-1", mock.Anything).Return(errors.New("db error")).Once()
			},
			errMsg: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := services.NewAuthService(repo, new(JwtMakerMock))
			tt.setupMocks(repo)

			err := svc.ChangePassword(context.Background(), caller, tt.current, tt.next)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
