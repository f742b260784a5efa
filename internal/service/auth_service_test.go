package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"capriccio/internal/auth"
	"capriccio/internal/config"
	"capriccio/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:         "session-secret",
		Issuer:            "capriccio",
		TokenTTL:          time.Hour,
		CustomTokenSecret: "custom-secret",
		LoginRateLimit:    3,
		LoginRateWindow:   time.Minute,
		ArgonMemoryKB:     64,
		ArgonTime:         1,
		ArgonParallelism:  1,
		ArgonSaltLen:      16,
		ArgonKeyLen:       32,
	}
}

func newTestAuthService(t *testing.T, repo *MockUserRepository, store *memStore) AuthService {
	t.Helper()
	cfg := testAuthConfig()
	tokens, err := auth.NewTokens(cfg)
	require.NoError(t, err)
	return NewAuthService(repo, tokens, store, cfg, zerolog.Nop())
}

func testCredential(t *testing.T, userID, email, password string) *model.Credential {
	t.Helper()
	hash, err := auth.HashPassword(password, testAuthConfig())
	require.NoError(t, err)
	return &model.Credential{UserID: userID, Email: email, PasswordHash: hash}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         model.LoginRequest
		admin       bool
		setupMock   func(*MockUserRepository)
		expectError error
		expectRole  model.Role
	}{
		{
			name: "Customer login",
			req:  model.LoginRequest{Email: " Ana@Example.com ", Password: "secreto"},
			setupMock: func(m *MockUserRepository) {
				m.On("GetCredentialByEmail", ctx, "ana@example.com").Return(testCredential(t, "u1", "ana@example.com", "secreto"), nil)
				m.On("GetProfile", ctx, "u1").Return(&model.UserProfile{ID: "u1", Role: model.RoleUser}, nil)
			},
			expectRole: model.RoleUser,
		},
		{
			name:  "Admin login",
			req:   model.LoginRequest{Email: "admin@example.com", Password: "secreto"},
			admin: true,
			setupMock: func(m *MockUserRepository) {
				m.On("GetCredentialByEmail", ctx, "admin@example.com").Return(testCredential(t, "a1", "admin@example.com", "secreto"), nil)
				m.On("GetProfile", ctx, "a1").Return(&model.UserProfile{ID: "a1", Role: model.RoleAdmin}, nil)
			},
			expectRole: model.RoleAdmin,
		},
		{
			name:  "Admin login without admin role",
			req:   model.LoginRequest{Email: "ana@example.com", Password: "secreto"},
			admin: true,
			setupMock: func(m *MockUserRepository) {
				m.On("GetCredentialByEmail", ctx, "ana@example.com").Return(testCredential(t, "u1", "ana@example.com", "secreto"), nil)
				m.On("GetProfile", ctx, "u1").Return(&model.UserProfile{ID: "u1", Role: model.RoleUser}, nil)
			},
			expectError: model.ErrNotAdmin,
		},
		{
			name:        "Invalid email",
			req:         model.LoginRequest{Email: "ana", Password: "secreto"},
			setupMock:   func(m *MockUserRepository) {},
			expectError: model.ErrInvalidEmail,
		},
		{
			name: "Unknown email",
			req:  model.LoginRequest{Email: "nadie@example.com", Password: "secreto"},
			setupMock: func(m *MockUserRepository) {
				m.On("GetCredentialByEmail", ctx, "nadie@example.com").Return(nil, nil)
			},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name: "Wrong password",
			req:  model.LoginRequest{Email: "ana@example.com", Password: "otro"},
			setupMock: func(m *MockUserRepository) {
				m.On("GetCredentialByEmail", ctx, "ana@example.com").Return(testCredential(t, "u1", "ana@example.com", "secreto"), nil)
			},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name: "Disabled account",
			req:  model.LoginRequest{Email: "ana@example.com", Password: "secreto"},
			setupMock: func(m *MockUserRepository) {
				cred := testCredential(t, "u1", "ana@example.com", "secreto")
				cred.Disabled = true
				m.On("GetCredentialByEmail", ctx, "ana@example.com").Return(cred, nil)
			},
			expectError: model.ErrAccountDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMock(repo)
			svc := newTestAuthService(t, repo, newMemStore())

			session, err := svc.Login(ctx, tt.req, tt.admin)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, session)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, session.Token)
			assert.Equal(t, tt.expectRole, session.Identity.Role)
			assert.False(t, session.Identity.Anonymous)
			if tt.admin {
				require.Len(t, session.Notifications, 1)
				assert.Equal(t, model.LevelSuccess, session.Notifications[0].Level)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginRateLimit(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("GetCredentialByEmail", ctx, "ana@example.com").Return(testCredential(t, "u1", "ana@example.com", "secreto"), nil)
	svc := newTestAuthService(t, repo, newMemStore())

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, model.LoginRequest{Email: "ana@example.com", Password: "mal"}, false)
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, model.LoginRequest{Email: "ana@example.com", Password: "secreto"}, false)
	assert.ErrorIs(t, err, model.ErrTooManyRequests)
	repo.AssertNumberOfCalls(t, "GetCredentialByEmail", 3)
}

func TestAuthService_SignInAnonymous(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("GetProfile", ctx, mock.Anything).Return(nil, nil)
	repo.On("CreateProfile", ctx, mock.AnythingOfType("*model.UserProfile")).
		Return(&model.UserProfile{Role: model.RoleUser}, nil)

	svc := newTestAuthService(t, repo, newMemStore())

	session, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)
	assert.True(t, session.Identity.Anonymous)
	assert.Equal(t, model.RoleUser, session.Profile.Role)
	assert.Empty(t, session.Notifications)
	repo.AssertCalled(t, "CreateProfile", ctx, mock.AnythingOfType("*model.UserProfile"))
}

func TestAuthService_ProfileFallback(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		err           error
		expectLevel   model.NotificationLevel
		expectSeconds int64
	}{
		{
			name:          "Permission denied",
			err:           &model.PersistenceError{Op: "get profile", Category: model.PersistencePermission, Err: errors.New("denied")},
			expectLevel:   model.LevelError,
			expectSeconds: 10,
		},
		{
			name:          "Backend unavailable",
			err:           model.ErrBackendUnavailable,
			expectLevel:   model.LevelWarning,
			expectSeconds: 7,
		},
		{
			name:          "Unknown failure",
			err:           errors.New("boom"),
			expectLevel:   model.LevelError,
			expectSeconds: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("GetProfile", ctx, mock.Anything).Return(nil, tt.err)
			svc := newTestAuthService(t, repo, newMemStore())

			session, err := svc.SignInAnonymous(ctx)
			require.NoError(t, err, "a profile failure never blocks sign-in")
			assert.Equal(t, model.RoleUser, session.Profile.Role)
			require.Len(t, session.Notifications, 1)
			assert.Equal(t, tt.expectLevel, session.Notifications[0].Level)
			assert.Equal(t, tt.expectSeconds*1000, session.Notifications[0].DurationMS)
		})
	}
}

func TestAuthService_SignInWithToken(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("GetProfile", ctx, "ext-1").Return(&model.UserProfile{ID: "ext-1", Role: model.RoleAdmin}, nil)
	repo.On("GetProfile", ctx, mock.Anything).Return(&model.UserProfile{Role: model.RoleUser}, nil)
	svc := newTestAuthService(t, repo, newMemStore())

	custom, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ext-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("custom-secret"))
	require.NoError(t, err)

	session, err := svc.SignInWithToken(ctx, model.CustomTokenRequest{Token: custom})
	require.NoError(t, err)
	assert.Equal(t, "ext-1", session.Identity.UserID)
	assert.Equal(t, model.RoleAdmin, session.Identity.Role, "the stored role applies")
	assert.False(t, session.Identity.Anonymous)

	session, err = svc.SignInWithToken(ctx, model.CustomTokenRequest{Token: "garbage"})
	require.NoError(t, err)
	assert.True(t, session.Identity.Anonymous)
	require.NotEmpty(t, session.Notifications)
	assert.Equal(t, model.LevelError, session.Notifications[0].Level)
}

func TestAuthService_AuthenticateAndSignOut(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("GetProfile", ctx, mock.Anything).Return(&model.UserProfile{Role: model.RoleUser}, nil)
	svc := newTestAuthService(t, repo, newMemStore())

	session, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity.UserID, identity.UserID)

	n, err := svc.SignOut(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "Sesión cerrada.", n.Message)

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, model.ErrUnauthorised)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.Error(t, err)
}
