// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hactazia/assoconnect/internal/auth"
	"github.com/hactazia/assoconnect/internal/auth/mocks"
	"github.com/hactazia/assoconnect/pkg/errutil"
)

func TestNewAuthService_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		users       auth.UserRepository
		sessions    auth.SessionRepository
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil users repository",
			users:       nil,
			sessions:    mocks.NewMockSessionRepository(t),
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "users repository is required",
		},
		{
			name:        "nil sessions repository",
			users:       mocks.NewMockUserRepository(t),
			sessions:    nil,
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "sessions repository is required",
		},
		{
			name:        "nil password hasher",
			users:       mocks.NewMockUserRepository(t),
			sessions:    mocks.NewMockSessionRepository(t),
			hasher:      nil,
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewAuthService(tt.users, tt.sessions, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func testUser(t *testing.T) *auth.User {
	t.Helper()
	user, err := auth.NewUser("alice", "Alice", "alice@example.com", "00ff:00ff", auth.RoleMember)
	require.NoError(t, err)
	return user
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login creates session", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		user := testUser(t)
		userRepo.On("GetByIdentifier", ctx, "alice").Return(user, nil)
		hasher.On("Verify", "password123", user.PasswordHash).Return(true, nil)
		sessionRepo.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		session, token, err := svc.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)
		assert.Len(t, token, 64) // 32 bytes hex-encoded
		assert.Equal(t, auth.HashSessionToken(token), session.TokenHash)
	})

	t.Run("login by email works the same", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		user := testUser(t)
		userRepo.On("GetByIdentifier", ctx, "alice@example.com").Return(user, nil)
		hasher.On("Verify", "password123", user.PasswordHash).Return(true, nil)
		sessionRepo.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		_, _, err = svc.Login(ctx, "alice@example.com", "password123")
		require.NoError(t, err)
	})

	t.Run("unknown identifier still verifies against dummy hash", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		userRepo.On("GetByIdentifier", ctx, "nobody").Return(nil, auth.ErrNotFound)
		hasher.On("Verify", "password123", mock.AnythingOfType("string")).Return(false, nil)

		session, token, err := svc.Login(ctx, "nobody", "password123")
		require.Error(t, err)
		assert.Nil(t, session)
		assert.Empty(t, token)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("wrong password creates no session", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		user := testUser(t)
		userRepo.On("GetByIdentifier", ctx, "alice").Return(user, nil)
		hasher.On("Verify", "wrongpassword", user.PasswordHash).Return(false, nil)

		session, _, err := svc.Login(ctx, "alice", "wrongpassword")
		require.Error(t, err)
		assert.Nil(t, session)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
		sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure propagates, not masked as bad credentials", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		userRepo.On("GetByIdentifier", ctx, "alice").Return(nil, errors.New("connection refused"))

		_, _, err = svc.Login(ctx, "alice", "password123")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_LOGIN_FAILED")
	})
}

func TestAuthService_Resolve(t *testing.T) {
	ctx := context.Background()

	newService := func(t *testing.T) (*auth.AuthService, *mocks.MockUserRepository, *mocks.MockSessionRepository) {
		t.Helper()
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, mocks.NewMockPasswordHasher(t))
		require.NoError(t, err)
		return svc, userRepo, sessionRepo
	}

	t.Run("missing token resolves to nil without store access", func(t *testing.T) {
		svc, _, _ := newService(t)
		session, err := svc.Resolve(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("unknown token resolves to nil, not error", func(t *testing.T) {
		svc, _, sessionRepo := newService(t)
		sessionRepo.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(nil, auth.ErrNotFound)

		session, err := svc.Resolve(ctx, "sometoken")
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("expired session resolves to nil", func(t *testing.T) {
		svc, _, sessionRepo := newService(t)
		expired, err := auth.NewSession(ulid.Make(), "hash", time.Now().Add(time.Minute))
		require.NoError(t, err)
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		sessionRepo.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(expired, nil)

		session, err := svc.Resolve(ctx, "sometoken")
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		svc, _, sessionRepo := newService(t)
		sessionRepo.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(nil, errors.New("connection refused"))

		_, err := svc.Resolve(ctx, "sometoken")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_RESOLVE_FAILED")
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token returns principal", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, mocks.NewMockPasswordHasher(t))
		require.NoError(t, err)

		user := testUser(t)
		session, err := auth.NewSession(user.ID, auth.HashSessionToken("tok"), time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, auth.HashSessionToken("tok")).Return(session, nil)
		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

		principal, err := svc.Authenticate(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, principal)
		assert.Equal(t, user, principal.User)
		assert.Equal(t, session, principal.Session)
	})

	t.Run("vanished user invalidates a time-valid session", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		svc, err := auth.NewAuthService(userRepo, sessionRepo, mocks.NewMockPasswordHasher(t))
		require.NoError(t, err)

		session, err := auth.NewSession(ulid.Make(), auth.HashSessionToken("tok"), time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, auth.HashSessionToken("tok")).Return(session, nil)
		userRepo.On("GetByID", ctx, session.UserID).Return(nil, auth.ErrNotFound)

		principal, err := svc.Authenticate(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, principal)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the session", func(t *testing.T) {
		sessionRepo := mocks.NewMockSessionRepository(t)
		svc, err := auth.NewAuthService(mocks.NewMockUserRepository(t), sessionRepo, mocks.NewMockPasswordHasher(t))
		require.NoError(t, err)

		session, err := auth.NewSession(ulid.Make(), "hash", time.Now().Add(time.Hour))
		require.NoError(t, err)
		sessionRepo.On("Delete", ctx, session.ID).Return(nil)

		require.NoError(t, svc.Logout(ctx, session))
	})

	t.Run("already-deleted session reports not found", func(t *testing.T) {
		sessionRepo := mocks.NewMockSessionRepository(t)
		svc, err := auth.NewAuthService(mocks.NewMockUserRepository(t), sessionRepo, mocks.NewMockPasswordHasher(t))
		require.NoError(t, err)

		session, err := auth.NewSession(ulid.Make(), "hash", time.Now().Add(time.Hour))
		require.NoError(t, err)
		sessionRepo.On("Delete", ctx, session.ID).Return(auth.ErrNotFound)

		err = svc.Logout(ctx, session)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_NOT_FOUND")
	})
}
