// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth_test

import (
	"context"
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

type registerFixture struct {
	svc         *auth.RegistrationService
	users       *mocks.MockUserRepository
	sessions    *mocks.MockSessionRepository
	invitations *mocks.MockInvitationRepository
	hasher      *mocks.MockPasswordHasher
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()
	users := mocks.NewMockUserRepository(t)
	sessions := mocks.NewMockSessionRepository(t)
	invitations := mocks.NewMockInvitationRepository(t)
	mailer := mocks.NewMockInvitationMailer(t)
	hasher := mocks.NewMockPasswordHasher(t)

	authSvc, err := auth.NewAuthService(users, sessions, hasher)
	require.NoError(t, err)
	inviteSvc, err := auth.NewInvitationService(invitations, mailer, testURLPattern)
	require.NoError(t, err)
	svc, err := auth.NewRegistrationService(users, inviteSvc, authSvc, hasher)
	require.NoError(t, err)

	return &registerFixture{
		svc:         svc,
		users:       users,
		sessions:    sessions,
		invitations: invitations,
		hasher:      hasher,
	}
}

func validRegistration(token string) auth.Registration {
	return auth.Registration{
		Name:            "newcomer",
		DisplayName:     "New.Comer",
		Email:           "newcomer@example.com",
		Password:        "s3cret-passphrase",
		InvitationToken: token,
	}
}

func TestRegistrationService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user with the invitation role and opens a session", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		invitation.Role = auth.RoleExternal
		reg := validRegistration(invitation.Token)

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)
		f.users.On("ExistsByNameOrEmail", ctx, reg.Name, reg.Email).Return(false, nil)
		f.hasher.On("Hash", reg.Password).Return("aa:bb", nil)
		f.users.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)
		f.invitations.On("UpdateStatusIfPending", ctx, invitation.ID, auth.InvitationAccepted).Return(true, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		user, session, token, err := f.svc.Register(ctx, reg)
		require.NoError(t, err)

		// Role comes from the invitation record, never the request.
		assert.Equal(t, auth.RoleExternal, user.Role)
		assert.Equal(t, reg.Name, user.Name)
		assert.Equal(t, "aa:bb", user.PasswordHash)

		require.NotNil(t, session)
		assert.Equal(t, user.ID, session.UserID)
		assert.Len(t, token, auth.SessionTokenBytes*2)
		assert.Equal(t, auth.HashSessionToken(token), session.TokenHash)
		assert.WithinDuration(t, time.Now().Add(auth.SessionTokenExpiry), session.ExpiresAt, 5*time.Second)
	})

	t.Run("unknown invitation token short-circuits everything", func(t *testing.T) {
		f := newRegisterFixture(t)
		reg := validRegistration("no-such-token")

		f.invitations.On("GetByToken", ctx, "no-such-token").Return(nil, auth.ErrNotFound)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVITE_NOT_FOUND")
		f.users.AssertNotCalled(t, "ExistsByNameOrEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired invitation is found but not redeemable", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		invitation.ExpiresAt = time.Now().Add(-time.Hour)
		reg := validRegistration(invitation.Token)

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVITE_NOT_VALID")
	})

	t.Run("invalid name fails before the uniqueness check", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		reg := validRegistration(invitation.Token)
		reg.Name = "x"

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_INVALID_NAME")
		f.users.AssertNotCalled(t, "ExistsByNameOrEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid display name fails", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		reg := validRegistration(invitation.Token)
		reg.DisplayName = "  "

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_INVALID_DISPLAY")
	})

	t.Run("invalid email fails", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		reg := validRegistration(invitation.Token)
		reg.Email = "not-an-email"

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_INVALID_EMAIL")
	})

	t.Run("taken name or email fails before any write", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		reg := validRegistration(invitation.Token)

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)
		f.users.On("ExistsByNameOrEmail", ctx, reg.Name, reg.Email).Return(true, nil)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_ALREADY_EXISTS")
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("lost consume race surfaces after the user exists", func(t *testing.T) {
		f := newRegisterFixture(t)
		invitation := pendingInvitation(t, ulid.Make())
		reg := validRegistration(invitation.Token)

		f.invitations.On("GetByToken", ctx, invitation.Token).Return(invitation, nil)
		f.users.On("ExistsByNameOrEmail", ctx, reg.Name, reg.Email).Return(false, nil)
		f.hasher.On("Hash", reg.Password).Return("aa:bb", nil)
		f.users.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)
		f.invitations.On("UpdateStatusIfPending", ctx, invitation.ID, auth.InvitationAccepted).Return(false, nil)

		_, _, _, err := f.svc.Register(ctx, reg)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVITE_NOT_VALID")
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
