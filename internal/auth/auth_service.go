// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// AuthService provides login, logout, and session resolution.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, sessions SessionRepository, hasher PasswordHasher) (*AuthService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
	}, nil
}

// dummyPasswordHash is verified against when the looked-up user doesn't
// exist, so that login takes the same time either way and doesn't reveal
// which identifiers are registered.
//
//nolint:gosec // G101: intentionally fake credential for timing consistency.
const dummyPasswordHash = "00000000000000000000000000000000:0000000000000000000000000000000000000000000000000000000000000000"

// Principal is an authenticated user together with the session that proved
// it.
type Principal struct {
	User    *User
	Session *Session
}

// Login authenticates a user by login name or email and issues a session.
// Returns the session and the plaintext token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, string, error) {
	user, lookupErr := s.users.GetByIdentifier(ctx, identifier)

	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by identifier").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify, even against the dummy hash.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid identifier or password")
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid identifier or password")
	}

	return s.IssueSession(ctx, user)
}

// IssueSession creates and persists a fresh session for the user.
// Token collisions are treated as unreachable given 32 bytes of entropy;
// a uniqueness violation from the store surfaces as an error the caller may
// retry.
func (s *AuthService) IssueSession(ctx context.Context, user *User) (*Session, string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user.ID, tokenHash, time.Now().Add(SessionTokenExpiry))
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// Resolve looks up a session by its plaintext token.
// Absence and expiry are routine, not exceptional: both return (nil, nil).
// Store failures propagate.
func (s *AuthService) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if !session.IsValid() {
		return nil, nil
	}

	return session, nil
}

// Authenticate composes Resolve with a user lookup. A missing or expired
// session, or a session whose user no longer exists, yields (nil, nil);
// "not authenticated" is never an error here.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	return &Principal{User: user, Session: session}, nil
}

// Logout revokes a session.
func (s *AuthService) Logout(ctx context.Context, session *Session) error {
	if session == nil {
		return oops.Code("SESSION_NOT_FOUND").Errorf("no session to revoke")
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", session.ID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	return nil
}
