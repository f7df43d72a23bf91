// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// RegistrationService turns a valid invitation into a new user and an
// active session. Registration is the only path to account creation besides
// the administrative seed.
type RegistrationService struct {
	users       UserRepository
	invitations *InvitationService
	auth        *AuthService
	hasher      PasswordHasher
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(users UserRepository, invitations *InvitationService, auth *AuthService, hasher PasswordHasher) (*RegistrationService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if invitations == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("invitation service is required")
	}
	if auth == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	return &RegistrationService{
		users:       users,
		invitations: invitations,
		auth:        auth,
		hasher:      hasher,
	}, nil
}

// Registration is the input to Register.
type Registration struct {
	Name            string
	DisplayName     string
	Email           string
	Password        string
	InvitationToken string
}

// Register runs the invitation-gated onboarding flow. Each step
// short-circuits on failure, in order: invitation resolution and validity
// (not-found and found-but-invalid are distinct branches), name and display
// name validation, email validation, uniqueness, password hashing, user
// creation with the role carried by the invitation, invitation consumption,
// session issuance.
//
// The user's role always comes from the invitation record, never from the
// request: a registrant cannot escalate their own privileges.
//
// Consumption, user creation, and session issuance are not atomic with each
// other. A failure between them can leave an accepted invitation with no
// user, or a user with no session; there is no compensating rollback.
func (s *RegistrationService) Register(ctx context.Context, reg Registration) (*User, *Session, string, error) {
	invitation, err := s.invitations.GetByToken(ctx, reg.InvitationToken)
	if err != nil {
		return nil, nil, "", err
	}
	if !invitation.IsValid() {
		return nil, nil, "", oops.Code("INVITE_NOT_VALID").
			With("invitation_id", invitation.ID.String()).
			With("status", string(invitation.Status)).
			Errorf("invitation is not redeemable")
	}

	if err := ValidateName(reg.Name); err != nil {
		return nil, nil, "", err
	}
	if err := ValidateDisplayName(reg.DisplayName); err != nil {
		return nil, nil, "", err
	}
	if err := ValidateEmail(reg.Email); err != nil {
		return nil, nil, "", err
	}

	exists, err := s.users.ExistsByNameOrEmail(ctx, reg.Name, reg.Email)
	if err != nil {
		return nil, nil, "", oops.Code("REGISTER_FAILED").
			With("operation", "uniqueness check").
			Wrap(err)
	}
	if exists {
		return nil, nil, "", oops.Code("USER_ALREADY_EXISTS").Errorf("a user with that name or email already exists")
	}

	passwordHash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, nil, "", err
	}

	user, err := NewUser(reg.Name, reg.DisplayName, reg.Email, passwordHash, invitation.Role)
	if err != nil {
		return nil, nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, "", oops.Code("REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	if _, err := s.invitations.Consume(ctx, reg.InvitationToken); err != nil {
		return nil, nil, "", err
	}

	session, token, err := s.auth.IssueSession(ctx, user)
	if err != nil {
		return nil, nil, "", err
	}

	return user, session, token, nil
}
