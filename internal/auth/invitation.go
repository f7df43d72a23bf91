// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Invitation token configuration.
const (
	InvitationTokenBytes = 32             // 32 bytes = 64 hex chars
	InvitationExpiry     = 48 * time.Hour // two days
)

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

// Invitation states. Pending is the only non-terminal state; every
// transition out of it is one-way. Expiry is orthogonal and checked at
// validation time regardless of status.
const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationRejected  InvitationStatus = "rejected"
	InvitationCancelled InvitationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected, InvitationCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status.
func (s InvitationStatus) Terminal() bool {
	return s.Valid() && s != InvitationPending
}

// Invitation is a capability granting exactly one registration.
//
// The bearer token is stored in plaintext: it must be recoverable to rebuild
// the invite URL when an issuer re-reads the invitation.
type Invitation struct {
	ID        ulid.ULID
	Email     string
	Role      Role
	Token     string
	CreatedBy ulid.ULID
	Status    InvitationStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInvitation creates a validated pending Invitation.
func NewInvitation(email string, role Role, createdBy ulid.ULID) (*Invitation, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, oops.Code("INVITE_INVALID_EMAIL").With("email", email).Errorf("malformed email address")
	}
	if !role.Valid() {
		return nil, oops.Code("INVITE_INVALID_ROLE").With("role", string(role)).Errorf("unknown role %q", role)
	}
	if createdBy.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("INVITE_INVALID_ISSUER").Errorf("issuer ID cannot be zero")
	}

	token, err := GenerateInvitationToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Invitation{
		ID:        ulid.Make(),
		Email:     email,
		Role:      role,
		Token:     token,
		CreatedBy: createdBy,
		Status:    InvitationPending,
		ExpiresAt: now.Add(InvitationExpiry),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsValid returns true if the invitation can still be consumed: status is
// exactly pending and the expiry has not passed. Validity is re-derived on
// every call, never cached.
func (i *Invitation) IsValid() bool {
	return i.IsValidAt(time.Now())
}

// IsValidAt returns true if the invitation would be consumable at the given
// time.
func (i *Invitation) IsValidAt(t time.Time) bool {
	return i.Status == InvitationPending && t.Before(i.ExpiresAt)
}

// GenerateInvitationToken creates a secure random invitation token.
func GenerateInvitationToken() (string, error) {
	tokenBytes := make([]byte, InvitationTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", oops.Code("INVITE_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// InvitationRepository manages invitation persistence.
type InvitationRepository interface {
	// Create stores a new invitation.
	Create(ctx context.Context, invitation *Invitation) error

	// GetByID retrieves an invitation by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Invitation, error)

	// GetByToken retrieves an invitation by its bearer token.
	GetByToken(ctx context.Context, token string) (*Invitation, error)

	// ListByIssuer retrieves all invitations created by the given user.
	ListByIssuer(ctx context.Context, createdBy ulid.ULID) ([]*Invitation, error)

	// UpdateStatusIfPending transitions the invitation to status only if it
	// is currently pending, and reports whether the transition happened.
	// This is the conditional write that makes consumption single-winner
	// under concurrent attempts.
	UpdateStatusIfPending(ctx context.Context, id ulid.ULID, status InvitationStatus) (bool, error)

	// Delete removes an invitation. Used to roll back issuance when
	// delivery fails, and for administrative cleanup.
	Delete(ctx context.Context, id ulid.ULID) error
}
