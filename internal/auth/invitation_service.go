// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// InvitationMailer delivers an issued invitation to its target email.
// Delivery must succeed for the invitation to stay issued.
type InvitationMailer interface {
	SendInvitation(ctx context.Context, invitation *Invitation, inviteURL string) error
}

// InvitationService manages the invitation lifecycle: issuance with
// delivery, validation, one-time consumption, and cancellation.
//
// Admin gating of issuance is the caller's responsibility via Gate; the
// service itself only enforces the state machine.
type InvitationService struct {
	invitations InvitationRepository
	mailer      InvitationMailer
	urlPattern  string
}

// NewInvitationService creates a new InvitationService.
// urlPattern is the invite URL template with {id}, {token}, {email}, and
// {role} placeholders.
func NewInvitationService(invitations InvitationRepository, mailer InvitationMailer, urlPattern string) (*InvitationService, error) {
	if invitations == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("invitations repository is required")
	}
	if mailer == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("invitation mailer is required")
	}
	if urlPattern == "" {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("invite URL pattern is required")
	}
	return &InvitationService{
		invitations: invitations,
		mailer:      mailer,
		urlPattern:  urlPattern,
	}, nil
}

// Issue creates a pending invitation for email with the granted role,
// persists it, and delivers it. If delivery fails the invitation is rolled
// back (deleted) and the operation reports INVITE_DELIVERY_FAILED.
func (s *InvitationService) Issue(ctx context.Context, email string, role Role, issuerID ulid.ULID) (*Invitation, error) {
	invitation, err := NewInvitation(email, role, issuerID)
	if err != nil {
		return nil, err
	}

	if err := s.invitations.Create(ctx, invitation); err != nil {
		return nil, oops.Code("INVITE_ISSUE_FAILED").
			With("operation", "persist invitation").
			Wrap(err)
	}

	if err := s.mailer.SendInvitation(ctx, invitation, s.InviteURL(invitation)); err != nil {
		// Roll back so the token never becomes redeemable without having
		// reached the invitee. A failed rollback leaves a stale pending row;
		// it expires on its own.
		if delErr := s.invitations.Delete(ctx, invitation.ID); delErr != nil {
			return nil, oops.Code("INVITE_DELIVERY_FAILED").
				With("operation", "rollback after delivery failure").
				With("invitation_id", invitation.ID.String()).
				Wrap(errors.Join(err, delErr))
		}
		return nil, oops.Code("INVITE_DELIVERY_FAILED").
			With("invitation_id", invitation.ID.String()).
			Wrap(err)
	}

	return invitation, nil
}

// Get retrieves an invitation by ID.
func (s *InvitationService) Get(ctx context.Context, id ulid.ULID) (*Invitation, error) {
	invitation, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("INVITE_NOT_FOUND").
				With("invitation_id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("INVITE_GET_FAILED").
			With("operation", "get invitation by id").
			Wrap(err)
	}
	return invitation, nil
}

// GetByToken retrieves an invitation by its bearer token.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*Invitation, error) {
	invitation, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("INVITE_NOT_FOUND").Wrap(err)
		}
		return nil, oops.Code("INVITE_GET_FAILED").
			With("operation", "get invitation by token").
			Wrap(err)
	}
	return invitation, nil
}

// ListByIssuer retrieves all invitations created by the given user.
func (s *InvitationService) ListByIssuer(ctx context.Context, issuerID ulid.ULID) ([]*Invitation, error) {
	invitations, err := s.invitations.ListByIssuer(ctx, issuerID)
	if err != nil {
		return nil, oops.Code("INVITE_LIST_FAILED").
			With("operation", "list invitations by issuer").
			Wrap(err)
	}
	return invitations, nil
}

// Consume redeems the invitation identified by token, transitioning
// pending -> accepted. A token in any terminal status, or past expiry, fails
// with INVITE_NOT_VALID regardless of possession. The transition is a
// conditional write keyed on the pending status, so concurrent consumers
// produce exactly one acceptance; losers observe INVITE_NOT_VALID.
func (s *InvitationService) Consume(ctx context.Context, token string) (*Invitation, error) {
	invitation, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !invitation.IsValid() {
		return nil, oops.Code("INVITE_NOT_VALID").
			With("invitation_id", invitation.ID.String()).
			With("status", string(invitation.Status)).
			Errorf("invitation is not redeemable")
	}

	updated, err := s.invitations.UpdateStatusIfPending(ctx, invitation.ID, InvitationAccepted)
	if err != nil {
		return nil, oops.Code("INVITE_CONSUME_FAILED").
			With("operation", "transition to accepted").
			With("invitation_id", invitation.ID.String()).
			Wrap(err)
	}
	if !updated {
		// Lost the race: someone else consumed or cancelled it in between.
		return nil, oops.Code("INVITE_NOT_VALID").
			With("invitation_id", invitation.ID.String()).
			Errorf("invitation is not redeemable")
	}

	invitation.Status = InvitationAccepted
	return invitation, nil
}

// Cancel transitions a pending invitation to cancelled. Only the issuer may
// cancel. Cancelling an already-cancelled invitation is a no-op returning
// the terminal record; cancelling an accepted or rejected one fails with
// INVITE_INVALID_TRANSITION.
func (s *InvitationService) Cancel(ctx context.Context, id, requesterID ulid.ULID) (*Invitation, error) {
	invitation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if invitation.CreatedBy.Compare(requesterID) != 0 {
		return nil, ErrForbidden()
	}

	switch invitation.Status {
	case InvitationCancelled:
		return invitation, nil
	case InvitationAccepted, InvitationRejected:
		return nil, oops.Code("INVITE_INVALID_TRANSITION").
			With("invitation_id", id.String()).
			With("status", string(invitation.Status)).
			Errorf("cannot cancel a %s invitation", invitation.Status)
	}

	updated, err := s.invitations.UpdateStatusIfPending(ctx, id, InvitationCancelled)
	if err != nil {
		return nil, oops.Code("INVITE_CANCEL_FAILED").
			With("operation", "transition to cancelled").
			With("invitation_id", id.String()).
			Wrap(err)
	}
	if !updated {
		return nil, oops.Code("INVITE_INVALID_TRANSITION").
			With("invitation_id", id.String()).
			Errorf("invitation left the pending state concurrently")
	}

	invitation.Status = InvitationCancelled
	return invitation, nil
}

// InviteURL expands the configured URL pattern for the invitation.
func (s *InvitationService) InviteURL(invitation *Invitation) string {
	r := strings.NewReplacer(
		"{id}", invitation.ID.String(),
		"{token}", invitation.Token,
		"{email}", invitation.Email,
		"{role}", string(invitation.Role),
	)
	return r.Replace(s.urlPattern)
}
