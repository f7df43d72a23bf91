// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
)

// InvitationRepository implements auth.InvitationRepository using PostgreSQL.
//
// Tokens are stored in clear so the invite URL can be rebuilt after issuance.
// The one-time consumption guarantee lives in UpdateStatusIfPending, which
// only writes over a pending row.
type InvitationRepository struct {
	db DB
}

// NewInvitationRepository creates a new InvitationRepository.
func NewInvitationRepository(db DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create stores a new invitation.
func (r *InvitationRepository) Create(ctx context.Context, invitation *auth.Invitation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO invitations (id, email, role, token, status, created_by, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		invitation.ID.String(),
		invitation.Email,
		string(invitation.Role),
		invitation.Token,
		string(invitation.Status),
		invitation.CreatedBy.String(),
		invitation.ExpiresAt,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	)
	if err != nil {
		return oops.Code("INVITE_CREATE_FAILED").
			With("operation", "insert invitation").
			With("email", invitation.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an invitation by ID.
func (r *InvitationRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Invitation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, role, token, status, created_by, expires_at, created_at, updated_at
		FROM invitations
		WHERE id = $1
	`, id.String())

	invitation, err := scanInvitation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("INVITE_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("INVITE_GET_BY_ID_FAILED").
			With("operation", "get invitation by id").
			With("id", id.String()).
			Wrap(err)
	}
	return invitation, nil
}

// GetByToken retrieves an invitation by its bearer token.
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*auth.Invitation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, role, token, status, created_by, expires_at, created_at, updated_at
		FROM invitations
		WHERE token = $1
	`, token)

	invitation, err := scanInvitation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("INVITE_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("INVITE_GET_BY_TOKEN_FAILED").
			With("operation", "get invitation by token").
			Wrap(err)
	}
	return invitation, nil
}

// ListByIssuer retrieves all invitations created by the given user, newest
// first.
func (r *InvitationRepository) ListByIssuer(ctx context.Context, createdBy ulid.ULID) ([]*auth.Invitation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, email, role, token, status, created_by, expires_at, created_at, updated_at
		FROM invitations
		WHERE created_by = $1
		ORDER BY created_at DESC
	`, createdBy.String())
	if err != nil {
		return nil, oops.Code("INVITE_LIST_BY_ISSUER_FAILED").
			With("operation", "list invitations by issuer").
			With("created_by", createdBy.String()).
			Wrap(err)
	}
	defer rows.Close()

	var invitations []*auth.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, oops.Code("INVITE_SCAN_FAILED").
				With("operation", "scan invitation row").
				Wrap(err)
		}
		invitations = append(invitations, invitation)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("INVITE_ROWS_ERROR").
			With("operation", "iterate invitation rows").
			Wrap(err)
	}

	return invitations, nil
}

// UpdateStatusIfPending transitions the invitation to status only if it is
// still pending, and reports whether the write happened. Concurrent callers
// race on the same row; exactly one observes true.
func (r *InvitationRepository) UpdateStatusIfPending(ctx context.Context, id ulid.ULID, status auth.InvitationStatus) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE invitations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id.String(), string(status), time.Now())
	if err != nil {
		return false, oops.Code("INVITE_UPDATE_STATUS_FAILED").
			With("operation", "conditional status update").
			With("id", id.String()).
			With("status", string(status)).
			Wrap(err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes an invitation by ID.
func (r *InvitationRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM invitations WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("INVITE_DELETE_FAILED").
			With("operation", "delete invitation").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("INVITE_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanInvitation scans a single row into an Invitation.
// Callers are responsible for handling pgx.ErrNoRows.
func scanInvitation(row pgx.Row) (*auth.Invitation, error) {
	var (
		idStr        string
		email        string
		role         string
		token        string
		status       string
		createdByStr string
		expiresAt    time.Time
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&idStr, &email, &role, &token, &status, &createdByStr, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("INVITE_SCAN_FAILED").
			With("operation", "scan invitation").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("INVITE_INVALID_ID").
			With("operation", "parse invitation id").
			With("id", idStr).
			Wrap(err)
	}

	createdBy, err := ulid.Parse(createdByStr)
	if err != nil {
		return nil, oops.Code("INVITE_INVALID_ISSUER_ID").
			With("operation", "parse issuer id").
			With("created_by", createdByStr).
			Wrap(err)
	}

	return &auth.Invitation{
		ID:        id,
		Email:     email,
		Role:      auth.Role(role),
		Token:     token,
		Status:    auth.InvitationStatus(status),
		CreatedBy: createdBy,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.InvitationRepository = (*InvitationRepository)(nil)
