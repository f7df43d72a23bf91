// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package meeting provides the meeting model and its read-side listing
// projection.
package meeting

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Meeting is a scheduled event owned by a user, with zero or more
// participants. EndsAt is nil for open-ended meetings.
type Meeting struct {
	ID             ulid.ULID
	Title          string
	Description    string
	Location       string
	OwnerID        ulid.ULID
	ParticipantIDs []ulid.ULID
	StartsAt       time.Time
	EndsAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewMeeting creates a validated Meeting.
func NewMeeting(title string, ownerID ulid.ULID, startsAt time.Time, endsAt *time.Time) (*Meeting, error) {
	if title == "" {
		return nil, oops.Code("MEETING_INVALID_TITLE").Errorf("title cannot be empty")
	}
	if ownerID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("MEETING_INVALID_OWNER").Errorf("owner id cannot be zero")
	}
	if endsAt != nil && !endsAt.After(startsAt) {
		return nil, oops.Code("MEETING_INVALID_RANGE").Errorf("end must be after start")
	}

	now := time.Now()
	return &Meeting{
		ID:        ulid.Make(),
		Title:     title,
		OwnerID:   ownerID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Repository manages meeting persistence.
type Repository interface {
	// Create stores a new meeting with its participants.
	Create(ctx context.Context, meeting *Meeting) error

	// GetByID retrieves a meeting by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Meeting, error)

	// ListAll retrieves every meeting, participants included.
	ListAll(ctx context.Context) ([]*Meeting, error)

	// Delete removes a meeting and its participant rows.
	Delete(ctx context.Context, id ulid.ULID) error
}
