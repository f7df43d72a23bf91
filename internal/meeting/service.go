// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package meeting

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
)

// UserLookup resolves user records for listing projections. Satisfied by
// auth.UserRepository.
type UserLookup interface {
	GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error)
}

// Person is the minimal user projection exposed in listings.
type Person struct {
	ID      ulid.ULID
	Display string
}

// Listing is a meeting joined with its owner and participant projections.
type Listing struct {
	ID           ulid.ULID
	Title        string
	Description  string
	Location     string
	StartsAt     time.Time
	EndsAt       *time.Time
	Owner        Person
	Participants []Person
}

// Service produces meeting listings.
type Service struct {
	meetings Repository
	users    UserLookup
}

// NewService creates a new Service.
func NewService(meetings Repository, users UserLookup) (*Service, error) {
	if meetings == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("meeting repository is required")
	}
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user lookup is required")
	}
	return &Service{meetings: meetings, users: users}, nil
}

// List returns all meetings joined with their owner and participant
// projections. Meetings whose owner no longer exists are skipped entirely;
// vanished participants are dropped from the participant list. Duplicate
// participant ids collapse to one entry.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	meetings, err := s.meetings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// Resolve each referenced user once across all meetings.
	people := make(map[ulid.ULID]*Person)
	resolve := func(id ulid.ULID) (*Person, error) {
		if p, ok := people[id]; ok {
			return p, nil
		}
		user, err := s.users.GetByID(ctx, id)
		if errors.Is(err, auth.ErrNotFound) {
			people[id] = nil
			return nil, nil
		}
		if err != nil {
			return nil, oops.Code("MEETING_LIST_FAILED").
				With("operation", "resolve user projection").
				With("user_id", id.String()).
				Wrap(err)
		}
		p := &Person{ID: user.ID, Display: user.DisplayName}
		people[id] = p
		return p, nil
	}

	listings := make([]Listing, 0, len(meetings))
	for _, m := range meetings {
		owner, err := resolve(m.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			continue
		}

		seen := make(map[ulid.ULID]struct{}, len(m.ParticipantIDs))
		participants := make([]Person, 0, len(m.ParticipantIDs))
		for _, id := range m.ParticipantIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			p, err := resolve(id)
			if err != nil {
				return nil, err
			}
			if p == nil {
				continue
			}
			participants = append(participants, *p)
		}

		listings = append(listings, Listing{
			ID:           m.ID,
			Title:        m.Title,
			Description:  m.Description,
			Location:     m.Location,
			StartsAt:     m.StartsAt,
			EndsAt:       m.EndsAt,
			Owner:        *owner,
			Participants: participants,
		})
	}

	return listings, nil
}
