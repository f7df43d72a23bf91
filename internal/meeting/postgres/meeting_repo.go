// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package postgres provides the PostgreSQL implementation of the meeting
// repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
	"github.com/hactazia/assoconnect/internal/meeting"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MeetingRepository implements meeting.Repository using PostgreSQL.
// Participants live in meeting_participants and are loaded with each
// meeting.
type MeetingRepository struct {
	db DB
}

// NewMeetingRepository creates a new MeetingRepository.
func NewMeetingRepository(db DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create stores a meeting and its participant rows.
func (r *MeetingRepository) Create(ctx context.Context, m *meeting.Meeting) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO meetings (id, title, description, location, owner_id, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		m.ID.String(),
		m.Title,
		m.Description,
		m.Location,
		m.OwnerID.String(),
		m.StartsAt,
		m.EndsAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return oops.Code("MEETING_CREATE_FAILED").
			With("operation", "insert meeting").
			With("id", m.ID.String()).
			Wrap(err)
	}

	for _, participantID := range m.ParticipantIDs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO meeting_participants (meeting_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, m.ID.String(), participantID.String())
		if err != nil {
			return oops.Code("MEETING_CREATE_FAILED").
				With("operation", "insert meeting participant").
				With("id", m.ID.String()).
				With("user_id", participantID.String()).
				Wrap(err)
		}
	}

	return nil
}

// GetByID retrieves a meeting with its participants.
func (r *MeetingRepository) GetByID(ctx context.Context, id ulid.ULID) (*meeting.Meeting, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, title, description, location, owner_id, starts_at, ends_at, created_at, updated_at
		FROM meetings
		WHERE id = $1
	`, id.String())

	m, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MEETING_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MEETING_GET_BY_ID_FAILED").
			With("operation", "get meeting by id").
			With("id", id.String()).
			Wrap(err)
	}

	participants, err := r.loadParticipants(ctx, []string{m.ID.String()})
	if err != nil {
		return nil, err
	}
	m.ParticipantIDs = participants[m.ID.String()]
	return m, nil
}

// ListAll retrieves every meeting with its participants, newest start first.
func (r *MeetingRepository) ListAll(ctx context.Context) ([]*meeting.Meeting, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, location, owner_id, starts_at, ends_at, created_at, updated_at
		FROM meetings
		ORDER BY starts_at DESC
	`)
	if err != nil {
		return nil, oops.Code("MEETING_LIST_FAILED").
			With("operation", "list meetings").
			Wrap(err)
	}
	defer rows.Close()

	var meetings []*meeting.Meeting
	var ids []string
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, oops.Code("MEETING_SCAN_FAILED").
				With("operation", "scan meeting row").
				Wrap(err)
		}
		meetings = append(meetings, m)
		ids = append(ids, m.ID.String())
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("MEETING_ROWS_ERROR").
			With("operation", "iterate meeting rows").
			Wrap(err)
	}

	if len(meetings) == 0 {
		return meetings, nil
	}

	participants, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range meetings {
		m.ParticipantIDs = participants[m.ID.String()]
	}

	return meetings, nil
}

// Delete removes a meeting. Participant rows cascade at the schema level.
func (r *MeetingRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM meetings WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("MEETING_DELETE_FAILED").
			With("operation", "delete meeting").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MEETING_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// loadParticipants fetches participant ids grouped by meeting id.
func (r *MeetingRepository) loadParticipants(ctx context.Context, meetingIDs []string) (map[string][]ulid.ULID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT meeting_id, user_id
		FROM meeting_participants
		WHERE meeting_id = ANY($1)
	`, meetingIDs)
	if err != nil {
		return nil, oops.Code("MEETING_PARTICIPANTS_FAILED").
			With("operation", "load meeting participants").
			Wrap(err)
	}
	defer rows.Close()

	participants := make(map[string][]ulid.ULID)
	for rows.Next() {
		var meetingID, userIDStr string
		if err := rows.Scan(&meetingID, &userIDStr); err != nil {
			return nil, oops.Code("MEETING_SCAN_FAILED").
				With("operation", "scan participant row").
				Wrap(err)
		}
		userID, err := ulid.Parse(userIDStr)
		if err != nil {
			return nil, oops.Code("MEETING_INVALID_USER_ID").
				With("operation", "parse participant id").
				With("user_id", userIDStr).
				Wrap(err)
		}
		participants[meetingID] = append(participants[meetingID], userID)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("MEETING_ROWS_ERROR").
			With("operation", "iterate participant rows").
			Wrap(err)
	}

	return participants, nil
}

// scanMeeting scans a single row into a Meeting without participants.
// Callers are responsible for handling pgx.ErrNoRows.
func scanMeeting(row pgx.Row) (*meeting.Meeting, error) {
	var (
		idStr       string
		title       string
		description string
		location    string
		ownerIDStr  string
		startsAt    time.Time
		endsAt      *time.Time
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&idStr, &title, &description, &location, &ownerIDStr, &startsAt, &endsAt, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("MEETING_SCAN_FAILED").
			With("operation", "scan meeting").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("MEETING_INVALID_ID").
			With("operation", "parse meeting id").
			With("id", idStr).
			Wrap(err)
	}

	ownerID, err := ulid.Parse(ownerIDStr)
	if err != nil {
		return nil, oops.Code("MEETING_INVALID_OWNER_ID").
			With("operation", "parse owner id").
			With("owner_id", ownerIDStr).
			Wrap(err)
	}

	return &meeting.Meeting{
		ID:          id,
		Title:       title,
		Description: description,
		Location:    location,
		OwnerID:     ownerID,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// Compile-time interface check.
var _ meeting.Repository = (*MeetingRepository)(nil)
