// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role determines what operations a user may perform.
type Role string

// Known roles.
const (
	RoleAdmin    Role = "admin"
	RoleMember   Role = "member"
	RoleExternal Role = "external"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleExternal:
		return true
	}
	return false
}

// Name validation constraints. Applied to both the login name and the
// display name.
const (
	MinNameLength = 3
	MaxNameLength = 24
)

// nameRegex matches login and display names: letters, digits, underscore,
// dot, and dash.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,24}$`)

// emailRegex requires a single @ with a non-empty local part and a domain
// containing a dot.
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// User represents an account.
//
// PasswordHash is opaque to everything but the PasswordHasher and must never
// be serialized outward.
type User struct {
	ID           ulid.ULID
	Name         string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User instance.
func NewUser(name, displayName, email, passwordHash string, role Role) (*User, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("USER_INVALID_ROLE").With("role", string(role)).Errorf("unknown role %q", role)
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Name:         name,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateName validates a login name: 3-24 characters from the set
// [a-zA-Z0-9_.-].
func ValidateName(name string) error {
	if !nameRegex.MatchString(name) {
		return oops.Code("USER_INVALID_NAME").
			With("min", MinNameLength).
			With("max", MaxNameLength).
			Errorf("name must be %d-%d characters of letters, digits, underscore, dot, or dash", MinNameLength, MaxNameLength)
	}
	return nil
}

// ValidateDisplayName validates a display name with the same rules as the
// login name but a distinct error code, so callers can tell the fields apart.
func ValidateDisplayName(display string) error {
	if !nameRegex.MatchString(display) {
		return oops.Code("USER_INVALID_DISPLAY").
			With("min", MinNameLength).
			With("max", MaxNameLength).
			Errorf("display name must be %d-%d characters of letters, digits, underscore, dot, or dash", MinNameLength, MaxNameLength)
	}
	return nil
}

// ValidateEmail validates the structural shape of an email address: a single
// @ separating a non-empty local part from a domain containing a dot.
// This is format well-formedness only, not deliverability.
func ValidateEmail(email string) error {
	if strings.Count(email, "@") != 1 || !emailRegex.MatchString(email) {
		return oops.Code("USER_INVALID_EMAIL").Errorf("malformed email address")
	}
	return nil
}

// UserRepository manages user persistence.
//
// Lookups are indexed; callers never enumerate the collection to filter in
// memory. Update replaces the full record: CreatedAt is preserved, UpdatedAt
// is set by the store.
type UserRepository interface {
	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByIdentifier retrieves a user whose login name or email equals
	// identifier. Returns ErrNotFound if no user matches.
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)

	// ExistsByNameOrEmail reports whether any user already holds the given
	// login name or email.
	ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error)

	// Update replaces an existing user record.
	Update(ctx context.Context, user *User) error

	// Delete removes a user. Administrative primitive; not exercised by the
	// core flows.
	Delete(ctx context.Context, id ulid.ULID) error
}
