// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// Authenticator resolves a bearer token to a principal.
// Satisfied by AuthService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// Gate is the authorization predicate for protected operations. It composes
// session authentication with an optional role restriction; resource-level
// ownership checks are layered on top by each operation.
type Gate struct {
	auth Authenticator
}

// NewGate creates a new Gate.
func NewGate(auth Authenticator) (*Gate, error) {
	if auth == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("authenticator is required")
	}
	return &Gate{auth: auth}, nil
}

// Authorize resolves the token and, when roles are given, requires the
// user's role to be among them. A missing or invalid session denies with
// AUTH_UNAUTHORIZED; an insufficient role denies with AUTH_FORBIDDEN.
// Authentication failures are always recovered into one of these two
// denials, never leaked as raw faults.
func (g *Gate) Authorize(ctx context.Context, token string, roles ...Role) (*Principal, error) {
	principal, err := g.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, ErrUnauthorized()
	}

	if len(roles) > 0 {
		allowed := false
		for _, role := range roles {
			if principal.User.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrForbidden()
		}
	}

	return principal, nil
}

// ErrUnauthorized builds the uniform denial for a missing or invalid
// principal.
func ErrUnauthorized() error {
	return oops.Code("AUTH_UNAUTHORIZED").Errorf("authentication required")
}

// ErrForbidden builds the uniform denial for an insufficient principal.
func ErrForbidden() error {
	return oops.Code("AUTH_FORBIDDEN").Errorf("insufficient permissions")
}
