// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package auth provides the authentication and onboarding core for
// AssoConnect.
//
// # Domain Types
//
// Domain types (User, Session, Invitation) should be created using their
// respective constructors:
//   - NewUser - creates a User with validated name, email, and role
//   - NewSession - creates a Session with validated user and expiry
//   - NewInvitation - creates a pending Invitation with validated email and role
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - AuthService - login, logout, session resolution
//   - InvitationService - invitation issuance, consumption, cancellation
//   - RegistrationService - invitation-gated account creation
//   - Gate - the authorization predicate composing sessions with role checks
//
// Services are created with New*Service constructors that validate
// dependencies.
package auth
