// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/hactazia/assoconnect/internal/auth"
)

// MockUserRepository is a mock auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted on test cleanup.
func NewMockUserRepository(t *testing.T) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error) {
	args := m.Called(ctx, name, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

// MockSessionRepository is a mock auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a MockSessionRepository whose expectations
// are asserted on test cleanup.
func NewMockSessionRepository(t *testing.T) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	args := m.Called(ctx, tokenHash)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) GetByUser(ctx context.Context, userID ulid.ULID) ([]*auth.Session, error) {
	args := m.Called(ctx, userID)
	if s := args.Get(0); s != nil {
		return s.([]*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockInvitationRepository is a mock auth.InvitationRepository.
type MockInvitationRepository struct {
	mock.Mock
}

// NewMockInvitationRepository creates a MockInvitationRepository whose
// expectations are asserted on test cleanup.
func NewMockInvitationRepository(t *testing.T) *MockInvitationRepository {
	m := &MockInvitationRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInvitationRepository) Create(ctx context.Context, invitation *auth.Invitation) error {
	return m.Called(ctx, invitation).Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Invitation, error) {
	args := m.Called(ctx, id)
	if i := args.Get(0); i != nil {
		return i.(*auth.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) GetByToken(ctx context.Context, token string) (*auth.Invitation, error) {
	args := m.Called(ctx, token)
	if i := args.Get(0); i != nil {
		return i.(*auth.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) ListByIssuer(ctx context.Context, createdBy ulid.ULID) ([]*auth.Invitation, error) {
	args := m.Called(ctx, createdBy)
	if i := args.Get(0); i != nil {
		return i.([]*auth.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) UpdateStatusIfPending(ctx context.Context, id ulid.ULID, status auth.InvitationStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted on test cleanup.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockInvitationMailer is a mock auth.InvitationMailer.
type MockInvitationMailer struct {
	mock.Mock
}

// NewMockInvitationMailer creates a MockInvitationMailer whose expectations
// are asserted on test cleanup.
func NewMockInvitationMailer(t *testing.T) *MockInvitationMailer {
	m := &MockInvitationMailer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInvitationMailer) SendInvitation(ctx context.Context, invitation *auth.Invitation, inviteURL string) error {
	return m.Called(ctx, invitation, inviteURL).Error(0)
}
