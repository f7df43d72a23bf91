// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

//go:build integration

package auth_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/hactazia/assoconnect/internal/auth"
)

// captureMailer records deliveries instead of talking to MailerSend.
type captureMailer struct {
	sent []string
}

func (m *captureMailer) SendInvitation(_ context.Context, _ *auth.Invitation, inviteURL string) error {
	m.sent = append(m.sent, inviteURL)
	return nil
}

var _ = Describe("Onboarding flow", func() {
	var ctx context.Context
	var mailer *captureMailer
	var authSvc *auth.AuthService
	var invitationSvc *auth.InvitationService
	var registrationSvc *auth.RegistrationService
	var admin *auth.User

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)

		mailer = &captureMailer{}
		hasher := auth.NewPBKDF2Hasher()

		var err error
		authSvc, err = auth.NewAuthService(env.Users, env.Sessions, hasher)
		Expect(err).NotTo(HaveOccurred())
		invitationSvc, err = auth.NewInvitationService(env.Invitations, mailer, "https://app.example.com/join?invitation={token}")
		Expect(err).NotTo(HaveOccurred())
		registrationSvc, err = auth.NewRegistrationService(env.Users, invitationSvc, authSvc, hasher)
		Expect(err).NotTo(HaveOccurred())

		hash, err := hasher.Hash("admin-pass-123")
		Expect(err).NotTo(HaveOccurred())
		admin, err = auth.NewUser("admin", "Administrator", "admin@example.com", hash, auth.RoleAdmin)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Users.Create(ctx, admin)).To(Succeed())
	})

	It("runs invite, register, login, logout end to end", func() {
		invitation, err := invitationSvc.Issue(ctx, "newbie@example.com", auth.RoleMember, admin.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(mailer.sent).To(HaveLen(1))
		Expect(mailer.sent[0]).To(ContainSubstring(invitation.Token))

		user, session, token, err := registrationSvc.Register(ctx, auth.Registration{
			Name:            "newbie",
			DisplayName:     "Newbie",
			Email:           "newbie@example.com",
			Password:        "newbie-pass-123",
			InvitationToken: invitation.Token,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(user.Role).To(Equal(auth.RoleMember))
		Expect(session.UserID).To(Equal(user.ID))

		// The registration session is immediately usable.
		principal, err := authSvc.Authenticate(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(principal).NotTo(BeNil())
		Expect(principal.User.ID).To(Equal(user.ID))

		// The invitation is spent.
		_, _, _, err = registrationSvc.Register(ctx, auth.Registration{
			Name:            "second",
			DisplayName:     "Second",
			Email:           "second@example.com",
			Password:        "second-pass-123",
			InvitationToken: invitation.Token,
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not redeemable"))

		// A fresh login works with real credentials.
		loginSession, loginToken, err := authSvc.Login(ctx, "newbie", "newbie-pass-123")
		Expect(err).NotTo(HaveOccurred())
		Expect(loginSession.UserID).To(Equal(user.ID))

		// Logout revokes exactly that session.
		Expect(authSvc.Logout(ctx, loginSession)).To(Succeed())
		resolved, err := authSvc.Resolve(ctx, loginToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved).To(BeNil())

		// The registration session survives the other session's logout.
		principal, err = authSvc.Authenticate(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(principal).NotTo(BeNil())
	})

	It("rejects login with the wrong password", func() {
		_, _, err := authSvc.Login(ctx, "admin", "wrong-pass")
		Expect(err).To(HaveOccurred())
		Expect(strings.Contains(err.Error(), "invalid identifier or password")).To(BeTrue())
	})

	It("rolls back the invitation when delivery fails", func() {
		failing := &failingMailer{}
		svc, err := auth.NewInvitationService(env.Invitations, failing, "https://app.example.com/join?invitation={token}")
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Issue(ctx, "newbie@example.com", auth.RoleMember, admin.ID)
		Expect(err).To(HaveOccurred())

		invitations, listErr := env.Invitations.ListByIssuer(ctx, admin.ID)
		Expect(listErr).NotTo(HaveOccurred())
		Expect(invitations).To(BeEmpty())
	})
})

// failingMailer always refuses delivery.
type failingMailer struct{}

func (m *failingMailer) SendInvitation(_ context.Context, _ *auth.Invitation, _ string) error {
	return context.DeadlineExceeded
}
