// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

//go:build integration

package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/hactazia/assoconnect/internal/auth"
)

func createTestUser(ctx context.Context, name, email string) *auth.User {
	hasher := auth.NewPBKDF2Hasher()
	hash, err := hasher.Hash("integration-pass")
	Expect(err).NotTo(HaveOccurred())
	user, err := auth.NewUser(name, "Test "+name, email, hash, auth.RoleMember)
	Expect(err).NotTo(HaveOccurred())
	Expect(env.Users.Create(ctx, user)).To(Succeed())
	return user
}

var _ = Describe("UserRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)
	})

	It("round-trips a user", func() {
		user := createTestUser(ctx, "alice", "alice@example.com")

		got, err := env.Users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("alice"))
		Expect(got.Email).To(Equal("alice@example.com"))
		Expect(got.Role).To(Equal(auth.RoleMember))
	})

	It("looks up by name or email interchangeably", func() {
		user := createTestUser(ctx, "alice", "alice@example.com")

		byName, err := env.Users.GetByIdentifier(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal(user.ID))

		byEmail, err := env.Users.GetByIdentifier(ctx, "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(user.ID))
	})

	It("rejects duplicate names", func() {
		createTestUser(ctx, "alice", "alice@example.com")

		hasher := auth.NewPBKDF2Hasher()
		hash, err := hasher.Hash("other-pass")
		Expect(err).NotTo(HaveOccurred())
		dup, err := auth.NewUser("alice", "Other Alice", "other@example.com", hash, auth.RoleMember)
		Expect(err).NotTo(HaveOccurred())

		err = env.Users.Create(ctx, dup)
		Expect(err).To(HaveOccurred())
	})

	It("reports existence by name or email independently", func() {
		createTestUser(ctx, "alice", "alice@example.com")

		exists, err := env.Users.ExistsByNameOrEmail(ctx, "alice", "unused@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		exists, err = env.Users.ExistsByNameOrEmail(ctx, "unused", "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		exists, err = env.Users.ExistsByNameOrEmail(ctx, "unused", "unused@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("returns not found for unknown ids", func() {
		_, err := env.Users.GetByID(ctx, ulid.Make())
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})

var _ = Describe("SessionRepository", func() {
	var ctx context.Context
	var user *auth.User

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)
		user = createTestUser(ctx, "alice", "alice@example.com")
	})

	It("stores only the token hash and finds by it", func() {
		token, tokenHash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		session, err := auth.NewSession(user.ID, tokenHash, time.Now().Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(ctx, session)).To(Succeed())

		got, err := env.Sessions.GetByTokenHash(ctx, auth.HashSessionToken(token))
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UserID).To(Equal(user.ID))

		// The plaintext token is not a lookup key.
		_, err = env.Sessions.GetByTokenHash(ctx, token)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("deletes expired sessions only", func() {
		_, liveHash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		live, err := auth.NewSession(user.ID, liveHash, time.Now().Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(ctx, live)).To(Succeed())

		_, deadHash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		dead, err := auth.NewSession(user.ID, deadHash, time.Now().Add(-time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(ctx, dead)).To(Succeed())

		removed, err := env.Sessions.DeleteExpired(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(Equal(int64(1)))

		remaining, err := env.Sessions.GetByUser(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(HaveLen(1))
		Expect(remaining[0].ID).To(Equal(live.ID))
	})

	It("cascades when the user is deleted", func() {
		_, tokenHash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		session, err := auth.NewSession(user.ID, tokenHash, time.Now().Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(ctx, session)).To(Succeed())

		Expect(env.Users.Delete(ctx, user.ID)).To(Succeed())

		_, err = env.Sessions.GetByTokenHash(ctx, tokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})

var _ = Describe("InvitationRepository", func() {
	var ctx context.Context
	var issuer *auth.User

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)
		issuer = createTestUser(ctx, "admin", "admin@example.com")
	})

	It("round-trips an invitation with its clear token", func() {
		invitation, err := auth.NewInvitation("guest@example.com", auth.RoleExternal, issuer.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Invitations.Create(ctx, invitation)).To(Succeed())

		got, err := env.Invitations.GetByToken(ctx, invitation.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(invitation.ID))
		Expect(got.Token).To(Equal(invitation.Token))
		Expect(got.Status).To(Equal(auth.InvitationPending))
		Expect(got.IsValid()).To(BeTrue())
	})

	It("admits exactly one winner under concurrent consumption", func() {
		invitation, err := auth.NewInvitation("guest@example.com", auth.RoleExternal, issuer.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Invitations.Create(ctx, invitation)).To(Succeed())

		const racers = 8
		var wg sync.WaitGroup
		wins := make(chan bool, racers)
		for range racers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				updated, err := env.Invitations.UpdateStatusIfPending(ctx, invitation.ID, auth.InvitationAccepted)
				Expect(err).NotTo(HaveOccurred())
				wins <- updated
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for updated := range wins {
			if updated {
				won++
			}
		}
		Expect(won).To(Equal(1))

		got, err := env.Invitations.GetByID(ctx, invitation.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(auth.InvitationAccepted))
	})

	It("does not resurrect a cancelled invitation", func() {
		invitation, err := auth.NewInvitation("guest@example.com", auth.RoleExternal, issuer.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Invitations.Create(ctx, invitation)).To(Succeed())

		updated, err := env.Invitations.UpdateStatusIfPending(ctx, invitation.ID, auth.InvitationCancelled)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated).To(BeTrue())

		updated, err = env.Invitations.UpdateStatusIfPending(ctx, invitation.ID, auth.InvitationAccepted)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated).To(BeFalse())
	})

	It("lists by issuer", func() {
		for _, email := range []string{"a@example.com", "b@example.com"} {
			invitation, err := auth.NewInvitation(email, auth.RoleMember, issuer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Invitations.Create(ctx, invitation)).To(Succeed())
		}

		invitations, err := env.Invitations.ListByIssuer(ctx, issuer.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(invitations).To(HaveLen(2))

		invitations, err = env.Invitations.ListByIssuer(ctx, ulid.Make())
		Expect(err).NotTo(HaveOccurred())
		Expect(invitations).To(BeEmpty())
	})
})
