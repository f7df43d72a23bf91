// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package api

import (
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
)

// invitationView is the issuer-facing projection, token and URL included.
type invitationView struct {
	ID      string `json:"id"`
	Expires int64  `json:"expires"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	CanUse  bool   `json:"can_use"`
}

// publicInvitationView is what an anonymous holder of an invitation link
// sees: enough to render the registration form, nothing redeemable.
type publicInvitationView struct {
	ID     string `json:"id"`
	CanUse bool   `json:"can_use"`
	Role   string `json:"role"`
}

func (s *Server) viewInvitation(inv *auth.Invitation) invitationView {
	return invitationView{
		ID:      inv.ID.String(),
		Expires: inv.ExpiresAt.UnixMilli(),
		URL:     s.deps.Invitations.InviteURL(inv),
		Token:   inv.Token,
		Email:   inv.Email,
		Role:    string(inv.Role),
		CanUse:  inv.IsValid(),
	}
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	principal, err := s.deps.Gate.Authorize(r.Context(), requestToken(r), auth.RoleAdmin)
	if err != nil {
		s.fail(w, r, "invitation issuance denied", err)
		return
	}

	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	invitation, err := s.deps.Invitations.Issue(r.Context(), body.Email, auth.Role(body.Role), principal.User.ID)
	if err != nil {
		s.fail(w, r, "invitation issuance failed", err)
		return
	}

	s.countInvitation("issued")
	writeData(w, r, http.StatusCreated, s.viewInvitation(invitation))
}

func (s *Server) handleGetInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, oops.Code("INVITE_NOT_FOUND").Errorf("invitation not found"))
		return
	}

	principal, err := s.principal(r)
	if err != nil {
		s.fail(w, r, "invitation lookup failed", err)
		return
	}

	invitation, err := s.deps.Invitations.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "invitation lookup failed", err)
		return
	}

	if principal == nil {
		writeData(w, r, http.StatusOK, publicInvitationView{
			ID:     invitation.ID.String(),
			CanUse: invitation.IsValid(),
			Role:   string(invitation.Role),
		})
		return
	}
	writeData(w, r, http.StatusOK, s.viewInvitation(invitation))
}

func (s *Server) handleCancelInvitation(w http.ResponseWriter, r *http.Request) {
	principal, err := s.deps.Gate.Authorize(r.Context(), requestToken(r))
	if err != nil {
		s.fail(w, r, "invitation cancel denied", err)
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, oops.Code("INVITE_NOT_FOUND").Errorf("invitation not found"))
		return
	}

	invitation, err := s.deps.Invitations.Cancel(r.Context(), id, principal.User.ID)
	if err != nil {
		s.fail(w, r, "invitation cancel failed", err)
		return
	}

	s.countInvitation("cancelled")
	view := s.viewInvitation(invitation)
	writeData(w, r, http.StatusOK, struct {
		ID      string `json:"id"`
		Expires int64  `json:"expires"`
		URL     string `json:"url"`
		Email   string `json:"email"`
		Role    string `json:"role"`
	}{view.ID, view.Expires, view.URL, view.Email, view.Role})
}

func (s *Server) handleListMyInvitations(w http.ResponseWriter, r *http.Request) {
	principal, err := s.deps.Gate.Authorize(r.Context(), requestToken(r))
	if err != nil {
		s.fail(w, r, "invitation list denied", err)
		return
	}

	invitations, err := s.deps.Invitations.ListByIssuer(r.Context(), principal.User.ID)
	if err != nil {
		s.fail(w, r, "invitation list failed", err)
		return
	}

	type item struct {
		ID      string `json:"id"`
		Expires int64  `json:"expires"`
		Email   string `json:"email"`
		Role    string `json:"role"`
	}
	items := make([]item, 0, len(invitations))
	for _, inv := range invitations {
		items = append(items, item{
			ID:      inv.ID.String(),
			Expires: inv.ExpiresAt.UnixMilli(),
			Email:   inv.Email,
			Role:    string(inv.Role),
		})
	}
	writeData(w, r, http.StatusOK, items)
}

func (s *Server) countInvitation(action string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.InvitationsTotal.WithLabelValues(action).Inc()
	}
}

// parseID parses a ULID path segment. Malformed ids are indistinguishable
// from absent records to the client.
func parseID(raw string) (ulid.ULID, error) {
	return ulid.ParseStrict(raw)
}
