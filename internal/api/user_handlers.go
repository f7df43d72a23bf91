// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package api

import (
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
)

func (s *Server) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	principal, err := s.deps.Gate.Authorize(r.Context(), requestToken(r))
	if err != nil {
		s.fail(w, r, "self lookup denied", err)
		return
	}
	writeData(w, r, http.StatusOK, viewUser(principal.User))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, userNotFound())
		return
	}

	principal, err := s.principal(r)
	if err != nil {
		s.fail(w, r, "user lookup failed", err)
		return
	}

	user, err := s.deps.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, userNotFound())
			return
		}
		s.fail(w, r, "user lookup failed", err)
		return
	}

	if principal == nil {
		writeData(w, r, http.StatusOK, struct {
			ID      string `json:"id"`
			Display string `json:"display"`
		}{user.ID.String(), user.DisplayName})
		return
	}
	writeData(w, r, http.StatusOK, struct {
		ID      string `json:"id"`
		Display string `json:"display"`
		Role    string `json:"role"`
	}{user.ID.String(), user.DisplayName, string(user.Role)})
}

func userNotFound() error {
	return oops.Code("USER_NOT_FOUND").Errorf("user not found")
}
