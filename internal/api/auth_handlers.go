// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package api

import (
	"net/http"
	"time"

	"github.com/hactazia/assoconnect/internal/auth"
	"github.com/hactazia/assoconnect/pkg/errutil"
)

// userView is the full projection of an authenticated user. The password
// hash never leaves the service.
type userView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Display string `json:"display"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func viewUser(u *auth.User) userView {
	return userView{
		ID:      u.ID.String(),
		Name:    u.Name,
		Display: u.DisplayName,
		Email:   u.Email,
		Role:    string(u.Role),
	}
}

// sessionView is the response shape shared by login and registration.
type sessionView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userView  `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifiant string `json:"identifiant"`
		Password    string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	session, token, err := s.deps.Auth.Login(r.Context(), body.Identifiant, body.Password)
	if err != nil {
		s.countLogin("failure")
		s.fail(w, r, "login failed", err)
		return
	}

	// Login validated the credentials against this exact record; a
	// concurrent deletion here surfaces as a fault, not a denial.
	user, err := s.deps.Users.GetByIdentifier(r.Context(), body.Identifiant)
	if err != nil {
		s.countLogin("failure")
		s.fail(w, r, "login failed", err)
		return
	}

	s.countLogin("success")
	setSessionCookie(w, token, session.ExpiresAt)
	writeData(w, r, http.StatusOK, sessionView{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      viewUser(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, err := s.deps.Gate.Authorize(r.Context(), requestToken(r))
	if err != nil {
		s.fail(w, r, "logout denied", err)
		return
	}

	if err := s.deps.Auth.Logout(r.Context(), principal.Session); err != nil {
		s.fail(w, r, "logout failed", err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
	writeData(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string `json:"name"`
		Display    string `json:"display"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Invitation string `json:"invitation"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	user, session, token, err := s.deps.Registration.Register(r.Context(), auth.Registration{
		Name:            body.Name,
		DisplayName:     body.Display,
		Email:           body.Email,
		Password:        body.Password,
		InvitationToken: body.Invitation,
	})
	if err != nil {
		s.fail(w, r, "registration failed", err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RegistrationsTotal.Inc()
	}
	setSessionCookie(w, token, session.ExpiresAt)
	writeData(w, r, http.StatusCreated, sessionView{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      viewUser(user),
	})
}

func (s *Server) countLogin(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

// fail writes the error envelope and logs server-side faults.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if statusForError(err) >= http.StatusInternalServerError {
		errutil.LogError(s.deps.Logger, msg, err)
	}
	writeError(w, r, err)
}
