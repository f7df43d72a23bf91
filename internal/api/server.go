// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package api serves the JSON HTTP interface: authentication, registration,
// invitations, user lookup, and meeting listings.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
	"github.com/hactazia/assoconnect/internal/meeting"
	"github.com/hactazia/assoconnect/internal/observability"
)

// sessionCookie carries the session token for browser clients, mirroring
// the token returned in the login body.
const sessionCookie = "_uid"

// Deps are the collaborators the API serves.
type Deps struct {
	Auth         *auth.AuthService
	Gate         *auth.Gate
	Invitations  *auth.InvitationService
	Registration *auth.RegistrationService
	Users        auth.UserRepository
	Meetings     *meeting.Service
	Metrics      *observability.Metrics
	Logger       *slog.Logger
}

// Server is the public HTTP server.
type Server struct {
	addr       string
	deps       Deps
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates the API server. addr is a listen address in
// "host:port" format.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Gate == nil || deps.Invitations == nil ||
		deps.Registration == nil || deps.Users == nil || deps.Meetings == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("all API dependencies are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{addr: addr, deps: deps}, nil
}

// Handler builds the full route table, wrapped with request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /register", s.handleRegister)

	mux.HandleFunc("POST /invitations", s.handleCreateInvitation)
	mux.HandleFunc("GET /invitations/{id}", s.handleGetInvitation)
	mux.HandleFunc("DELETE /invitations/{id}", s.handleCancelInvitation)

	mux.HandleFunc("GET /users/@me", s.handleGetSelf)
	mux.HandleFunc("GET /users/@me/invitations", s.handleListMyInvitations)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)

	mux.HandleFunc("GET /meetings", s.handleListMeetings)

	return s.instrument(mux)
}

// Start begins serving the API. It returns an error channel that receives
// any serve error after startup and is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- oops.With("addr", s.addr).Wrap(err)
		}
	}()

	s.deps.Logger.Info("api server started", "addr", s.Addr())
	return errCh, nil
}

// Stop gracefully shuts down the server. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.Wrap(err)
	}
	return nil
}

// Addr returns the bound listen address, useful when addr was ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// statusRecorder captures the response status for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument counts every request by route pattern and response status, and
// answers unmatched paths with the JSON not-found envelope instead of the
// default plain-text 404.
func (s *Server) instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern == "" {
			writeError(w, r, oops.Code("ROUTE_NOT_FOUND").Errorf("not found"))
			if s.deps.Metrics != nil {
				s.deps.Metrics.HTTPRequestsTotal.WithLabelValues("unmatched", "404").Inc()
			}
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)
		if s.deps.Metrics != nil {
			s.deps.Metrics.HTTPRequestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
		}
	})
}

// requestToken extracts the session token: the authtoken query parameter
// wins over the Authorization header, and a Bearer prefix is tolerated.
func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("authtoken"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

// principal resolves the request's token to an authenticated principal.
// Anonymous requests yield (nil, nil); only store faults are errors.
func (s *Server) principal(r *http.Request) (*auth.Principal, error) {
	return s.deps.Auth.Authenticate(r.Context(), requestToken(r))
}

// decodeBody parses the JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return oops.Code("API_INVALID_REQUEST").
			With("operation", "decode request body").
			Wrap(err)
	}
	return nil
}

// setSessionCookie mirrors the issued token into the browser cookie.
func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
