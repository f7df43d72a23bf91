// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid credentials", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("nope"), http.StatusUnauthorized},
		{"unauthorized", oops.Code("AUTH_UNAUTHORIZED").Errorf("nope"), http.StatusUnauthorized},
		{"forbidden", oops.Code("AUTH_FORBIDDEN").Errorf("nope"), http.StatusForbidden},
		{"user not found", oops.Code("USER_NOT_FOUND").Errorf("nope"), http.StatusNotFound},
		{"invitation not found", oops.Code("INVITE_NOT_FOUND").Errorf("nope"), http.StatusNotFound},
		{"invalid name", oops.Code("USER_INVALID_NAME").Errorf("nope"), http.StatusBadRequest},
		{"invalid request body", oops.Code("API_INVALID_REQUEST").Errorf("nope"), http.StatusBadRequest},
		{"already exists", oops.Code("USER_ALREADY_EXISTS").Errorf("nope"), http.StatusConflict},
		{"spent invitation", oops.Code("INVITE_NOT_VALID").Errorf("nope"), http.StatusConflict},
		{"invalid transition", oops.Code("INVITE_INVALID_TRANSITION").Errorf("nope"), http.StatusConflict},
		{"delivery failure", oops.Code("INVITE_DELIVERY_FAILED").Errorf("nope"), http.StatusBadGateway},
		{"storage failure", oops.Code("SESSION_CREATE_FAILED").Errorf("nope"), http.StatusInternalServerError},
		{"uncoded oops error", oops.Errorf("boom"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, statusForError(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Run("client errors keep their message", func(t *testing.T) {
		err := oops.Code("USER_NOT_FOUND").Errorf("user not found")
		assert.Equal(t, "user not found", errorMessage(err, http.StatusNotFound))
	})

	t.Run("internal faults are masked", func(t *testing.T) {
		err := oops.Code("SESSION_CREATE_FAILED").Errorf("pq: connection refused to 10.0.0.3")
		assert.Equal(t, "internal server error", errorMessage(err, http.StatusInternalServerError))
	})

	t.Run("delivery faults are masked", func(t *testing.T) {
		err := oops.Code("INVITE_DELIVERY_FAILED").Errorf("mailersend: 500 with api key abc")
		assert.Equal(t, "invitation delivery failed", errorMessage(err, http.StatusBadGateway))
	})
}
