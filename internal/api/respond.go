// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
)

// dataEnvelope wraps every successful response.
type dataEnvelope struct {
	Data    any    `json:"data"`
	Time    int64  `json:"time"`
	Request string `json:"request"`
}

// errorEnvelope wraps every failed response.
type errorEnvelope struct {
	Error   errorBody `json:"error"`
	Time    int64     `json:"time"`
	Request string    `json:"request"`
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// statusByCode maps error codes that don't follow the suffix conventions.
var statusByCode = map[string]int{
	"AUTH_INVALID_CREDENTIALS":  http.StatusUnauthorized,
	"AUTH_UNAUTHORIZED":         http.StatusUnauthorized,
	"AUTH_FORBIDDEN":            http.StatusForbidden,
	"SESSION_NOT_FOUND":         http.StatusUnauthorized,
	"USER_ALREADY_EXISTS":       http.StatusConflict,
	"INVITE_NOT_VALID":          http.StatusConflict,
	"INVITE_INVALID_TRANSITION": http.StatusConflict,
	"INVITE_DELIVERY_FAILED":    http.StatusBadGateway,
	"MAIL_SEND_FAILED":          http.StatusBadGateway,
}

// statusForError translates a service error into an HTTP status. Codes with
// an explicit mapping win; otherwise NOT_FOUND suffixes become 404, INVALID
// codes become 400, and anything else is an internal fault.
func statusForError(err error) int {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return http.StatusInternalServerError
	}
	code, _ := oopsErr.Code().(string)

	if status, ok := statusByCode[code]; ok {
		return status
	}
	if strings.HasSuffix(code, "_NOT_FOUND") {
		return http.StatusNotFound
	}
	if strings.Contains(code, "_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorMessage picks the client-facing message for err. Internal faults are
// masked so storage details never reach the wire.
func errorMessage(err error, status int) string {
	if status == http.StatusBadGateway {
		return "invitation delivery failed"
	}
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, dataEnvelope{
		Data:    data,
		Time:    time.Now().UnixMilli(),
		Request: r.URL.Path,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	writeJSON(w, status, errorEnvelope{
		Error: errorBody{
			Status:  status,
			Message: errorMessage(err, status),
		},
		Time:    time.Now().UnixMilli(),
		Request: r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Encoding an envelope of plain structs can't fail; the status line is
	// already gone anyway.
	_ = json.NewEncoder(w).Encode(body)
}
