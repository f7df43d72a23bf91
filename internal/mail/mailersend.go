// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package mail delivers transactional email through the MailerSend HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"text/template"
	"time"

	"github.com/samber/oops"

	"github.com/hactazia/assoconnect/internal/auth"
)

// DefaultEndpoint is the MailerSend transactional email endpoint.
const DefaultEndpoint = "https://api.mailersend.com/v1/email"

const requestTimeout = 10 * time.Second

var (
	invitationTextTmpl = template.Must(template.New("invitation_text").Parse(
		"You have been invited to join our platform as a {{.Role}}. " +
			"Click on the link to accept the invitation: {{.URL}}"))
	invitationHTMLTmpl = template.Must(template.New("invitation_html").Parse(
		"You have been invited to join our platform as a {{.Role}}. " +
			`Click on the link to accept the invitation: <a href="{{.URL}}">{{.URL}}</a>`))
)

// message is the MailerSend request payload.
type message struct {
	From    address   `json:"from"`
	To      []address `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
	HTML    string    `json:"html"`
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MailerSend sends invitation email through the MailerSend API.
type MailerSend struct {
	client   *http.Client
	endpoint string
	apiKey   string
	from     address
}

// Option configures a MailerSend client.
type Option func(*MailerSend)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *MailerSend) { m.client = client }
}

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(m *MailerSend) { m.endpoint = endpoint }
}

// NewMailerSend creates a MailerSend client sending from the given address.
func NewMailerSend(apiKey, fromEmail, fromName string, opts ...Option) (*MailerSend, error) {
	if apiKey == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("api key is required")
	}
	if fromEmail == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("from address is required")
	}

	m := &MailerSend{
		client:   &http.Client{Timeout: requestTimeout},
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		from:     address{Email: fromEmail, Name: fromName},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SendInvitation delivers an invitation email carrying inviteURL. Any
// non-2xx response is a delivery failure; the caller decides what to do
// with the stored invitation.
func (m *MailerSend) SendInvitation(ctx context.Context, invitation *auth.Invitation, inviteURL string) error {
	data := struct {
		Role auth.Role
		URL  string
	}{invitation.Role, inviteURL}

	var text, html bytes.Buffer
	if err := invitationTextTmpl.Execute(&text, data); err != nil {
		return oops.Code("MAIL_ENCODE_FAILED").
			With("operation", "render mail body").
			Wrap(err)
	}
	if err := invitationHTMLTmpl.Execute(&html, data); err != nil {
		return oops.Code("MAIL_ENCODE_FAILED").
			With("operation", "render mail body").
			Wrap(err)
	}

	payload := message{
		From:    m.from,
		To:      []address{{Email: invitation.Email}},
		Subject: "Invitation to join our platform",
		Text:    text.String(),
		HTML:    html.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return oops.Code("MAIL_ENCODE_FAILED").
			With("operation", "marshal mail payload").
			Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return oops.Code("MAIL_REQUEST_FAILED").
			With("operation", "build mail request").
			Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "post mail").
			With("to", invitation.Email).
			Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close on read path

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck // best-effort diagnostics
		return oops.Code("MAIL_SEND_FAILED").
			With("status", resp.StatusCode).
			With("to", invitation.Email).
			Errorf("mail provider rejected the message: %s", detail)
	}

	return nil
}

// Compile-time interface check.
var _ auth.InvitationMailer = (*MailerSend)(nil)
