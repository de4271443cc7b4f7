// Copyright (c) 2026 ClarifyX. All rights reserved.

// Package notify delivers outbound notifications to users.
//
// Delivery is best-effort: callers fire notifications from goroutines
// and a failed send never fails the triggering request.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPMailer constructs a mailer for the given relay.
func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers one message. The context is accepted for interface
// symmetry; net/smtp does not support cancellation mid-dial.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("notify: send mail to %s: %w", to, err)
	}
	return nil
}

// NoopMailer drops messages. Used when no SMTP relay is configured so
// the rest of the system never has to nil-check its mailer.
type NoopMailer struct {
	Logger *slog.Logger
}

// Send logs the dropped message at debug level and returns nil.
func (m *NoopMailer) Send(ctx context.Context, to, subject, _ string) error {
	if m.Logger != nil {
		m.Logger.DebugContext(ctx, "mail_dropped_no_relay",
			slog.String("to", to),
			slog.String("subject", subject),
		)
	}
	return nil
}
