// Package mail is the best-effort notification side channel. Delivery
// failures are logged and discarded; nothing in the request path waits on it
// or rolls back because of it.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/Ayush7kr/TaskManagementSystem/internal/config"
)

// Dispatcher sends a single notification email.
type Dispatcher interface {
	Send(to, subject, body string) error
}

// New picks the SMTP dispatcher when a mail host is configured and the
// explicit no-op otherwise, so an unconfigured deployment degrades cleanly.
func New(cfg *config.Config) Dispatcher {
	if cfg.Mail.Host == "" {
		slog.Info("mail transport not configured, notifications disabled")
		return NullDispatcher{}
	}
	return &SMTPDispatcher{
		addr:     fmt.Sprintf("%s:%d", cfg.Mail.Host, cfg.Mail.Port),
		host:     cfg.Mail.Host,
		username: cfg.Mail.Username,
		password: cfg.Mail.Password,
		from:     cfg.Mail.From,
	}
}

// SMTPDispatcher delivers over plain SMTP with optional auth.
type SMTPDispatcher struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (d *SMTPDispatcher) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		d.from, to, subject, body)

	var auth smtp.Auth
	if d.username != "" {
		auth = smtp.PlainAuth("", d.username, d.password, d.host)
	}
	return smtp.SendMail(d.addr, auth, d.from, []string{to}, []byte(msg))
}

// NullDispatcher drops every message. Used when mail is unconfigured and in
// tests.
type NullDispatcher struct{}

func (NullDispatcher) Send(to, subject, body string) error { return nil }
