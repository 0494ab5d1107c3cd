package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// SMTPMailer sends plain-text email through an SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

var _ ports.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the given relay. Username may be
// empty for unauthenticated relays.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

// Send delivers one message. The context is accepted for interface
// symmetry; net/smtp does not support cancellation mid-send.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", m.from)
	fmt.Fprintf(&body, "To: %s\r\n", msg.To)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Subject)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	body.WriteString(msg.Body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{msg.To}, []byte(body.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
