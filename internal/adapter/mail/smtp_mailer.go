package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// SMTPMailer delivers mail through a plain SMTP relay such as a local
// mailhog or a smarthost that does its own authentication upstream.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer creates a mailer that relays through addr (host:port).
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// Send delivers the message, honouring ctx cancellation while the relay is
// slow to respond.
func (m *SMTPMailer) Send(ctx context.Context, email domain.Email) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.Body)

	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(m.addr, nil, m.from, []string{email.To}, []byte(b.String()))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}
