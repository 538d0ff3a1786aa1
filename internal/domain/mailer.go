package domain

import "context"

// Email is an outbound message handed to a Mailer.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}
