package domain

import "time"

// Session is a server-side login session referenced by an opaque cookie token.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
