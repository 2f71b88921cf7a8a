package domain

import "time"

// EmailCode is a one-time numeric code issued to verify control of an email address.
// There is at most one record per email; issuing a new code replaces it.
type EmailCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Expired reports whether the code can no longer be accepted at now.
func (c EmailCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
