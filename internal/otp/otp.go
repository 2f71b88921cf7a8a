// Package otp issues and verifies short-lived numeric codes sent by email.
package otp

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

var (
	// ErrInvalidCode covers malformed, unknown, consumed and expired codes alike.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrRateLimited is returned when an identity requested too many codes.
	ErrRateLimited = errors.New("too many code requests")
	// ErrCodeNotFound is returned by a CodeStore when no unused, unexpired record matches.
	ErrCodeNotFound = errors.New("code record not found")
)

// Outcome describes how an issued code reached the user.
type Outcome string

const (
	OutcomeDelivered         Outcome = "delivered"
	OutcomeDeliveryUncertain Outcome = "delivery_uncertain"
	OutcomeDevFallback       Outcome = "dev_fallback"
)

// CodeStore persists one code record per identity.
type CodeStore interface {
	// Save replaces any existing record for the identity.
	Save(ctx context.Context, record domain.EmailCode) error
	// Consume atomically marks the matching record used. It returns ErrCodeNotFound
	// when no unused record for (identity, code) is valid at now.
	Consume(ctx context.Context, identity, code string, now time.Time) (*domain.EmailCode, error)
}

// Mailer delivers a code to its recipient.
type Mailer interface {
	SendCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// Limiter throttles code requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// IssueResult reports the outcome of IssueCode.
type IssueResult struct {
	Outcome   Outcome
	ExpiresAt time.Time
	// Code is populated only for OutcomeDevFallback.
	Code string
	// DeliveryErr holds the mailer failure for OutcomeDeliveryUncertain.
	DeliveryErr error
}
