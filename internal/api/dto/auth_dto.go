package dto

import (
	"time"

	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// EmailRequest carries a single email address.
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyCodeRequest payload for code verification.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the caller's verified session. Exp is milliseconds since epoch.
type SessionResponse struct {
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Exp       int64       `json:"exp"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// NewSessionResponse renders a claim.
func NewSessionResponse(c auth.Claim) SessionResponse {
	return SessionResponse{
		Email:     c.Identity,
		Role:      c.Role,
		Exp:       c.ExpiresAt,
		ExpiresAt: c.Expiry().UTC(),
	}
}

// SendCodeResponse reports how the code was delivered. DevCode is set only by
// the development fallback.
type SendCodeResponse struct {
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	DevCode   string    `json:"dev_code,omitempty"`
}
