package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

const tokenSeparator = "."

// Claim describes the session payload, serialized as {"email","role","exp"} with
// exp in milliseconds since epoch.
type Claim struct {
	Identity  string      `json:"email"`
	Role      domain.Role `json:"role"`
	ExpiresAt int64       `json:"exp"`
}

// Expiry returns ExpiresAt as a time.
func (c Claim) Expiry() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

// TokenManager issues and verifies signed session tokens of the form
// base64url(JSON(claim)) "." base64url(HMAC(payload)).
type TokenManager struct {
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithLogger attaches a logger used for verification diagnostics.
func WithLogger(logger *zap.Logger) TokenOption {
	return func(tm *TokenManager) {
		if logger != nil {
			tm.logger = logger
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(signer *Signer, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	tm := &TokenManager{signer: signer, ttl: ttl, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// TTL returns the default token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token with the default lifetime.
func (tm *TokenManager) Issue(identity string, role domain.Role) (string, Claim, error) {
	return tm.IssueWithTTL(identity, role, tm.ttl)
}

// IssueWithTTL builds and signs a token expiring ttl from now.
func (tm *TokenManager) IssueWithTTL(identity string, role domain.Role, ttl time.Duration) (string, Claim, error) {
	if identity == "" || role == "" {
		return "", Claim{}, errors.New("identity and role are required")
	}
	if ttl <= 0 {
		return "", Claim{}, errors.New("token ttl must be positive")
	}

	claim := Claim{
		Identity:  identity,
		Role:      role,
		ExpiresAt: tm.now().Add(ttl).UnixMilli(),
	}
	raw, err := json.Marshal(claim)
	if err != nil {
		return "", Claim{}, err
	}
	payload := EncodeSegment(raw)
	signature, err := tm.signer.Sign(payload)
	if err != nil {
		return "", Claim{}, err
	}
	return payload + tokenSeparator + signature, claim, nil
}

// ParseAndVerify returns the claim carried by token when every check passes.
// Any failure yields (nil, false); the cause is only logged at debug level.
func (tm *TokenManager) ParseAndVerify(token string) (*Claim, bool) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return tm.reject("malformed")
	}
	payload, signature := parts[0], parts[1]

	if !tm.signer.Verify(payload, signature) {
		return tm.reject("signature_mismatch")
	}

	raw, err := DecodeSegment(payload)
	if err != nil {
		return tm.reject("payload_encoding")
	}

	var claim Claim
	if err := json.Unmarshal(raw, &claim); err != nil {
		return tm.reject("payload_json")
	}
	if claim.Identity == "" || claim.Role == "" || claim.ExpiresAt == 0 {
		return tm.reject("missing_fields")
	}
	if tm.now().UnixMilli() > claim.ExpiresAt {
		return tm.reject("expired")
	}
	return &claim, true
}

func (tm *TokenManager) reject(reason string) (*Claim, bool) {
	tm.logger.Debug("session token rejected", zap.String("reason", reason))
	return nil, false
}
