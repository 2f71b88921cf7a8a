package auth

import (
	"crypto/subtle"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned when a signer is built without key material.
var ErrEmptySecret = errors.New("signing secret must not be empty")

// Signer authenticates messages with HMAC-SHA256 under a single symmetric secret.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	secret []byte
}

// NewSigner builds a signer for the given secret.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{secret: key}, nil
}

// Sign returns the base64url encoded HMAC-SHA256 of message.
func (s *Signer) Sign(message string) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(message, s.secret)
	if err != nil {
		return "", err
	}
	return EncodeSegment(sig), nil
}

// Verify recomputes the signature of message and compares it with candidate in constant time.
func (s *Signer) Verify(message, candidate string) bool {
	expected, err := s.Sign(message)
	if err != nil {
		return false
	}
	return ConstantTimeEqual(expected, candidate)
}

// ConstantTimeEqual compares two strings without leaking the position of the first
// difference. Inputs of different length are unequal and their content is not compared.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
