package auth

import (
	"github.com/gofiber/fiber/v2"
)

const claimKey = "auth_claim"

// AuthMiddleware resolves the session cookie into a verified claim and writes
// the session cookie on login and logout.
type AuthMiddleware struct {
	tokens  *TokenManager
	cookies *CookieTransport
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, cookies *CookieTransport) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, cookies: cookies}
}

// Handle attaches the verified claim to the request, if any. It never rejects:
// a forged, expired or missing cookie all leave the request anonymous.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if raw, ok := m.cookies.Extract(c.Get(fiber.HeaderCookie)); ok {
		if claim, valid := m.tokens.ParseAndVerify(raw); valid {
			c.Locals(claimKey, claim)
		}
	}
	return c.Next()
}

// WriteSession sets token as the session cookie.
func (m *AuthMiddleware) WriteSession(c *fiber.Ctx, token string) {
	c.Set(fiber.HeaderSetCookie, m.cookies.Serialize(token))
}

// ClearSession expires the session cookie.
func (m *AuthMiddleware) ClearSession(c *fiber.Ctx) {
	c.Set(fiber.HeaderSetCookie, m.cookies.Clear())
}

// ClaimFromContext retrieves the verified session claim.
func ClaimFromContext(c *fiber.Ctx) (*Claim, bool) {
	val := c.Locals(claimKey)
	if val == nil {
		return nil, false
	}
	claim, ok := val.(*Claim)
	return claim, ok
}
