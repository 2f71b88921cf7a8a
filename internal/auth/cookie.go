package auth

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CookieTransport moves session tokens in and out of the session cookie.
type CookieTransport struct {
	name   string
	ttl    time.Duration
	secure bool
}

// NewCookieTransport builds a transport. secure adds the Secure attribute and should
// be set for production deployments.
func NewCookieTransport(name string, ttl time.Duration, secure bool) *CookieTransport {
	return &CookieTransport{name: name, ttl: ttl, secure: secure}
}

// Name returns the cookie name.
func (t *CookieTransport) Name() string {
	return t.name
}

// Serialize returns a Set-Cookie value carrying token for the default lifetime.
func (t *CookieTransport) Serialize(token string) string {
	return t.SerializeWithTTL(token, t.ttl)
}

// SerializeWithTTL returns a Set-Cookie value carrying token for ttl.
func (t *CookieTransport) SerializeWithTTL(token string, ttl time.Duration) string {
	return t.build(token, int(ttl/time.Second))
}

// Clear returns a Set-Cookie value that removes the session cookie.
func (t *CookieTransport) Clear() string {
	return t.build("", 0)
}

func (t *CookieTransport) build(value string, maxAge int) string {
	if maxAge < 0 {
		maxAge = 0
	}
	attrs := []string{
		t.name + "=" + value,
		"Path=/",
		"HttpOnly",
		"SameSite=Lax",
		"Max-Age=" + strconv.Itoa(maxAge),
	}
	if t.secure {
		attrs = append(attrs, "Secure")
	}
	return strings.Join(attrs, "; ")
}

// Extract finds the session token in a Cookie request header. When the cookie
// appears more than once the last occurrence wins. Values that are not valid
// percent-encoding are ignored.
func (t *CookieTransport) Extract(header string) (string, bool) {
	var (
		token string
		found bool
	)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		if name != t.name {
			continue
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			continue
		}
		token, found = decoded, true
	}
	return token, found
}
