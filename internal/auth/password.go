package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// DecoyHash is compared against when an account does not exist or has no
// password, so those logins cost the same as a wrong password at the same cost.
type DecoyHash struct {
	cost int
	once sync.Once
	hash []byte
}

// NewDecoyHash returns a decoy hashed at cost. The hash is generated on first use.
func NewDecoyHash(cost int) *DecoyHash {
	return &DecoyHash{cost: cost}
}

// Burn performs a comparison that always fails.
func (d *DecoyHash) Burn(plain string) {
	d.once.Do(func() {
		d.hash, _ = bcrypt.GenerateFromPassword([]byte("decoy-password-never-matches"), d.cost)
	})
	_ = bcrypt.CompareHashAndPassword(d.hash, []byte(plain))
}
