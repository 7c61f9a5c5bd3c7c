package auth

import (
	"crypto/subtle"

	"github.com/intellibotic/bot-api/internal/config"
)

// Credentials validates the single configured administrative identity.
// There is exactly one account; no lockout or rate limiting beyond the
// transport-level limiter.
type Credentials struct {
	username string
	password string
}

// NewCredentials creates the credential gate from the auth configuration
func NewCredentials(cfg *config.AuthConfig) *Credentials {
	return &Credentials{
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
	}
}

// Authenticate returns true only when both the username and password match
// the configured identity exactly. Both comparisons run in constant time and
// both always run, so a response cannot reveal which field was wrong.
func (c *Credentials) Authenticate(username, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	return userMatch && passMatch
}

// Username returns the configured identity, used as the token subject
func (c *Credentials) Username() string {
	return c.username
}
