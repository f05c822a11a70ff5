package provider

import (
	"context"
	"fmt"
	"time"
)

// Token is the bearer credential injected into every outbound request. It is
// read-only once issued; refresh produces a new value.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past (or within skew of) its expiry.
// Tokens without a known expiry never report expired; the cache TTL bounds
// their lifetime instead.
func (t *Token) Expired(skew time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(skew).After(t.ExpiresAt)
}

// TokenProvider is implemented by every credential source the suite can run
// with. Token must be safe for concurrent use and must not perform more than
// one network exchange per validity window.
type TokenProvider interface {
	// Token returns a valid bearer token, acquiring or refreshing one if
	// needed.
	Token(ctx context.Context) (*Token, error)

	// Type returns the provider type identifier.
	Type() string

	// Validate checks if the provider configuration is valid.
	Validate() error
}

// AuthenticationError reports a failed token exchange. It is fatal for the
// whole run: no test should execute without a credential, and the suite does
// not retry the exchange.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed: token endpoint returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
