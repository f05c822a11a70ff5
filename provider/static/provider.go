// Package static implements a token provider for runs where a bearer token
// was issued out of band and handed to the suite through the environment.
package static

import (
	"context"

	"github.com/spf13/viper"

	"github.com/scimatic/scimcheck/libs"
	"github.com/scimatic/scimcheck/provider"
)

func init() {
	provider.DefaultFactory.Register("static", NewProviderFromProfile)
}

// Provider returns the same pre-issued token for the whole run. Expiry is
// unknown, so the token never reports expired; a run with a stale token
// fails its first request instead.
type Provider struct {
	token string
}

// NewProviderFromProfile creates a static provider from the
// oauth_static_token setting.
func NewProviderFromProfile(profile libs.EnvironmentProfile) (provider.TokenProvider, error) {
	return &Provider{token: viper.GetString("oauth_static_token")}, nil
}

func (p *Provider) Token(ctx context.Context) (*provider.Token, error) {
	if p.token == "" {
		return nil, &provider.AuthenticationError{Err: &libs.ConfigurationError{
			Setting: "oauth_static_token",
			Reason:  "required for the static token provider",
		}}
	}
	return &provider.Token{Value: p.token}, nil
}

// Type returns the provider type identifier.
func (p *Provider) Type() string {
	return "static"
}

// Validate checks if the provider configuration is valid.
func (p *Provider) Validate() error {
	if p.token == "" {
		return &libs.ConfigurationError{
			Setting: "oauth_static_token",
			Reason:  "required for the static token provider",
		}
	}
	return nil
}
