// Package clientcredentials implements the OAuth2 client-credentials token
// provider: one exchange against the environment's token endpoint per run,
// cached for the token's validity window.
package clientcredentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	ccred "golang.org/x/oauth2/clientcredentials"

	"github.com/scimatic/scimcheck/cache"
	"github.com/scimatic/scimcheck/libs"
	"github.com/scimatic/scimcheck/provider"
)

// tokenEndpointPath is where the identity server mounts its token endpoint
// relative to the OAuth base URL.
const tokenEndpointPath = "/connect/token"

// expirySkew keeps a safety margin so a token is never handed out moments
// before the server stops accepting it.
const expirySkew = 30 * time.Second

func init() {
	provider.DefaultFactory.Register("clientcredentials", NewProviderFromProfile)
}

// Provider exchanges client credentials for a bearer token and caches the
// result. The mutex makes first use idempotent under concurrent test
// workers: at most one exchange happens per validity window.
type Provider struct {
	profile libs.EnvironmentProfile
	config  *ccred.Config
	cache   cache.Cache
	mu      sync.Mutex
}

// NewProviderFromProfile creates a client-credentials provider for the
// resolved environment. The token endpoint defaults to the profile's OAuth
// base URL plus /connect/token; an oauth_issuer setting switches to OIDC
// discovery instead.
func NewProviderFromProfile(profile libs.EnvironmentProfile) (provider.TokenProvider, error) {
	tokenURL, err := resolveTokenURL(profile)
	if err != nil {
		return nil, err
	}

	ttl := viper.GetDuration("token_cache_expire")
	if ttl == 0 {
		ttl = 55 * time.Minute
	}

	tokenCache, err := cache.New(context.Background(), viper.GetString("token_cache_type"), ttl)
	if err != nil {
		return nil, err
	}

	scopes := []string{}
	if profile.OAuthScope != "" {
		scopes = strings.Fields(profile.OAuthScope)
	}

	p := &Provider{
		profile: profile,
		config: &ccred.Config{
			ClientID:     profile.OAuthClientID,
			ClientSecret: profile.OAuthClientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		cache: tokenCache,
	}

	return p, nil
}

func resolveTokenURL(profile libs.EnvironmentProfile) (string, error) {
	if issuer := viper.GetString("oauth_issuer"); issuer != "" {
		oidcProvider, err := oidc.NewProvider(context.Background(), issuer)
		if err != nil {
			return "", fmt.Errorf("OIDC discovery against %s failed: %w", issuer, err)
		}
		return oidcProvider.Endpoint().TokenURL, nil
	}

	if profile.OAuthBaseURL == "" {
		return "", &libs.ConfigurationError{
			Setting: "oauth_base_url",
			Reason:  "required for client-credentials token exchange",
		}
	}

	return strings.TrimRight(profile.OAuthBaseURL, "/") + tokenEndpointPath, nil
}

// Token returns the cached bearer token, exchanging credentials only when no
// unexpired token is held.
func (p *Provider) Token(ctx context.Context) (*provider.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.cacheKey()

	if raw, found := p.cache.Get(ctx, key); found {
		var cached provider.Token
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && !cached.Expired(expirySkew) {
			return &cached, nil
		}
	}

	tok, err := p.config.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &provider.AuthenticationError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
				Err:        err,
			}
		}
		return nil, &provider.AuthenticationError{Err: err}
	}

	out := &provider.Token{
		Value:     tok.AccessToken,
		ExpiresAt: tok.Expiry,
	}
	if out.ExpiresAt.IsZero() {
		out.ExpiresAt = time.Now().Add(p.cache.GetTTL(ctx))
	}

	if raw, err := json.Marshal(out); err == nil {
		p.cache.Set(ctx, key, string(raw))
	}

	slog.DebugContext(ctx, "acquired bearer token",
		slog.String("profile", string(p.profile.Name)),
		slog.Time("expires_at", out.ExpiresAt),
	)

	return out, nil
}

func (p *Provider) cacheKey() string {
	return fmt.Sprintf("scimcheck:token:%s:%s", p.profile.Name, p.config.ClientID)
}

// Type returns the provider type identifier.
func (p *Provider) Type() string {
	return "clientcredentials"
}

// Validate checks if the provider configuration is valid.
func (p *Provider) Validate() error {
	if p.config.ClientID == "" {
		return &libs.ConfigurationError{Setting: "client_id", Reason: "required for client-credentials grant"}
	}
	if p.config.ClientSecret == "" {
		return &libs.ConfigurationError{Setting: "client_secret", Reason: "required for client-credentials grant"}
	}
	return nil
}
