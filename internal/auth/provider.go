// Package auth implements the OAuth2 authorization-code flow against Adobe
// IMS: building the authorization URL, validating the callback, exchanging
// the code for tokens, and single-flight refresh.
package auth

import (
	"context"
	"net/http"

	"github.com/lumina-photos/lumina/internal/config"
	"golang.org/x/oauth2"
)

// Provider wraps the oauth2 client configuration for Adobe IMS.
type Provider struct {
	oauth2Config *oauth2.Config
	client       *http.Client
}

// NewProvider creates a provider from the Adobe configuration.
func NewProvider(cfg *config.AdobeConfig) *Provider {
	oauth2Cfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
			// IMS authenticates client credentials via Basic auth
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		// IMS takes its scope list comma-separated in a single parameter
		Scopes: []string{cfg.Scopes},
	}

	return &Provider{
		oauth2Config: oauth2Cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &apiKeyTransport{key: cfg.ClientID},
		},
	}
}

// AuthCodeURL returns the IMS authorization endpoint URL carrying the given
// anti-CSRF state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.oauth2Config.Exchange(p.withClient(ctx), code)
}

// Refresh trades a refresh token for a new token. When IMS rotates the
// refresh token the returned token carries the new one; otherwise the input
// refresh token is carried forward.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return p.oauth2Config.TokenSource(p.withClient(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
	}).Token()
}

// withClient makes the oauth2 package issue token requests through our
// client, picking up the call timeout and the x-api-key header.
func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// apiKeyTransport adds the x-api-key header IMS requires on token requests.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("x-api-key", t.key)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
