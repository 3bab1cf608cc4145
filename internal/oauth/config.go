package oauth

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Discord endpoints used when a deployment does not override them.
const (
	DiscordAuthURL    = "https://discord.com/api/oauth2/authorize"
	DiscordTokenURL   = "https://discord.com/api/oauth2/token"
	DiscordProfileURL = "https://discord.com/api/users/@me"
)

// DefaultScope is the only scope the login flow needs.
const DefaultScope = "identify"

// ProviderConfig describes the identity provider for one deployment.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	// RedirectURL must match the redirect_uri the client used when it
	// captured the code, e.g. "http://localhost:1887".
	RedirectURL string
	Scopes      []string
}

// DiscordDefaults fills empty endpoint and scope fields with Discord's.
func (c ProviderConfig) DiscordDefaults() ProviderConfig {
	if c.AuthURL == "" {
		c.AuthURL = DiscordAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DiscordTokenURL
	}
	if c.ProfileURL == "" {
		c.ProfileURL = DiscordProfileURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{DefaultScope}
	}
	return c
}

// Validate checks that every field needed for the exchange is present and
// that the endpoints are absolute URLs.
func (c ProviderConfig) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.TokenURL == "" {
		missing = append(missing, "token_url")
	}
	if c.ProfileURL == "" {
		missing = append(missing, "profile_url")
	}
	if c.RedirectURL == "" {
		missing = append(missing, "redirect_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	for name, raw := range map[string]string{
		"auth_url":     c.AuthURL,
		"token_url":    c.TokenURL,
		"profile_url":  c.ProfileURL,
		"redirect_url": c.RedirectURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute URL", ErrInvalidConfig, name, raw)
		}
	}
	return nil
}

func (c ProviderConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: c.RedirectURL,
		Scopes:      c.Scopes,
	}
}
