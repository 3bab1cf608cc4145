package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestProviderConfig_DiscordDefaults(t *testing.T) {
	cfg := ProviderConfig{ClientID: "id", TokenURL: "https://example.com/token"}.DiscordDefaults()

	assert.Equal(t, DiscordAuthURL, cfg.AuthURL)
	assert.Equal(t, "https://example.com/token", cfg.TokenURL)
	assert.Equal(t, DiscordProfileURL, cfg.ProfileURL)
	assert.Equal(t, []string{"identify"}, cfg.Scopes)
}

func TestProviderConfig_Validate(t *testing.T) {
	valid := ProviderConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:1887",
	}.DiscordDefaults()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ProviderConfig)
		want   string
	}{
		{"missing secret", func(c *ProviderConfig) { c.ClientSecret = "" }, "client_secret"},
		{"missing redirect", func(c *ProviderConfig) { c.RedirectURL = "" }, "redirect_url"},
		{"relative token url", func(c *ProviderConfig) { c.TokenURL = "/token" }, "token_url"},
		{"redirect without scheme", func(c *ProviderConfig) { c.RedirectURL = "localhost:1887" }, "redirect_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProviderConfig_OAuth2Config(t *testing.T) {
	cfg := ProviderConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:1887"}.DiscordDefaults()
	oc := cfg.oauth2Config()
	assert.Equal(t, oauth2.AuthStyleInParams, oc.Endpoint.AuthStyle)
	assert.Equal(t, DiscordTokenURL, oc.Endpoint.TokenURL)
}
