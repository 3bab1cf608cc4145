package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClient() Config {
	cfg := DefaultConfig()
	cfg.Client.ClientID = "123"
	return cfg
}

func validHost() Config {
	cfg := DefaultConfig()
	cfg.Provider.ClientID = "123"
	cfg.Provider.ClientSecret = "secret"
	return cfg
}

func fields(t *testing.T, err error) []string {
	t.Helper()
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs), "want ValidationErrors, got %T", err)
	var out []string
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateClient(t *testing.T) {
	require.NoError(t, validClient().ValidateClient())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing client id", func(c *Config) { c.Client.ClientID = "" }, "client.client_id"},
		{"redirect without port", func(c *Config) { c.Client.RedirectAddr = "localhost" }, "client.redirect_addr"},
		{"http host url", func(c *Config) { c.Client.HostURL = "http://example.com/ws" }, "client.host_url"},
		{"negative timeout", func(c *Config) { c.Client.CaptureTimeout = -1 }, "client.capture_timeout"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validClient()
			tt.mutate(&cfg)
			assert.Contains(t, fields(t, cfg.ValidateClient()), tt.field)
		})
	}
}

func TestValidateRemote(t *testing.T) {
	// watch and control only need the host; the login settings may be unset.
	require.NoError(t, DefaultConfig().ValidateRemote())

	cfg := DefaultConfig()
	cfg.Client.HostURL = ""
	assert.Equal(t, []string{"client.host_url"}, fields(t, cfg.ValidateRemote()))
}

func TestValidateHost(t *testing.T) {
	require.NoError(t, validHost().ValidateHost())

	cfg := DefaultConfig()
	cfg.Host.WSPath = "ws"
	cfg.Provider.TokenURL = "/token"
	got := fields(t, cfg.ValidateHost())
	assert.ElementsMatch(t, []string{
		"provider.client_id",
		"provider.client_secret",
		"provider.token_url",
		"host.ws_path",
	}, got)
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())
	assert.NoError(t, errs.errOrNil())

	errs.Add("a", "is required")
	assert.Equal(t, "field 'a': is required", errs.Error())

	errs.Add("b", "is wrong", 3)
	assert.Equal(t, "validation failed: field 'a': is required; field 'b': is wrong", errs.Error())
	assert.Equal(t, 3, errs[1].Value)
}
