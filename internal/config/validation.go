package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"tonearm/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{Field: field, Value: val, Message: message})
}

// errOrNil keeps a nil ValidationErrors from becoming a non-nil error.
func (ve ValidationErrors) errOrNil() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func requireField(errs *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "is required")
	}
}

func validateURL(errs *ValidationErrors, field, value string, schemes ...string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil {
		errs.Add(field, fmt.Sprintf("is not a valid URL: %v", err), value)
		return
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return
		}
	}
	errs.Add(field, fmt.Sprintf("must be an absolute %s URL", strings.Join(schemes, " or ")), value)
}

func validateHostPort(errs *ValidationErrors, field, value string) {
	if _, _, err := net.SplitHostPort(value); err != nil {
		errs.Add(field, fmt.Sprintf("must be host:port: %v", err), value)
	}
}

func validateLogLevel(errs *ValidationErrors, level string) {
	if _, err := logging.ParseLevel(level); err != nil {
		errs.Add("log_level", err.Error(), level)
	}
}

// ValidateRemote checks what watch and control need to reach the host.
func (c Config) ValidateRemote() error {
	var errs ValidationErrors
	c.validateRemote(&errs)
	return errs.errOrNil()
}

func (c Config) validateRemote(errs *ValidationErrors) {
	validateLogLevel(errs, c.LogLevel)
	requireField(errs, "client.host_url", c.Client.HostURL)
	validateURL(errs, "client.host_url", c.Client.HostURL, "ws", "wss")
}

// ValidateClient checks what the login command needs: the remote settings
// plus the browser capture.
func (c Config) ValidateClient() error {
	var errs ValidationErrors
	c.validateRemote(&errs)
	requireField(&errs, "client.client_id", c.Client.ClientID)
	validateHostPort(&errs, "client.redirect_addr", c.Client.RedirectAddr)
	validateURL(&errs, "client.auth_url", c.Client.AuthURL, "https", "http")
	if c.Client.CaptureTimeout < 0 {
		errs.Add("client.capture_timeout", "must not be negative", c.Client.CaptureTimeout)
	}
	return errs.errOrNil()
}

// ValidateHost checks what the host command needs.
func (c Config) ValidateHost() error {
	var errs ValidationErrors
	validateLogLevel(&errs, c.LogLevel)
	requireField(&errs, "provider.client_id", c.Provider.ClientID)
	requireField(&errs, "provider.client_secret", c.Provider.ClientSecret)
	requireField(&errs, "provider.redirect_url", c.Provider.RedirectURL)
	validateURL(&errs, "provider.redirect_url", c.Provider.RedirectURL, "http", "https")
	validateURL(&errs, "provider.auth_url", c.Provider.AuthURL, "https", "http")
	validateURL(&errs, "provider.token_url", c.Provider.TokenURL, "https", "http")
	validateURL(&errs, "provider.profile_url", c.Provider.ProfileURL, "https", "http")
	validateHostPort(&errs, "host.listen", c.Host.Listen)
	if !strings.HasPrefix(c.Host.WSPath, "/") {
		errs.Add("host.ws_path", "must start with /", c.Host.WSPath)
	}
	if c.Host.TickInterval <= 0 {
		errs.Add("host.tick_interval", "must be positive", c.Host.TickInterval)
	}
	return errs.errOrNil()
}
