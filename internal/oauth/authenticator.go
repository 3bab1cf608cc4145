package oauth

import (
	"context"
	"fmt"

	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

// Authenticator runs the host side of a login: exchange the credential,
// then resolve who it belongs to.
type Authenticator struct {
	exchanger *Exchanger
	resolver  *Resolver
}

// NewAuthenticator builds the Exchanger and Resolver for cfg.
func NewAuthenticator(cfg ProviderConfig, opts ...Option) (*Authenticator, error) {
	exchanger, err := NewExchanger(cfg, opts...)
	if err != nil {
		return nil, err
	}
	resolver, err := NewResolver(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Authenticator{exchanger: exchanger, resolver: resolver}, nil
}

// Authenticate returns the user and the refresh token the client should
// keep for its next connection.
func (a *Authenticator) Authenticate(ctx context.Context, auth messages.Auth) (messages.User, messages.RefreshToken, error) {
	access, refresh, err := a.exchanger.Exchange(ctx, auth)
	if err != nil {
		logging.Warn("TokenExchange", "Exchange with %s credential failed: %v", auth.Kind, err)
		return messages.User{}, "", fmt.Errorf("exchanging %s credential: %w", auth.Kind, err)
	}

	user, err := a.resolver.Resolve(ctx, access)
	if err != nil {
		logging.Warn("Identity", "Resolving user failed: %v", err)
		return messages.User{}, "", fmt.Errorf("resolving user: %w", err)
	}

	logging.Info("Identity", "Authenticated %s (%s)", user.Username, user.ID)
	return user, refresh, nil
}
