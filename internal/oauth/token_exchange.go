package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"tonearm/pkg/messages"
)

const (
	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// Exchanger trades a client credential for an access/refresh token pair at
// the provider's token endpoint.
//
// Exchanger holds no per-request state and is safe for concurrent use.
type Exchanger struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     *slog.Logger

	// Refresh tokens rotate on use, so concurrent refreshes of the same
	// token share one grant.
	refreshGroup singleflight.Group
}

// NewExchanger validates cfg and returns an Exchanger for it.
func NewExchanger(cfg ProviderConfig, opts ...Option) (*Exchanger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Exchanger{
		config:     cfg.oauth2Config(),
		httpClient: o.httpClient,
		logger:     o.logger,
	}, nil
}

// Exchange redeems an authorization code or a refresh token. Both tokens of
// the pair must be present in the provider's response; a response without a
// refresh token yields ErrNoRefreshTokenInResponse.
func (e *Exchanger) Exchange(ctx context.Context, auth messages.Auth) (AccessToken, messages.RefreshToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)

	var (
		tok   *oauth2.Token
		err   error
		grant string
	)
	switch auth.Kind {
	case messages.AuthCode:
		grant = grantAuthorizationCode
		tok, err = e.config.Exchange(ctx, string(auth.Code))
	case messages.AuthToken:
		grant = grantRefreshToken
		tok, err = e.refresh(ctx, auth.RefreshToken)
	default:
		return AccessToken{}, "", fmt.Errorf("%w: %s", ErrUnknownCredential, auth.Kind)
	}
	if err != nil {
		e.logger.Debug("Token request failed", "grant", grant, "error", err)
		return AccessToken{}, "", &RequestError{Grant: grant, Err: err}
	}

	// x/oauth2 carries the old refresh token over when the response has
	// none, so look at the raw response instead of tok.RefreshToken.
	refresh, _ := tok.Extra("refresh_token").(string)
	if refresh == "" {
		return AccessToken{}, "", ErrNoRefreshTokenInResponse
	}

	e.logger.Debug("Token request succeeded", "grant", grant, "expires", tok.Expiry)
	return NewAccessToken(tok.AccessToken), messages.RefreshToken(refresh), nil
}

// refresh runs the refresh grant once for concurrent callers holding the
// same token. The shared request does not inherit any caller's
// cancellation; each caller stops waiting when its own ctx ends.
func (e *Exchanger) refresh(ctx context.Context, token messages.RefreshToken) (*oauth2.Token, error) {
	sum := sha256.Sum256([]byte(token.Secret()))
	shared := context.WithoutCancel(ctx)
	ch := e.refreshGroup.DoChan(hex.EncodeToString(sum[:]), func() (interface{}, error) {
		return e.config.TokenSource(shared, &oauth2.Token{RefreshToken: token.Secret()}).Token()
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.logger.Debug("Shared concurrent refresh grant")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
