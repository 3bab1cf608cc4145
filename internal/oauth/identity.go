package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"tonearm/pkg/messages"
)

const grantUserInfo = "userinfo"

// maxProfileSize bounds the profile body we are willing to decode.
const maxProfileSize = 1 << 20

// Resolver fetches the authenticated user's profile.
type Resolver struct {
	profileURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewResolver returns a Resolver for the profile endpoint in cfg.
func NewResolver(cfg ProviderConfig, opts ...Option) (*Resolver, error) {
	if cfg.ProfileURL == "" {
		return nil, fmt.Errorf("%w: missing profile_url", ErrInvalidConfig)
	}
	o := buildOptions(opts)
	return &Resolver{
		profileURL: cfg.ProfileURL,
		httpClient: o.httpClient,
		logger:     o.logger,
	}, nil
}

// profile is the subset of the provider's user object we read. Discord
// sends ids as strings.
type profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Resolve exchanges an access token for the user it belongs to.
func (r *Resolver) Resolve(ctx context.Context, token AccessToken) (messages.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.profileURL, nil)
	if err != nil {
		return messages.User{}, &RequestError{Grant: grantUserInfo, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token.Value())
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return messages.User{}, &RequestError{Grant: grantUserInfo, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("Profile request rejected", "status", resp.StatusCode)
		return messages.User{}, &ResponseError{StatusCode: resp.StatusCode}
	}

	var p profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileSize)).Decode(&p); err != nil {
		return messages.User{}, &UserParseError{Err: err}
	}
	if p.ID == "" {
		return messages.User{}, &UserParseError{Err: errors.New("profile has no id")}
	}
	return messages.User{Username: p.Username, ID: p.ID, Avatar: p.Avatar}, nil
}
