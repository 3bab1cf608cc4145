// Package oauth implements the host side of the tonearm login flow.
//
// A client captures an authorization code in the user's browser and sends
// it to the host. The host then:
//
//  1. Exchanges the code (or a refresh token from an earlier session) for an
//     access/refresh token pair at the provider's token endpoint (Exchanger).
//  2. Resolves the user behind the access token from the provider's profile
//     endpoint (Resolver).
//
// Authenticator chains both steps for the host session.
//
// # Configuration
//
// Provider endpoints and client credentials are supplied per deployment via
// ProviderConfig; nothing is hardcoded in the exchange path. DiscordDefaults
// fills in the endpoints of the default provider.
//
// # Errors
//
// Nothing is retried here. Provider rejections surface as *RequestError
// (wrapping *oauth2.RetrieveError when the provider answered), non-200
// profile responses as *ResponseError and undecodable profiles as
// *UserParseError. A token response without a refresh token fails with
// ErrNoRefreshTokenInResponse even when the access token is valid.
//
// # Security
//
// Access tokens are held as AccessToken, which prints as [REDACTED];
// messages.RefreshToken does the same.
package oauth
