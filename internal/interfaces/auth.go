package interfaces

import "context"

// TokenProvider supplies valid bearer credentials for API calls. A failure
// to produce a token (no refresh token, rejected refresh exchange) is fatal
// for the caller and must not be retried.
type TokenProvider interface {
	// ValidToken returns a usable access token, refreshing first if the
	// stored token is expired or expiring within the safety margin.
	ValidToken(ctx context.Context) (string, error)

	// AuthHeaders composes ValidToken into bearer-auth request headers.
	AuthHeaders(ctx context.Context) (map[string]string, error)

	// AdAccountID returns the configured ad account id, or "" if unset.
	AdAccountID() string
}
