// Package common contains constants shared by the client layers: header
// names and the durable session keys.
package common

const (
	// AuthorizationHeaderName carries "<scheme> <access token>" on protected calls.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-call correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// DefaultAuthScheme is the scheme the procurement backend expects.
	DefaultAuthScheme = "JWT"
)

// Durable session keys. They are written together on login and cleared
// together on logout or session expiry.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// SessionKeys lists every persisted session key.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}
