package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthRaw sets the Authorization header to a verbatim value. Used to
	// pass the consensus client's own token through to the node.
	AuthRaw
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is the bearer token (AuthBearer) or the full header value (AuthRaw).
	Token string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// RawAuth creates an auth config that forwards value as the
// Authorization header without modification.
func RawAuth(value string) *AuthConfig {
	return &AuthConfig{Type: AuthRaw, Token: value}
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthRaw:
		if a.Token != "" {
			req.Header.Set("Authorization", a.Token)
		}
	}
}
