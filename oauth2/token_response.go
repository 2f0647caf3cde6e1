package oauth2

import "fmt"

const (
	// DefaultTokenLength is the length of generated access and refresh tokens.
	DefaultTokenLength = 50
	// DefaultExpiresIn is the access token lifetime in seconds.
	DefaultExpiresIn = 3600
)

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749 §5.1.
// Returned from the /oauth/token endpoint for all grant types.
type TokenResponse struct {
	// AccessToken is the opaque token used to access protected resources.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken AccessToken `json:"access_token"`

	// RefreshToken is an opaque token used to obtain a new token pair.
	// Usage: Send to /oauth/token endpoint with grant_type=refresh_token
	RefreshToken RefreshToken `json:"refresh_token"`

	// TokenType indicates how to use the access token, "bearer" unless configured otherwise.
	TokenType TokenType `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in"`

	// Scope is only present when the granted scope is known.
	Scope Scopes `json:"scope,omitempty"`
}

type tokenResponseOptions struct {
	length    int
	expiresIn int
	tokenType TokenType
	scope     Scopes
}

// TokenResponseOption configures NewTokenResponse.
type TokenResponseOption func(*tokenResponseOptions)

func WithTokenLength(n int) TokenResponseOption {
	return func(o *tokenResponseOptions) { o.length = n }
}

func WithExpiresIn(seconds int) TokenResponseOption {
	return func(o *tokenResponseOptions) { o.expiresIn = seconds }
}

func WithTokenType(t TokenType) TokenResponseOption {
	return func(o *tokenResponseOptions) { o.tokenType = t }
}

func WithScope(s Scopes) TokenResponseOption {
	return func(o *tokenResponseOptions) { o.scope = s }
}

// NewTokenResponse generates a fresh random token pair. Defaults: 50
// character tokens, bearer, 3600 seconds.
func NewTokenResponse(opts ...TokenResponseOption) (*TokenResponse, error) {
	o := tokenResponseOptions{
		length:    DefaultTokenLength,
		expiresIn: DefaultExpiresIn,
		tokenType: BearerTokenType,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.expiresIn <= 0 {
		return nil, fmt.Errorf("expires_in must be positive, got %d", o.expiresIn)
	}

	access, err := RandomString(o.length)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	refresh, err := RandomString(o.length)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  AccessToken(access),
		RefreshToken: RefreshToken(refresh),
		TokenType:    o.tokenType,
		ExpiresIn:    o.expiresIn,
		Scope:        o.scope,
	}, nil
}
