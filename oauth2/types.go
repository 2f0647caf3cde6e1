package oauth2

import "strings"

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// PasswordGrant exchanges resource owner credentials for tokens.
	// Token request includes: username, password
	PasswordGrant GrantType = "password"

	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri, client_id, client_secret
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Token request includes: client_id, client_secret
	// Example: Microservice calling another microservice
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for a new token pair.
	// Token request includes: refresh_token, optionally client_id and client_secret
	RefreshTokenGrant GrantType = "refresh_token"
)

// GrantTypes lists every grant type the token endpoint understands.
var GrantTypes = []GrantType{PasswordGrant, AuthorizationCodeGrant, ClientCredentialsGrant, RefreshTokenGrant}

// ParseGrantType matches s case-sensitively against the known grant types.
func ParseGrantType(s string) (GrantType, bool) {
	for _, gt := range GrantTypes {
		if string(gt) == s {
			return gt, true
		}
	}
	return "", false
}

func (g GrantType) String() string {
	return string(g)
}

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Example: /oauth/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"

	// TokenResponseType indicates the implicit flow.
	TokenResponseType ResponseType = "token"

	// CodeIDTokenResponseType is the OpenID Connect hybrid flow returning a code and an ID token.
	CodeIDTokenResponseType ResponseType = "code id_token"

	// CodeIDTokenTokenResponseType is the hybrid flow returning all three artefacts.
	CodeIDTokenTokenResponseType ResponseType = "code id_token token"
)

// ParseResponseType accepts the registered response types. Multi-valued
// types are matched on their space-separated form.
func ParseResponseType(s string) (ResponseType, bool) {
	normalised := ResponseType(strings.Join(strings.Fields(s), " "))
	switch normalised {
	case CodeResponseType, TokenResponseType, CodeIDTokenResponseType, CodeIDTokenTokenResponseType:
		return normalised, true
	}
	return "", false
}

// TokenType indicates how the access token is presented to a resource server.
type TokenType string

const (
	// BearerTokenType is the default: "Authorization: Bearer <token>".
	BearerTokenType TokenType = "bearer"
	BasicTokenType  TokenType = "basic"
)

// ParseTokenType is case-insensitive, an empty string yields bearer.
func ParseTokenType(s string) (TokenType, bool) {
	switch TokenType(strings.ToLower(s)) {
	case "", BearerTokenType:
		return BearerTokenType, true
	case BasicTokenType:
		return BasicTokenType, true
	}
	return "", false
}

// MarshalText always emits the lowercase wire form.
func (t TokenType) MarshalText() ([]byte, error) {
	if t == "" {
		return []byte(BearerTokenType), nil
	}
	return []byte(strings.ToLower(string(t))), nil
}

func (t *TokenType) UnmarshalText(b []byte) error {
	parsed, ok := ParseTokenType(string(b))
	if !ok {
		return ErrUnknownTokenType
	}
	*t = parsed
	return nil
}
