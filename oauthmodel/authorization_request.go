package oauthmodel

import (
	"fmt"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

// AuthorizationRequest holds parameters for the OAuth2 authorization request (RFC 6749 §4.1.1).
// These are received as query parameters at the /oauth/authorize endpoint.
type AuthorizationRequest struct {
	// ResponseType specifies what the authorization endpoint should return.
	// Example: "code"
	ResponseType oauth2.ResponseType

	// ClientID identifies the application requesting authorization.
	ClientID oauth2.ClientID

	// RedirectURI is where the authorization response will be sent.
	// Must exactly match a URI registered for the client.
	RedirectURI oauth2.RedirectURI

	// Scope is nil when the parameter was absent.
	Scope *oauth2.Scopes

	// State is echoed back unchanged in the redirect. Nil when absent.
	State *string
}

// ParseAuthorizationRequest validates the fixed authorization parameters.
func ParseAuthorizationRequest(p Params) (*AuthorizationRequest, error) {
	rawResponseType, err := p.require(ParamResponseType)
	if err != nil {
		return nil, err
	}
	responseType, ok := oauth2.ParseResponseType(rawResponseType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResponseType, rawResponseType)
	}
	clientID, err := p.require(ParamClientID)
	if err != nil {
		return nil, err
	}
	rawRedirect, err := p.require(ParamRedirectURI)
	if err != nil {
		return nil, err
	}
	redirectURI, err := oauth2.ParseRedirectURI(rawRedirect)
	if err != nil {
		return nil, err
	}

	req := &AuthorizationRequest{
		ResponseType: responseType,
		ClientID:     oauth2.ClientID(clientID),
		RedirectURI:  redirectURI,
		State:        p.optional(ParamState),
	}
	if v := p.optional(ParamScope); v != nil {
		scopes := oauth2.ParseScopes(*v)
		req.Scope = &scopes
	}
	return req, nil
}

// RequestedScope returns the requested scopes, empty when none were sent.
func (r *AuthorizationRequest) RequestedScope() oauth2.Scopes {
	if r.Scope == nil {
		return oauth2.Scopes{}
	}
	return *r.Scope
}
