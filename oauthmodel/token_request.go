package oauthmodel

import (
	"fmt"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

// Token request parameter names (RFC 6749 §4).
const (
	ParamGrantType    = "grant_type"
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamCode         = "code"
	ParamRedirectURI  = "redirect_uri"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamRefreshToken = "refresh_token"
	ParamResponseType = "response_type"
	ParamScope        = "scope"
	ParamState        = "state"
)

// GrantRequest is a token request discriminated by grant_type. Exactly one
// of PasswordRequest, AuthorizationCodeRequest, ClientCredentialsRequest or
// RefreshTokenRequest implements it.
type GrantRequest interface {
	GrantType() oauth2.GrantType
	isGrantRequest()
}

// PasswordRequest is the resource owner password credentials grant (RFC 6749 §4.3).
type PasswordRequest struct {
	Username oauth2.Username
	Password oauth2.Password
}

// AuthorizationCodeRequest exchanges a code issued by the authorization endpoint (RFC 6749 §4.1.3).
type AuthorizationCodeRequest struct {
	Code         oauth2.AuthorizationCode
	RedirectURI  oauth2.RedirectURI
	ClientID     oauth2.ClientID
	ClientSecret oauth2.ClientSecret
}

// ClientCredentialsRequest is the client credentials grant (RFC 6749 §4.4).
type ClientCredentialsRequest struct {
	ClientID     oauth2.ClientID
	ClientSecret oauth2.ClientSecret
}

// RefreshTokenRequest refreshes a token pair (RFC 6749 §6). Client
// credentials are optional.
type RefreshTokenRequest struct {
	ClientID     *oauth2.ClientID
	ClientSecret *oauth2.ClientSecret
	RefreshToken oauth2.RefreshToken
}

func (PasswordRequest) GrantType() oauth2.GrantType          { return oauth2.PasswordGrant }
func (AuthorizationCodeRequest) GrantType() oauth2.GrantType { return oauth2.AuthorizationCodeGrant }
func (ClientCredentialsRequest) GrantType() oauth2.GrantType { return oauth2.ClientCredentialsGrant }
func (RefreshTokenRequest) GrantType() oauth2.GrantType      { return oauth2.RefreshTokenGrant }

func (PasswordRequest) isGrantRequest()          {}
func (AuthorizationCodeRequest) isGrantRequest() {}
func (ClientCredentialsRequest) isGrantRequest() {}
func (RefreshTokenRequest) isGrantRequest()      {}

// ParseGrantRequest is the single schema every encoding is validated
// against. Unknown parameters are ignored.
func ParseGrantRequest(p Params) (GrantRequest, error) {
	raw, ok := p.Get(ParamGrantType)
	if !ok {
		return nil, ErrMissingGrantType
	}
	grantType, ok := oauth2.ParseGrantType(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrantType, raw)
	}

	switch grantType {
	case oauth2.PasswordGrant:
		return parsePasswordRequest(p)
	case oauth2.AuthorizationCodeGrant:
		return parseAuthorizationCodeRequest(p)
	case oauth2.ClientCredentialsGrant:
		return parseClientCredentialsRequest(p)
	case oauth2.RefreshTokenGrant:
		return parseRefreshTokenRequest(p)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGrantType, raw)
}

func parsePasswordRequest(p Params) (GrantRequest, error) {
	username, err := p.require(ParamUsername)
	if err != nil {
		return nil, err
	}
	password, err := p.require(ParamPassword)
	if err != nil {
		return nil, err
	}
	return PasswordRequest{
		Username: oauth2.Username(username),
		Password: oauth2.Password(password),
	}, nil
}

func parseAuthorizationCodeRequest(p Params) (GrantRequest, error) {
	code, err := p.require(ParamCode)
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
	clientID, clientSecret, err := requireClientCredentials(p)
	if err != nil {
		return nil, err
	}
	return AuthorizationCodeRequest{
		Code:         oauth2.AuthorizationCode(code),
		RedirectURI:  redirectURI,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

func parseClientCredentialsRequest(p Params) (GrantRequest, error) {
	clientID, clientSecret, err := requireClientCredentials(p)
	if err != nil {
		return nil, err
	}
	return ClientCredentialsRequest{ClientID: clientID, ClientSecret: clientSecret}, nil
}

func parseRefreshTokenRequest(p Params) (GrantRequest, error) {
	refreshToken, err := p.require(ParamRefreshToken)
	if err != nil {
		return nil, err
	}
	req := RefreshTokenRequest{RefreshToken: oauth2.RefreshToken(refreshToken)}
	if v := p.optional(ParamClientID); v != nil {
		id := oauth2.ClientID(*v)
		req.ClientID = &id
	}
	if v := p.optional(ParamClientSecret); v != nil {
		secret := oauth2.ClientSecret(*v)
		req.ClientSecret = &secret
	}
	return req, nil
}

func requireClientCredentials(p Params) (oauth2.ClientID, oauth2.ClientSecret, error) {
	clientID, err := p.require(ParamClientID)
	if err != nil {
		return "", "", err
	}
	clientSecret, err := p.require(ParamClientSecret)
	if err != nil {
		return "", "", err
	}
	return oauth2.ClientID(clientID), oauth2.ClientSecret(clientSecret), nil
}
