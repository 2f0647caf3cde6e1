package grant

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/oauthmodel"
)

// PasswordHandler issues tokens for the resource owner password credentials grant.
type PasswordHandler interface {
	HandlePassword(ctx context.Context, username oauth2.Username, password oauth2.Password) (*oauth2.TokenResponse, error)
}

// AuthorizationCodeHandler exchanges an authorization code for tokens.
type AuthorizationCodeHandler interface {
	HandleAuthorizationCode(
		ctx context.Context,
		code oauth2.AuthorizationCode,
		redirectURI oauth2.RedirectURI,
		clientID oauth2.ClientID,
		clientSecret oauth2.ClientSecret,
	) (*oauth2.TokenResponse, error)
}

// ClientCredentialsHandler issues tokens to an authenticated client.
type ClientCredentialsHandler interface {
	HandleClientCredentials(ctx context.Context, clientID oauth2.ClientID, clientSecret oauth2.ClientSecret) (*oauth2.TokenResponse, error)
}

// RefreshTokenHandler exchanges a refresh token for a new pair. clientID and
// clientSecret are nil when the request did not carry them.
type RefreshTokenHandler interface {
	HandleRefreshToken(
		ctx context.Context,
		clientID *oauth2.ClientID,
		clientSecret *oauth2.ClientSecret,
		refreshToken oauth2.RefreshToken,
	) (*oauth2.TokenResponse, error)
}

// AuthorizationHandler serves the authorization endpoint. The returned
// handler writes the response, typically a redirect carrying a code.
type AuthorizationHandler interface {
	HandleAuthorization(ctx context.Context, req *oauthmodel.AuthorizationRequest) (http.Handler, error)
}

type PasswordHandlerFunc func(ctx context.Context, username oauth2.Username, password oauth2.Password) (*oauth2.TokenResponse, error)

func (f PasswordHandlerFunc) HandlePassword(ctx context.Context, username oauth2.Username, password oauth2.Password) (*oauth2.TokenResponse, error) {
	return f(ctx, username, password)
}

type AuthorizationCodeHandlerFunc func(
	ctx context.Context,
	code oauth2.AuthorizationCode,
	redirectURI oauth2.RedirectURI,
	clientID oauth2.ClientID,
	clientSecret oauth2.ClientSecret,
) (*oauth2.TokenResponse, error)

func (f AuthorizationCodeHandlerFunc) HandleAuthorizationCode(
	ctx context.Context,
	code oauth2.AuthorizationCode,
	redirectURI oauth2.RedirectURI,
	clientID oauth2.ClientID,
	clientSecret oauth2.ClientSecret,
) (*oauth2.TokenResponse, error) {
	return f(ctx, code, redirectURI, clientID, clientSecret)
}

type ClientCredentialsHandlerFunc func(ctx context.Context, clientID oauth2.ClientID, clientSecret oauth2.ClientSecret) (*oauth2.TokenResponse, error)

func (f ClientCredentialsHandlerFunc) HandleClientCredentials(ctx context.Context, clientID oauth2.ClientID, clientSecret oauth2.ClientSecret) (*oauth2.TokenResponse, error) {
	return f(ctx, clientID, clientSecret)
}

type RefreshTokenHandlerFunc func(
	ctx context.Context,
	clientID *oauth2.ClientID,
	clientSecret *oauth2.ClientSecret,
	refreshToken oauth2.RefreshToken,
) (*oauth2.TokenResponse, error)

func (f RefreshTokenHandlerFunc) HandleRefreshToken(
	ctx context.Context,
	clientID *oauth2.ClientID,
	clientSecret *oauth2.ClientSecret,
	refreshToken oauth2.RefreshToken,
) (*oauth2.TokenResponse, error) {
	return f(ctx, clientID, clientSecret, refreshToken)
}

type AuthorizationHandlerFunc func(ctx context.Context, req *oauthmodel.AuthorizationRequest) (http.Handler, error)

func (f AuthorizationHandlerFunc) HandleAuthorization(ctx context.Context, req *oauthmodel.AuthorizationRequest) (http.Handler, error) {
	return f(ctx, req)
}

// NotImplemented fills every slot nothing was registered for. Each method
// returns oauth2.ErrUnsupportedGrantType.
type NotImplemented struct{}

var (
	_ PasswordHandler          = NotImplemented{}
	_ AuthorizationCodeHandler = NotImplemented{}
	_ ClientCredentialsHandler = NotImplemented{}
	_ RefreshTokenHandler      = NotImplemented{}
	_ AuthorizationHandler     = NotImplemented{}
)

func (NotImplemented) HandlePassword(context.Context, oauth2.Username, oauth2.Password) (*oauth2.TokenResponse, error) {
	return nil, oauth2.ErrUnsupportedGrantType
}

func (NotImplemented) HandleAuthorizationCode(context.Context, oauth2.AuthorizationCode, oauth2.RedirectURI, oauth2.ClientID, oauth2.ClientSecret) (*oauth2.TokenResponse, error) {
	return nil, oauth2.ErrUnsupportedGrantType
}

func (NotImplemented) HandleClientCredentials(context.Context, oauth2.ClientID, oauth2.ClientSecret) (*oauth2.TokenResponse, error) {
	return nil, oauth2.ErrUnsupportedGrantType
}

func (NotImplemented) HandleRefreshToken(context.Context, *oauth2.ClientID, *oauth2.ClientSecret, oauth2.RefreshToken) (*oauth2.TokenResponse, error) {
	return nil, oauth2.ErrUnsupportedGrantType
}

func (NotImplemented) HandleAuthorization(context.Context, *oauthmodel.AuthorizationRequest) (http.Handler, error) {
	return nil, oauth2.ErrUnsupportedGrantType
}
