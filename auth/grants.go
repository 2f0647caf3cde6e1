package auth

import (
	"context"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/token"
)

// HandlePassword verifies the resource owner and issues a token pair owned by them.
func (s *Service) HandlePassword(ctx context.Context, username oauth2.Username, password oauth2.Password) (*oauth2.TokenResponse, error) {
	ctx = system(ctx)
	user, err := s.repos.Users.Verify(ctx, username, password)
	if err != nil {
		return nil, oauthError(ctx, "password verify", err)
	}

	resp, err := s.tokens.Issue(ctx, token.Grant{UserID: user.ID})
	if err != nil {
		return nil, oauthError(ctx, "password issue", err)
	}
	return resp, nil
}

// HandleClientCredentials issues a token pair to the client itself, scoped
// to everything it was registered with.
func (s *Service) HandleClientCredentials(ctx context.Context, clientID oauth2.ClientID, clientSecret oauth2.ClientSecret) (*oauth2.TokenResponse, error) {
	ctx = system(ctx)
	client, err := s.clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return nil, oauthError(ctx, "client credentials authenticate", err)
	}
	if !client.AllowsGrant(oauth2.ClientCredentialsGrant) {
		return nil, oauth2.ErrUnauthorizedClient
	}

	resp, err := s.tokens.Issue(ctx, token.Grant{ClientID: client.ID, Scopes: client.Scopes})
	if err != nil {
		return nil, oauthError(ctx, "client credentials issue", err)
	}
	return resp, nil
}

// HandleRefreshToken rotates refreshToken. When clientID is given it must
// match the client the token was issued to. Tokens issued to a
// confidential client also require that client's secret.
func (s *Service) HandleRefreshToken(
	ctx context.Context,
	clientID *oauth2.ClientID,
	clientSecret *oauth2.ClientSecret,
	refreshToken oauth2.RefreshToken,
) (*oauth2.TokenResponse, error) {
	ctx = system(ctx)
	if clientSecret != nil && clientID == nil {
		return nil, oauth2.ErrInvalidRequest
	}

	stored, err := s.tokens.Validate(ctx, refreshToken.Secret(), token.KindRefresh)
	if err != nil {
		return nil, oauthError(ctx, "refresh validate", err)
	}

	if clientID != nil && *clientID != stored.ClientID {
		return nil, oauth2.ErrInvalidGrant
	}
	if stored.ClientID != "" {
		client, err := s.clients.Get(ctx, stored.ClientID)
		if errors.Is(err, errors.ErrNotFound) {
			return nil, oauth2.ErrInvalidGrant
		}
		if err != nil {
			return nil, oauthError(ctx, "refresh client lookup", err)
		}
		if !client.IsPublic() && (clientSecret == nil || !client.CheckSecret(*clientSecret)) {
			return nil, oauth2.ErrInvalidClient
		}
	}

	resp, err := s.tokens.Rotate(ctx, stored)
	if err != nil {
		return nil, oauthError(ctx, "refresh rotate", err)
	}
	return resp, nil
}

// HandleAuthorizationCode exchanges a code issued by HandleAuthorization.
// The client, the code's binding to that client and the redirect URI are
// all checked before the code is consumed.
func (s *Service) HandleAuthorizationCode(
	ctx context.Context,
	code oauth2.AuthorizationCode,
	redirectURI oauth2.RedirectURI,
	clientID oauth2.ClientID,
	clientSecret oauth2.ClientSecret,
) (*oauth2.TokenResponse, error) {
	ctx = system(ctx)
	client, err := s.clients.Get(ctx, clientID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidClient
	}
	if err != nil {
		return nil, oauthError(ctx, "code client lookup", err)
	}
	if !client.IsPublic() && !client.CheckSecret(clientSecret) {
		return nil, oauth2.ErrInvalidClient
	}
	if !client.AllowsGrant(oauth2.AuthorizationCodeGrant) {
		return nil, oauth2.ErrUnauthorizedClient
	}

	issued, err := s.repos.Codes.Get(ctx, code.Secret())
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidGrant
	}
	if err != nil {
		return nil, oauthError(ctx, "code lookup", err)
	}
	if s.nowTime().Sub(issued.CreatedAt) > s.codeTimeout {
		return nil, oauth2.ErrInvalidGrant
	}
	if issued.ClientID != clientID || issued.RedirectURI != redirectURI.String() {
		return nil, oauth2.ErrInvalidGrant
	}

	// A concurrent exchange of the same code loses here.
	issued, err = s.repos.Codes.Take(ctx, code.Secret())
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidGrant
	}
	if err != nil {
		return nil, oauthError(ctx, "code take", err)
	}

	resp, err := s.tokens.Issue(ctx, token.Grant{UserID: issued.UserID, ClientID: clientID, Scopes: issued.Scopes})
	if err != nil {
		return nil, oauthError(ctx, "code issue", err)
	}
	return resp, nil
}
