package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/oauthmodel"
	"github.com/jrsteele09/go-oauth-facade/usercontext"
	"github.com/rs/zerolog"
)

// HandleAuthorization issues an authorization code to the signed in user
// and redirects back to the client with code and state (RFC 6749 §4.1.2).
// Only response_type=code is served. The caller must already carry an
// authenticated user context; there is no interactive login here.
func (s *Service) HandleAuthorization(ctx context.Context, req *oauthmodel.AuthorizationRequest) (http.Handler, error) {
	if req.ResponseType != oauth2.CodeResponseType {
		return nil, oauth2.ErrInvalidRequest
	}
	user := usercontext.FromContext(ctx)
	if !user.IsAuthenticated() {
		return nil, oauth2.ErrInvalidRequest
	}

	sysCtx := system(ctx)
	client, err := s.clients.Get(sysCtx, req.ClientID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidClient
	}
	if err != nil {
		return nil, oauthError(ctx, "authorize client lookup", err)
	}
	if !client.AllowsGrant(oauth2.AuthorizationCodeGrant) {
		return nil, oauth2.ErrUnauthorizedClient
	}
	if !client.HasRedirectURI(req.RedirectURI) {
		return nil, oauth2.ErrInvalidRequest
	}
	scopes := req.RequestedScope()
	if err := client.ValidateScopes(scopes); err != nil {
		return nil, oauth2.ErrInvalidScope
	}

	code, err := oauth2.RandomString(s.codeLength)
	if err != nil {
		return nil, oauthError(ctx, "authorize generate code", err)
	}
	if err := s.repos.Codes.Save(sysCtx, &AuthCode{
		Code:        code,
		ClientID:    client.ID,
		RedirectURI: req.RedirectURI.String(),
		UserID:      user.UserID,
		Scopes:      scopes,
		CreatedAt:   s.nowTime(),
	}); err != nil {
		return nil, oauthError(ctx, "authorize save code", err)
	}

	target, err := req.RedirectURI.URL()
	if err != nil {
		return nil, oauth2.ErrInvalidRequest
	}
	q := target.Query()
	q.Set(oauthmodel.ParamCode, code)
	if req.State != nil {
		q.Set(oauthmodel.ParamState, *req.State)
	}
	target.RawQuery = q.Encode()

	zerolog.Ctx(ctx).Debug().Stringer("client_id", client.ID).Msg("issued authorization code")
	return http.RedirectHandler(target.String(), http.StatusFound), nil
}
