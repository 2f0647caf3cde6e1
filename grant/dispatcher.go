// Package grant routes parsed token and authorization requests to the
// handler registered for them.
package grant

import (
	"context"
	"net/http"
	"reflect"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/oauthmodel"
	"github.com/rs/zerolog"
)

// Dispatcher holds at most one handler per grant type plus one for the
// authorization endpoint. It is immutable once built and safe for
// concurrent use. Unregistered slots reject with oauth2.ErrUnsupportedGrantType.
type Dispatcher struct {
	password          PasswordHandler
	authorizationCode AuthorizationCodeHandler
	clientCredentials ClientCredentialsHandler
	refreshToken      RefreshTokenHandler
	authorization     AuthorizationHandler
}

// Default returns a dispatcher with no handlers registered.
func Default() *Dispatcher {
	return &Dispatcher{}
}

// Builder assembles a Dispatcher. A nil handler, including a nil func
// adapter, or NotImplemented leaves the slot unregistered.
type Builder struct {
	d Dispatcher
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Password(h PasswordHandler) *Builder {
	if unregistered(h) {
		h = nil
	}
	b.d.password = h
	return b
}

func (b *Builder) AuthorizationCode(h AuthorizationCodeHandler) *Builder {
	if unregistered(h) {
		h = nil
	}
	b.d.authorizationCode = h
	return b
}

func (b *Builder) ClientCredentials(h ClientCredentialsHandler) *Builder {
	if unregistered(h) {
		h = nil
	}
	b.d.clientCredentials = h
	return b
}

func (b *Builder) RefreshToken(h RefreshTokenHandler) *Builder {
	if unregistered(h) {
		h = nil
	}
	b.d.refreshToken = h
	return b
}

func (b *Builder) Authorization(h AuthorizationHandler) *Builder {
	if unregistered(h) {
		h = nil
	}
	b.d.authorization = h
	return b
}

// unregistered reports whether h should leave its slot empty: nil, a nil
// func adapter or pointer, or NotImplemented.
func unregistered(h any) bool {
	if h == nil {
		return true
	}
	if _, ok := h.(NotImplemented); ok {
		return true
	}
	switch v := reflect.ValueOf(h); v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Build returns a snapshot. Later calls on the builder do not affect it.
func (b *Builder) Build() *Dispatcher {
	d := b.d
	return &d
}

// Dispatch invokes the handler registered for req's grant type and returns
// its result unchanged. ctx is passed through untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, req oauthmodel.GrantRequest) (*oauth2.TokenResponse, error) {
	req = normalise(req)
	if req == nil {
		return nil, oauth2.ErrInvalidRequest
	}
	zerolog.Ctx(ctx).Debug().
		Stringer("grant_type", req.GrantType()).
		Bool("registered", d.Supports(req.GrantType())).
		Msg("dispatching token request")

	switch r := req.(type) {
	case oauthmodel.PasswordRequest:
		if d.password == nil {
			return nil, oauth2.ErrUnsupportedGrantType
		}
		return d.password.HandlePassword(ctx, r.Username, r.Password)

	case oauthmodel.AuthorizationCodeRequest:
		if d.authorizationCode == nil {
			return nil, oauth2.ErrUnsupportedGrantType
		}
		return d.authorizationCode.HandleAuthorizationCode(ctx, r.Code, r.RedirectURI, r.ClientID, r.ClientSecret)

	case oauthmodel.ClientCredentialsRequest:
		if d.clientCredentials == nil {
			return nil, oauth2.ErrUnsupportedGrantType
		}
		return d.clientCredentials.HandleClientCredentials(ctx, r.ClientID, r.ClientSecret)

	case oauthmodel.RefreshTokenRequest:
		if d.refreshToken == nil {
			return nil, oauth2.ErrUnsupportedGrantType
		}
		return d.refreshToken.HandleRefreshToken(ctx, r.ClientID, r.ClientSecret, r.RefreshToken)
	}
	return nil, oauth2.ErrInvalidRequest
}

// normalise dereferences pointer variants. Nil pointers yield nil.
func normalise(req oauthmodel.GrantRequest) oauthmodel.GrantRequest {
	switch r := req.(type) {
	case *oauthmodel.PasswordRequest:
		if r == nil {
			return nil
		}
		return *r
	case *oauthmodel.AuthorizationCodeRequest:
		if r == nil {
			return nil
		}
		return *r
	case *oauthmodel.ClientCredentialsRequest:
		if r == nil {
			return nil
		}
		return *r
	case *oauthmodel.RefreshTokenRequest:
		if r == nil {
			return nil
		}
		return *r
	}
	return req
}

// Authorize invokes the authorization handler.
func (d *Dispatcher) Authorize(ctx context.Context, req *oauthmodel.AuthorizationRequest) (http.Handler, error) {
	if req == nil {
		return nil, oauth2.ErrInvalidRequest
	}
	if d.authorization == nil {
		return nil, oauth2.ErrUnsupportedGrantType
	}
	return d.authorization.HandleAuthorization(ctx, req)
}

// Supports reports whether a handler is registered for gt.
func (d *Dispatcher) Supports(gt oauth2.GrantType) bool {
	switch gt {
	case oauth2.PasswordGrant:
		return d.password != nil
	case oauth2.AuthorizationCodeGrant:
		return d.authorizationCode != nil
	case oauth2.ClientCredentialsGrant:
		return d.clientCredentials != nil
	case oauth2.RefreshTokenGrant:
		return d.refreshToken != nil
	}
	return false
}

// Supported lists the grant types with a registered handler.
func (d *Dispatcher) Supported() []oauth2.GrantType {
	supported := make([]oauth2.GrantType, 0, len(oauth2.GrantTypes))
	for _, gt := range oauth2.GrantTypes {
		if d.Supports(gt) {
			supported = append(supported, gt)
		}
	}
	return supported
}

// AuthorizationEnabled reports whether the authorization endpoint has a handler.
func (d *Dispatcher) AuthorizationEnabled() bool {
	return d.authorization != nil
}
