package auth

import (
	"context"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/rs/zerolog"
)

// oauthError maps store and verifier failures onto the protocol taxonomy.
// Anything unrecognised becomes an InternalError carrying its text.
func oauthError(ctx context.Context, op string, err error) error {
	var mapped *oauth2.Error
	switch {
	case errors.As(err, &mapped):
		return mapped
	case errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrUserBlocked),
		errors.Is(err, errors.ErrInvalidToken),
		errors.Is(err, errors.ErrTokenExpired),
		errors.Is(err, errors.ErrInvalidAuthorizationCode):
		mapped = oauth2.ErrInvalidGrant
	case errors.Is(err, errors.ErrInvalidClient):
		mapped = oauth2.ErrInvalidClient
	case errors.Is(err, errors.ErrInvalidRedirectURI):
		mapped = oauth2.ErrInvalidRequest
	default:
		zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("grant failed")
		return oauth2.NewInternalError(err.Error())
	}
	zerolog.Ctx(ctx).Debug().Err(err).Str("op", op).Stringer("error", mapped.Kind).Msg("grant rejected")
	return mapped
}
