// Package usercontext carries the identity a request acts as, used by the
// row level security aware repositories.
package usercontext

import (
	"context"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/rs/zerolog"
)

type Kind int

const (
	// Anonymous is the zero value: no login.
	Anonymous Kind = iota
	Authenticated
	// System bypasses row level security.
	System
)

func (k Kind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case System:
		return "system"
	}
	return "anonymous"
}

// UserContext is the identity of the caller. UserID and Token are only set
// for Authenticated.
type UserContext struct {
	Kind   Kind
	UserID string
	Token  oauth2.AccessToken
}

var (
	AnonymousContext = UserContext{Kind: Anonymous}
	SystemContext    = UserContext{Kind: System}
)

func NewAuthenticated(userID string, token oauth2.AccessToken) UserContext {
	return UserContext{Kind: Authenticated, UserID: userID, Token: token}
}

func (u UserContext) IsAuthenticated() bool { return u.Kind == Authenticated }
func (u UserContext) IsSystem() bool        { return u.Kind == System }

// String never includes the user id or token.
func (u UserContext) String() string {
	if u.Kind == Authenticated {
		return "authenticated([redacted])"
	}
	return u.Kind.String()
}

type ctxKey struct{}

func WithUserContext(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the stored UserContext, or AnonymousContext when none was set.
func FromContext(ctx context.Context) UserContext {
	if u, ok := ctx.Value(ctxKey{}).(UserContext); ok {
		return u
	}
	zerolog.Ctx(ctx).Debug().Msg("no user context, defaulting to anonymous")
	return AnonymousContext
}
