package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

// AuthCode is an issued authorization code awaiting exchange.
type AuthCode struct {
	Code        string
	ClientID    oauth2.ClientID
	RedirectURI string
	UserID      string
	Scopes      oauth2.Scopes
	CreatedAt   time.Time
}

// CodeRepo stores authorization codes. Get reads a code without consuming
// it. Take removes the code as it returns it, so a code can be exchanged at
// most once. Unknown codes return errors.ErrNotFound.
type CodeRepo interface {
	Save(ctx context.Context, code *AuthCode) error
	Get(ctx context.Context, code string) (*AuthCode, error)
	Take(ctx context.Context, code string) (*AuthCode, error)
}
