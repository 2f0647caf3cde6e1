// Package auth implements the grant handlers registered with the
// dispatcher: password, client credentials, refresh token and
// authorization code, plus the authorization endpoint.
package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth-facade/clients"
	"github.com/jrsteele09/go-oauth-facade/grant"
	"github.com/jrsteele09/go-oauth-facade/internal/config"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/token"
	"github.com/jrsteele09/go-oauth-facade/usercontext"
	"github.com/jrsteele09/go-oauth-facade/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users   users.Verifier // Resource owner credential check
	Clients clients.Repo   // Registered OAuth2 clients
	Codes   CodeRepo       // Issued authorization codes
}

// Service provides the concrete grant handlers.
type Service struct {
	repos       Repos
	clients     *clients.Service
	tokens      *token.Manager
	codeLength  int
	codeTimeout time.Duration
	nowTime     func() time.Time // nowTime function (injectable for testing)
}

var (
	_ grant.PasswordHandler          = (*Service)(nil)
	_ grant.ClientCredentialsHandler = (*Service)(nil)
	_ grant.RefreshTokenHandler      = (*Service)(nil)
	_ grant.AuthorizationCodeHandler = (*Service)(nil)
	_ grant.AuthorizationHandler     = (*Service)(nil)
)

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens *token.Manager, cfg config.OAuthConfig, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[auth NewService] Users verifier is required")
	}
	if repos.Clients == nil {
		return nil, errors.New("[auth NewService] Clients repo is required")
	}
	if repos.Codes == nil {
		return nil, errors.New("[auth NewService] Codes repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[auth NewService] token manager is required")
	}

	s := &Service{
		repos:       repos,
		clients:     clients.NewService(repos.Clients),
		tokens:      tokens,
		codeLength:  cfg.GetCodeGenerationLength(),
		codeTimeout: cfg.GetAuthCodeTimeout(),
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register installs the handlers for every grant in enabled, plus the
// authorization endpoint when the authorization code grant is enabled.
func (s *Service) Register(b *grant.Builder, enabled []oauth2.GrantType) *grant.Builder {
	for _, gt := range enabled {
		switch gt {
		case oauth2.PasswordGrant:
			b.Password(s)
		case oauth2.ClientCredentialsGrant:
			b.ClientCredentials(s)
		case oauth2.RefreshTokenGrant:
			b.RefreshToken(s)
		case oauth2.AuthorizationCodeGrant:
			b.AuthorizationCode(s).Authorization(s)
		}
	}
	return b
}

// system scopes store calls made on behalf of a client that has not yet
// been identified.
func system(ctx context.Context) context.Context {
	return usercontext.WithUserContext(ctx, usercontext.SystemContext)
}
