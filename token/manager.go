package token

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/config"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Grant describes who a token pair is issued to.
type Grant struct {
	UserID   string
	ClientID oauth2.ClientID
	Scopes   oauth2.Scopes
}

type Manager struct {
	repo               Repo
	tokenLength        int
	tokenType          oauth2.TokenType
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, cfg config.OAuthConfig, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:               repo,
		tokenLength:        cfg.GetTokenLength(),
		tokenType:          cfg.GetTokenType(),
		accessTokenExpiry:  cfg.GetDefaultAccessTokenExpiry(),
		refreshTokenExpiry: cfg.GetDefaultRefreshTokenExpiry(),
		nowFunc:            time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.refreshTokenExpiry < m.accessTokenExpiry {
		m.refreshTokenExpiry = m.accessTokenExpiry
	}
	return m
}

// Issue generates a new token pair for g and persists both halves. If
// either save fails neither half is left behind.
func (m *Manager) Issue(ctx context.Context, g Grant) (*oauth2.TokenResponse, error) {
	opts := []oauth2.TokenResponseOption{
		oauth2.WithTokenLength(m.tokenLength),
		oauth2.WithTokenType(m.tokenType),
		oauth2.WithExpiresIn(int(m.accessTokenExpiry.Seconds())),
	}
	if !g.Scopes.IsEmpty() {
		opts = append(opts, oauth2.WithScope(g.Scopes))
	}
	resp, err := oauth2.NewTokenResponse(opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "[token Issue] generate")
	}

	now := m.nowFunc().UTC()
	scopes := g.Scopes
	if scopes == nil {
		scopes = oauth2.Scopes{}
	}
	access := &StoredToken{
		Value:     resp.AccessToken.Secret(),
		Kind:      KindAccess,
		Pair:      resp.RefreshToken.Secret(),
		UserID:    g.UserID,
		ClientID:  g.ClientID,
		Scopes:    scopes,
		ExpiresAt: now.Add(m.accessTokenExpiry),
		IssuedAt:  now,
	}
	refresh := *access
	refresh.Value = resp.RefreshToken.Secret()
	refresh.Kind = KindRefresh
	refresh.Pair = access.Value
	refresh.ExpiresAt = now.Add(m.refreshTokenExpiry)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return m.repo.Save(egCtx, access) })
	eg.Go(func() error { return m.repo.Save(egCtx, &refresh) })
	if err := eg.Wait(); err != nil {
		m.discard(context.WithoutCancel(ctx), access.Value, refresh.Value)
		return nil, errors.Wrapf(err, "[token Issue] persist")
	}

	zerolog.Ctx(ctx).Debug().
		Str("user_id", g.UserID).
		Stringer("client_id", g.ClientID).
		Stringer("scope", g.Scopes).
		Msg("issued token pair")
	return resp, nil
}

// Validate returns the stored token when value is known, of the expected
// kind and unexpired. Expired tokens are removed.
func (m *Manager) Validate(ctx context.Context, value string, kind Kind) (*StoredToken, error) {
	if value == "" {
		return nil, errors.ErrInvalidToken
	}
	stored, err := m.repo.Get(ctx, value)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.ErrInvalidToken
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[token Validate] lookup")
	}
	if stored.Kind != kind {
		return nil, errors.ErrInvalidToken
	}
	if stored.Expired(m.nowFunc()) {
		if err := m.repo.Delete(ctx, value); err != nil && !errors.Is(err, errors.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to delete expired token")
		}
		return nil, errors.ErrTokenExpired
	}
	return stored, nil
}

// Rotate consumes the refresh token old, revokes the access token issued
// alongside it and issues a new pair for the same grant. Losing a race for
// old yields errors.ErrInvalidToken.
func (m *Manager) Rotate(ctx context.Context, old *StoredToken) (*oauth2.TokenResponse, error) {
	if err := m.repo.Delete(ctx, old.Value); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrInvalidToken
		}
		return nil, errors.Wrapf(err, "[token Rotate] delete")
	}
	if old.Pair != "" {
		if err := m.Revoke(ctx, old.Pair); err != nil {
			return nil, errors.Wrapf(err, "[token Rotate] revoke access")
		}
	}
	return m.Issue(ctx, Grant{UserID: old.UserID, ClientID: old.ClientID, Scopes: old.Scopes})
}

// discard removes whatever was saved of a pair whose issue failed.
func (m *Manager) discard(ctx context.Context, values ...string) {
	for _, v := range values {
		if err := m.repo.Delete(ctx, v); err != nil && !errors.Is(err, errors.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to discard partially issued token")
		}
	}
}

// Revoke deletes value. Unknown tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, value string) error {
	if err := m.repo.Delete(ctx, value); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return errors.Wrapf(err, "[token Revoke]")
	}
	return nil
}
