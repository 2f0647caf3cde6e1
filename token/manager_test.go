package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/config"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/token"
	tokenfakerepo "github.com/jrsteele09/go-oauth-facade/token/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now     time.Time
	repo    *tokenfakerepo.FakeTokenRepo
	manager *token.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		now:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		repo: tokenfakerepo.NewFakeTokensRepo(),
	}
	cfg := config.OAuth{
		TokenLength:        50,
		TokenType:          "bearer",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	}
	f.manager = token.NewManager(f.repo, cfg, token.WithNowFunc(func() time.Time { return f.now }))
	return f
}

func TestIssue(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.manager.Issue(ctx, token.Grant{UserID: "u1", ClientID: "c1", Scopes: oauth2.NewScopes("read")})
	require.NoError(t, err)
	require.Len(t, resp.AccessToken.Secret(), 50)
	require.Len(t, resp.RefreshToken.Secret(), 50)
	require.NotEqual(t, resp.AccessToken.Secret(), resp.RefreshToken.Secret())
	require.Equal(t, oauth2.BearerTokenType, resp.TokenType)
	require.Equal(t, 3600, resp.ExpiresIn)
	require.Equal(t, oauth2.NewScopes("read"), resp.Scope)
	require.Equal(t, 2, f.repo.Len())

	access, err := f.repo.Get(ctx, resp.AccessToken.Secret())
	require.NoError(t, err)
	require.Equal(t, token.KindAccess, access.Kind)
	require.Equal(t, "u1", access.UserID)
	require.Equal(t, oauth2.ClientID("c1"), access.ClientID)
	require.Equal(t, f.now.Add(time.Hour), access.ExpiresAt)

	require.Equal(t, resp.RefreshToken.Secret(), access.Pair)

	refresh, err := f.repo.Get(ctx, resp.RefreshToken.Secret())
	require.NoError(t, err)
	require.Equal(t, token.KindRefresh, refresh.Kind)
	require.Equal(t, resp.AccessToken.Secret(), refresh.Pair)
	require.Equal(t, f.now.Add(24*time.Hour), refresh.ExpiresAt)
}

func TestIssueWithoutScopeOmitsScope(t *testing.T) {
	f := setupTestFixture(t)
	resp, err := f.manager.Issue(context.Background(), token.Grant{UserID: "u1"})
	require.NoError(t, err)
	require.Nil(t, resp.Scope)
}

func TestIssueFailsOnCancelledContext(t *testing.T) {
	f := setupTestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.Issue(ctx, token.Grant{UserID: "u1"})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, f.repo.Len())
}

// failingRepo fails Save for the given kind and delegates everything else.
type failingRepo struct {
	*tokenfakerepo.FakeTokenRepo
	kind token.Kind
}

func (r *failingRepo) Save(ctx context.Context, t *token.StoredToken) error {
	if t.Kind == r.kind {
		return errors.New("disk full")
	}
	return r.FakeTokenRepo.Save(ctx, t)
}

func TestIssueLeavesNoHalfPair(t *testing.T) {
	for _, kind := range []token.Kind{token.KindAccess, token.KindRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			repo := &failingRepo{FakeTokenRepo: tokenfakerepo.NewFakeTokensRepo(), kind: kind}
			manager := token.NewManager(repo, config.OAuth{TokenLength: 50, AccessTokenExpiry: time.Hour})

			_, err := manager.Issue(context.Background(), token.Grant{UserID: "u1"})
			require.ErrorContains(t, err, "disk full")
			require.Zero(t, repo.Len())
		})
	}
}

func TestValidate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	resp, err := f.manager.Issue(ctx, token.Grant{UserID: "u1"})
	require.NoError(t, err)

	stored, err := f.manager.Validate(ctx, resp.AccessToken.Secret(), token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, "u1", stored.UserID)

	_, err = f.manager.Validate(ctx, resp.AccessToken.Secret(), token.KindRefresh)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	_, err = f.manager.Validate(ctx, "unknown", token.KindAccess)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	_, err = f.manager.Validate(ctx, "", token.KindAccess)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.manager.Validate(ctx, resp.AccessToken.Secret(), token.KindAccess)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
	_, err = f.repo.Get(ctx, resp.AccessToken.Secret())
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.manager.Validate(ctx, resp.RefreshToken.Secret(), token.KindRefresh)
	require.NoError(t, err)
}

func TestRotate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	first, err := f.manager.Issue(ctx, token.Grant{UserID: "u1", ClientID: "c1", Scopes: oauth2.NewScopes("read")})
	require.NoError(t, err)

	old, err := f.manager.Validate(ctx, first.RefreshToken.Secret(), token.KindRefresh)
	require.NoError(t, err)

	second, err := f.manager.Rotate(ctx, old)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken.Secret(), second.RefreshToken.Secret())
	require.Equal(t, oauth2.NewScopes("read"), second.Scope)

	_, err = f.manager.Validate(ctx, first.RefreshToken.Secret(), token.KindRefresh)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	_, err = f.manager.Rotate(ctx, old)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	_, err = f.manager.Validate(ctx, first.AccessToken.Secret(), token.KindAccess)
	require.ErrorIs(t, err, errors.ErrInvalidToken, "rotation revokes the old access token")
	_, err = f.manager.Validate(ctx, second.AccessToken.Secret(), token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, 2, f.repo.Len())
}

func TestRevoke(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	resp, err := f.manager.Issue(ctx, token.Grant{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, f.manager.Revoke(ctx, resp.AccessToken.Secret()))
	require.NoError(t, f.manager.Revoke(ctx, resp.AccessToken.Secret()))
	_, err = f.manager.Validate(ctx, resp.AccessToken.Secret(), token.KindAccess)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}
