package coderepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-facade/auth"
	"github.com/jrsteele09/go-oauth-facade/auth/coderepo"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/stretchr/testify/require"
)

func TestGetLeavesCodeAndTakeConsumes(t *testing.T) {
	ctx := context.Background()
	repo := coderepo.NewInMemoryRepo()
	require.NoError(t, repo.Save(ctx, &auth.AuthCode{Code: "c1", ClientID: "client", Scopes: oauth2.NewScopes("read")}))

	peeked, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, oauth2.ClientID("client"), peeked.ClientID)
	peeked.Scopes[0] = "admin"

	taken, err := repo.Take(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, oauth2.NewScopes("read"), taken.Scopes)

	_, err = repo.Get(ctx, "c1")
	require.ErrorIs(t, err, errors.ErrNotFound)
	_, err = repo.Take(ctx, "c1")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	repo := coderepo.NewInMemoryRepo()
	now := time.Now()
	require.NoError(t, repo.Save(ctx, &auth.AuthCode{Code: "old", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Save(ctx, &auth.AuthCode{Code: "new", CreatedAt: now}))

	require.Equal(t, 1, repo.Purge(now.Add(-time.Minute)))
	_, err := repo.Get(ctx, "old")
	require.ErrorIs(t, err, errors.ErrNotFound)
	_, err = repo.Get(ctx, "new")
	require.NoError(t, err)
}
