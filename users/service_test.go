package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/users"
	fakeuserrepo "github.com/jrsteele09/go-oauth-facade/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testEmail    = "alice@example.com"
	testPassword = "Hunter2password"
)

type testFixture struct {
	repo    *fakeuserrepo.FakeUserRepo
	service *users.Service
	user    *users.User
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	users.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { users.NowTimeFunc = time.Now })

	repo := fakeuserrepo.NewFakeUserRepo()
	service := users.NewService(repo)
	user, err := service.Register(context.Background(), users.NewUser{
		Username: testUsername,
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)

	return &testFixture{repo: repo, service: service, user: user}
}

func TestVerify(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		user, err := f.service.Verify(ctx, testUsername, testPassword)
		require.NoError(t, err)
		require.Equal(t, f.user.ID, user.ID)

		stored, err := f.repo.GetByID(ctx, f.user.ID)
		require.NoError(t, err)
		require.Equal(t, users.NowTimeFunc(), stored.LastLogin)
	})

	t.Run("by email", func(t *testing.T) {
		user, err := f.service.Verify(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, f.user.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.Verify(ctx, testUsername, "Wrong-password1")
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.service.Verify(ctx, "bob", oauth2.Password(testPassword))
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("blocked user", func(t *testing.T) {
		blocked := *f.user
		blocked.Blocked = true
		require.NoError(t, f.repo.Upsert(ctx, &blocked))
		t.Cleanup(func() { require.NoError(t, f.repo.Upsert(ctx, f.user)) })

		_, err := f.service.Verify(ctx, testUsername, testPassword)
		require.ErrorIs(t, err, errors.ErrUserBlocked)
	})
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NotEmpty(t, f.user.ID)
	require.NotEqual(t, testPassword, f.user.PasswordHash)
	require.True(t, users.CheckPasswordHash(testPassword, f.user.PasswordHash))
	require.Equal(t, users.NowTimeFunc(), f.user.DateJoined)

	testCases := []struct {
		name    string
		newUser users.NewUser
		err     error
	}{
		{"duplicate username", users.NewUser{Username: testUsername, Email: "other@example.com", Password: testPassword}, errors.ErrAlreadyExists},
		{"duplicate email", users.NewUser{Username: "other", Email: testEmail, Password: testPassword}, errors.ErrAlreadyExists},
		{"weak password", users.NewUser{Username: "bob", Email: "bob@example.com", Password: "short"}, errors.ErrInvalidInput},
		{"bad email", users.NewUser{Username: "bob", Email: "bob", Password: testPassword}, errors.ErrInvalidInput},
		{"blank username", users.NewUser{Username: " ", Email: "bob@example.com", Password: testPassword}, errors.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Register(ctx, tc.newUser)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, users.ValidateEmail("a@b.co"))
	for _, bad := range []string{"", "a", "a@b", "Alice <a@b.co>", "a b@c.de"} {
		require.Error(t, users.ValidateEmail(bad), bad)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Abcdefg1"))
	require.Error(t, users.ValidatePasswordStrength("abcdefg1"))
	require.Error(t, users.ValidatePasswordStrength("ABCDEFG1"))
	require.Error(t, users.ValidatePasswordStrength("Abcdefgh"))
	require.Error(t, users.ValidatePasswordStrength("Ab1"))
}

func TestFakeRepoList(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	for _, name := range []string{"bob", "carol"} {
		require.NoError(t, f.repo.Upsert(ctx, &users.User{Username: name, Email: name + "@example.com"}))
	}

	page, err := f.repo.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Users, 2)

	page, err = f.repo.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)

	page, err = f.repo.List(ctx, 5, 10)
	require.NoError(t, err)
	require.Empty(t, page.Users)
}
