package users

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/rs/zerolog"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Verifier checks resource owner credentials. It returns
// errors.ErrInvalidCredentials when the user is unknown or the password does
// not match, and errors.ErrUserBlocked for blocked accounts.
type Verifier interface {
	Verify(ctx context.Context, username oauth2.Username, password oauth2.Password) (*User, error)
}

// Service implements Verifier and registration over a Repo.
type Service struct {
	repo Repo
}

var _ Verifier = (*Service)(nil)

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Verify looks the user up by username, then by email.
func (s *Service) Verify(ctx context.Context, username oauth2.Username, password oauth2.Password) (*User, error) {
	user, err := s.lookup(ctx, string(username))
	if errors.Is(err, errors.ErrNotFound) {
		// Burn a comparison so unknown users take as long as wrong passwords.
		CheckPasswordHash(password.Secret(), dummyHash)
		return nil, errors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[users Verify] lookup %s", username)
	}

	if !CheckPasswordHash(password.Secret(), user.PasswordHash) {
		zerolog.Ctx(ctx).Debug().Stringer("username", username).Msg("password mismatch")
		return nil, errors.ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, errors.ErrUserBlocked
	}

	if err := s.repo.SetLastLogin(ctx, user.ID, NowTimeFunc()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	return user, nil
}

func (s *Service) lookup(ctx context.Context, login string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, login)
	if err == nil || !errors.Is(err, errors.ErrNotFound) || !strings.Contains(login, "@") {
		return user, err
	}
	return s.repo.GetByEmail(ctx, login)
}

// Register validates n, hashes the password and stores a new user.
// Taken usernames or emails yield errors.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, n NewUser) (*User, error) {
	if err := n.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s", err.Error())
	}
	if _, err := s.repo.GetByUsername(ctx, n.Username); err == nil {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "username %s", n.Username)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrapf(err, "[users Register] username lookup")
	}
	if _, err := s.repo.GetByEmail(ctx, n.Email); err == nil {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "email %s", n.Email)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrapf(err, "[users Register] email lookup")
	}

	hash, err := HashPassword(n.Password)
	if err != nil {
		return nil, errors.Wrapf(err, "[users Register] hash password")
	}
	user := &User{
		Email:        n.Email,
		Username:     n.Username,
		PasswordHash: hash,
		FirstName:    n.FirstName,
		LastName:     n.LastName,
		DateJoined:   NowTimeFunc().UTC(),
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, errors.Wrapf(err, "[users Register] store user")
	}
	return user, nil
}

// dummyHash is a bcrypt hash of a random string.
const dummyHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8.vW1Jq6Q1vC7Jq4qGv2XbYgWc3cS6"
