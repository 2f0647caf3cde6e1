package clients

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"golang.org/x/crypto/bcrypt"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Register creates a client with a generated id. Confidential clients also
// get a generated secret, which is returned here and never again.
func (s *Service) Register(ctx context.Context, reg Registration, ownerID string) (*Client, oauth2.ClientSecret, error) {
	if err := reg.Validate(); err != nil {
		return nil, "", err
	}

	client := &Client{
		ID:           oauth2.NewRandomClientID(),
		Type:         reg.Type,
		Description:  reg.Description,
		RedirectURIs: reg.RedirectURIs,
		GrantTypes:   reg.GrantTypes,
		Scopes:       reg.Scopes,
		OwnerID:      ownerID,
		CreatedAt:    NowTimeFunc().UTC(),
	}
	if client.Scopes == nil {
		client.Scopes = oauth2.Scopes{}
	}

	var secret oauth2.ClientSecret
	if !client.IsPublic() {
		var err error
		if secret, err = oauth2.NewRandomClientSecret(); err != nil {
			return nil, "", errors.Wrapf(err, "[clients Register] generate secret")
		}
		if client.SecretHash, err = HashSecret(secret); err != nil {
			return nil, "", errors.Wrapf(err, "[clients Register] hash secret")
		}
	}

	if err := s.repo.Upsert(ctx, client); err != nil {
		return nil, "", errors.Wrapf(err, "[clients Register] store client")
	}
	return client, secret, nil
}

// Authenticate returns the client when secret matches. Unknown clients and
// wrong secrets both yield errors.ErrInvalidClient.
func (s *Service) Authenticate(ctx context.Context, id oauth2.ClientID, secret oauth2.ClientSecret) (*Client, error) {
	client, err := s.repo.Get(ctx, id)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.ErrInvalidClient
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[clients Authenticate] lookup %s", id)
	}
	if !client.CheckSecret(secret) {
		return nil, errors.ErrInvalidClient
	}
	return client, nil
}

// Get returns a client without authenticating it.
func (s *Service) Get(ctx context.Context, id oauth2.ClientID) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*Client, error) {
	return s.repo.List(ctx, offset, limit)
}

func HashSecret(secret oauth2.ClientSecret) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret.Secret()), bcrypt.DefaultCost)
	return string(hash), err
}
