package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-oauth-facade/clients"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/usercontext"
	"github.com/jrsteele09/go-oauth-facade/users"
	"github.com/rs/zerolog"
)

const generatedPasswordLength = 20

// InitialiseSystem creates the admin user and the bootstrap client when
// they do not exist yet. A generated admin password is logged once.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	ctx = usercontext.WithUserContext(ctx, usercontext.SystemContext)

	if err := s.initialiseAdminUser(ctx); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin user: %w", err)
	}
	if err := s.initialiseBootstrapClient(ctx); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap client: %w", err)
	}
	return nil
}

func (s *Server) initialiseAdminUser(ctx context.Context) error {
	username := s.config.GetSystemAdminUser()
	if username == "" {
		return nil
	}
	logger := zerolog.Ctx(ctx)

	_, err := s.repos.Users.GetByUsername(ctx, username)
	if err == nil {
		logger.Debug().Str("username", username).Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	password := s.config.GetSystemAdminPassword()
	generated := password == ""
	if generated {
		if password, err = oauth2.RandomString(generatedPasswordLength); err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	}
	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &users.User{
		Email:        generateEmailFromBaseURL(username, s.config.GetBaseURL()),
		Username:     username,
		PasswordHash: passwordHash,
		FirstName:    "System",
		LastName:     "Administrator",
		DateJoined:   users.NowTimeFunc().UTC(),
		Verified:     true,
	}
	if err := s.repos.Users.Upsert(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	event := logger.Info().Str("username", admin.Username).Str("email", admin.Email)
	if generated {
		event = event.Str("password", password)
	}
	event.Msg("created admin user")
	return nil
}

// initialiseBootstrapClient registers a confidential client under the
// configured id and secret, allowed every grant except authorization_code.
// Without a configured secret the client is not created.
func (s *Server) initialiseBootstrapClient(ctx context.Context) error {
	id := oauth2.ClientID(s.config.GetBootstrapClientID())
	if id == "" {
		return nil
	}
	logger := zerolog.Ctx(ctx)

	_, err := s.repos.Clients.Get(ctx, id)
	if err == nil {
		logger.Debug().Stringer("client_id", id).Msg("bootstrap client already exists")
		return nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	secret := oauth2.ClientSecret(s.config.GetBootstrapClientSecret())
	if secret == "" {
		logger.Warn().Stringer("client_id", id).Msg("BOOTSTRAP_CLIENT_SECRET is not set, skipping bootstrap client")
		return nil
	}
	secretHash, err := clients.HashSecret(secret)
	if err != nil {
		return fmt.Errorf("failed to hash client secret: %w", err)
	}
	client := &clients.Client{
		ID:          id,
		Type:        clients.ClientTypeConfidential,
		Description: "Bootstrap client",
		SecretHash:  secretHash,
		GrantTypes: []oauth2.GrantType{
			oauth2.PasswordGrant,
			oauth2.ClientCredentialsGrant,
			oauth2.RefreshTokenGrant,
		},
		Scopes:    oauth2.Scopes{},
		CreatedAt: clients.NowTimeFunc().UTC(),
	}
	if err := s.repos.Clients.Upsert(ctx, client); err != nil {
		return fmt.Errorf("failed to create bootstrap client: %w", err)
	}

	logger.Info().
		Stringer("client_id", client.ID).
		Str("token_endpoint", s.config.GetBaseURL()+RouteOAuthToken).
		Msg("created bootstrap client")
	return nil
}

// generateEmailFromBaseURL creates an email address from a username and base URL
// Example: ("admin", "https://auth.example.com/path") -> "admin@auth.example.com"
func generateEmailFromBaseURL(user, baseURL string) string {
	domain := strings.ReplaceAll(strings.ReplaceAll(baseURL, "https://", ""), "http://", "")
	domain = strings.SplitN(domain, "/", 2)[0] // Remove any path
	domain = strings.SplitN(domain, ":", 2)[0] // Remove port if present
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("%s@%s", user, domain)
}
