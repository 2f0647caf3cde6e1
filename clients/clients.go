package clients

import (
	"slices"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"golang.org/x/crypto/bcrypt"
)

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (SPAs, mobile apps)
)

// ErrInvalidScope is returned when a client asks for a scope it was not registered with.
var ErrInvalidScope = errors.New("scope not allowed for client")

type Client struct {
	ID           oauth2.ClientID    `json:"client_id"`
	Type         ClientType         `json:"type"` // public or confidential
	Description  string             `json:"description,omitempty"`
	SecretHash   string             `json:"-"`
	RedirectURIs []string           `json:"redirect_uris"`
	GrantTypes   []oauth2.GrantType `json:"grant_types"`
	Scopes       oauth2.Scopes      `json:"scopes"` // Allowed scopes for this client
	OwnerID      string             `json:"owner_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// IsPublic returns true if the client is a public client
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// AllowsGrant reports whether the client was registered for gt.
func (c *Client) AllowsGrant(gt oauth2.GrantType) bool {
	return slices.Contains(c.GrantTypes, gt)
}

// HasRedirectURI requires an exact match against a registered URI.
func (c *Client) HasRedirectURI(uri oauth2.RedirectURI) bool {
	return slices.Contains(c.RedirectURIs, uri.String())
}

// ValidateScopes checks if all requested scopes are allowed for this client
func (c *Client) ValidateScopes(requested oauth2.Scopes) error {
	if !requested.SubsetOf(c.Scopes) {
		return ErrInvalidScope
	}
	return nil
}

// CheckSecret compares secret with the stored hash. Public clients have no
// secret and always fail.
func (c *Client) CheckSecret(secret oauth2.ClientSecret) bool {
	if c.IsPublic() || c.SecretHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret.Secret())) == nil
}

// Registration is the payload accepted by the clients API.
type Registration struct {
	Type         ClientType         `json:"type"`
	Description  string             `json:"description"`
	RedirectURIs []string           `json:"redirect_uris"`
	GrantTypes   []oauth2.GrantType `json:"grant_types"`
	Scopes       oauth2.Scopes      `json:"scopes"`
}

// Validate checks the client type, redirect URIs and grant types.
func (r Registration) Validate() error {
	switch r.Type {
	case ClientTypeConfidential, ClientTypePublic:
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "unknown client type %q", r.Type)
	}
	for _, uri := range r.RedirectURIs {
		if _, err := oauth2.ParseRedirectURI(uri); err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "redirect uri %q", uri)
		}
	}
	if len(r.GrantTypes) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "at least one grant type is required")
	}
	for _, gt := range r.GrantTypes {
		if _, ok := oauth2.ParseGrantType(string(gt)); !ok {
			return errors.Wrapf(errors.ErrInvalidInput, "unknown grant type %q", gt)
		}
	}
	if slices.Contains(r.GrantTypes, oauth2.AuthorizationCodeGrant) && len(r.RedirectURIs) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "authorization_code clients need a redirect uri")
	}
	if r.Type == ClientTypePublic && slices.Contains(r.GrantTypes, oauth2.ClientCredentialsGrant) {
		return errors.Wrapf(errors.ErrInvalidInput, "public clients cannot use client_credentials")
	}
	return nil
}
