// Package token issues opaque bearer token pairs and tracks them in a Repo.
package token

import (
	"time"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

// Kind distinguishes access from refresh tokens in storage.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// StoredToken is the persisted record of an issued token. UserID is empty
// for tokens issued to a client acting on its own behalf. Pair is the value
// of the other half of the pair it was issued with.
type StoredToken struct {
	Value     string          `json:"token"`
	Kind      Kind            `json:"kind"`
	Pair      string          `json:"pair,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	ClientID  oauth2.ClientID `json:"client_id,omitempty"`
	Scopes    oauth2.Scopes   `json:"scopes"`
	ExpiresAt time.Time       `json:"expires_at"`
	IssuedAt  time.Time       `json:"issued_at"`
}

// Expired reports whether the token is no longer valid at now.
func (t *StoredToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
