package oauth2

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrMalformedURI     = errors.New("malformed uri")
	ErrMalformedScope   = errors.New("malformed scope")
	ErrUnknownTokenType = errors.New("unknown token type")
)

// Redacted replaces secret-bearing values in String, GoString and log output.
const Redacted = "[redacted]"

const clientSecretLength = 64

// ClientID identifies a registered client application.
type ClientID string

// NewRandomClientID returns a fresh uuid based client identifier.
func NewRandomClientID() ClientID {
	return ClientID(uuid.New().String())
}

func (c ClientID) String() string {
	return string(c)
}

// ClientSecret authenticates a confidential client. Formatting it with
// fmt or zerolog never prints the raw value, use Secret for protocol use.
type ClientSecret string

// NewRandomClientSecret returns a 64 character alphanumeric secret.
func NewRandomClientSecret() (ClientSecret, error) {
	s, err := RandomString(clientSecretLength)
	if err != nil {
		return "", err
	}
	return ClientSecret(s), nil
}

func (s ClientSecret) Secret() string   { return string(s) }
func (s ClientSecret) String() string   { return Redacted }
func (s ClientSecret) GoString() string { return Redacted }

// Username identifies a resource owner.
type Username string

func (u Username) String() string {
	return string(u)
}

// Password is the resource owner's password.
type Password string

func (p Password) Secret() string   { return string(p) }
func (p Password) String() string   { return Redacted }
func (p Password) GoString() string { return Redacted }

// AccessToken is an opaque bearer credential.
type AccessToken string

func (t AccessToken) Secret() string   { return string(t) }
func (t AccessToken) String() string   { return Redacted }
func (t AccessToken) GoString() string { return Redacted }

// RefreshToken is an opaque credential used to obtain a new token pair.
type RefreshToken string

func (t RefreshToken) Secret() string   { return string(t) }
func (t RefreshToken) String() string   { return Redacted }
func (t RefreshToken) GoString() string { return Redacted }

// AuthorizationCode is the short-lived code issued by the authorization endpoint.
type AuthorizationCode string

func (c AuthorizationCode) Secret() string   { return string(c) }
func (c AuthorizationCode) String() string   { return Redacted }
func (c AuthorizationCode) GoString() string { return Redacted }
