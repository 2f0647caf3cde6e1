package oauth2

import (
	"fmt"
	"net/url"
)

// RedirectURI is an absolute URI a client has asked the authorization
// server to send the user agent back to. The zero value is empty and only
// ParseRedirectURI produces a non-empty one.
type RedirectURI struct {
	uri string
}

// ParseRedirectURI fails with ErrMalformedURI unless s is an absolute URI.
func ParseRedirectURI(s string) (RedirectURI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return RedirectURI{}, fmt.Errorf("%w: %q: %v", ErrMalformedURI, s, err)
	}
	if !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return RedirectURI{}, fmt.Errorf("%w: %q is not an absolute uri", ErrMalformedURI, s)
	}
	return RedirectURI{uri: s}, nil
}

// MustParseRedirectURI panics on malformed input. Intended for constants and tests.
func MustParseRedirectURI(s string) RedirectURI {
	r, err := ParseRedirectURI(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r RedirectURI) String() string {
	return r.uri
}

func (r RedirectURI) IsZero() bool {
	return r.uri == ""
}

// URL returns the parsed form. The error is nil for any value built by ParseRedirectURI.
func (r RedirectURI) URL() (*url.URL, error) {
	return url.Parse(r.uri)
}

func (r RedirectURI) MarshalText() ([]byte, error) {
	return []byte(r.uri), nil
}

func (r *RedirectURI) UnmarshalText(b []byte) error {
	parsed, err := ParseRedirectURI(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
