package oauth2

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Scope is a single space-free scope token, e.g. "read".
type Scope string

// ParseScope rejects empty tokens and tokens containing whitespace.
func ParseScope(s string) (Scope, error) {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedScope, s)
	}
	return Scope(s), nil
}

func (s Scope) String() string {
	return string(s)
}

// Scopes is an ordered scope collection that travels on the wire as a
// single space-delimited string.
type Scopes []Scope

// NewScopes builds Scopes from tokens. Any token that itself contains
// whitespace is split, empty tokens are dropped.
func NewScopes(tokens ...string) Scopes {
	scopes := Scopes{}
	for _, t := range tokens {
		for _, f := range strings.Fields(t) {
			scopes = append(scopes, Scope(f))
		}
	}
	return scopes
}

// ParseScopes splits s on any whitespace, discarding empty tokens.
func ParseScopes(s string) Scopes {
	return NewScopes(s)
}

// Append returns a new collection with scope added at the end.
func (s Scopes) Append(scope ...Scope) Scopes {
	out := make(Scopes, 0, len(s)+len(scope))
	out = append(out, s...)
	return append(out, scope...)
}

func (s Scopes) IsEmpty() bool {
	return len(s) == 0
}

func (s Scopes) Contains(scope Scope) bool {
	for _, v := range s {
		if v == scope {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every scope in s is present in allowed.
func (s Scopes) SubsetOf(allowed Scopes) bool {
	for _, v := range s {
		if !allowed.Contains(v) {
			return false
		}
	}
	return true
}

func (s Scopes) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

func (s Scopes) String() string {
	return strings.Join(s.Strings(), " ")
}

func (s Scopes) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Scopes) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedScope, err)
	}
	*s = ParseScopes(str)
	return nil
}
