package config

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

type OAuthConfig interface {
	GetAuthCodeTimeout() time.Duration
	GetCodeGenerationLength() int
	GetTokenLength() int
	GetTokenType() oauth2.TokenType
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
	GetEnabledGrantTypes() []oauth2.GrantType
}

type OAuth struct {
	AuthCodeTimeout    time.Duration `envconfig:"AUTH_CODE_EXPIRY" default:"10m"`
	CodeLength         int           `envconfig:"AUTH_CODE_LENGTH" default:"32"`
	TokenLength        int           `envconfig:"TOKEN_LENGTH" default:"50"`
	TokenType          string        `envconfig:"TOKEN_TYPE" default:"bearer"`
	AccessTokenExpiry  time.Duration `envconfig:"ACCESS_TOKEN_EXPIRY" default:"1h"`
	RefreshTokenExpiry time.Duration `envconfig:"REFRESH_TOKEN_EXPIRY" default:"168h"`
	GrantTypes         []string      `envconfig:"GRANT_TYPES" default:"password,authorization_code,client_credentials,refresh_token"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) validate() error {
	if o.TokenLength <= 0 || o.CodeLength <= 0 {
		return fmt.Errorf("token and code lengths must be positive")
	}
	if o.AccessTokenExpiry < time.Second {
		return fmt.Errorf("access token expiry must be at least one second, got %s", o.AccessTokenExpiry)
	}
	if _, ok := oauth2.ParseTokenType(o.TokenType); !ok {
		return fmt.Errorf("unknown token type %q", o.TokenType)
	}
	for _, gt := range o.GrantTypes {
		if _, ok := oauth2.ParseGrantType(gt); !ok {
			return fmt.Errorf("unknown grant type %q", gt)
		}
	}
	return nil
}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	if o.AuthCodeTimeout == 0 {
		return 10 * time.Minute
	}
	return o.AuthCodeTimeout
}

func (o OAuth) GetCodeGenerationLength() int {
	if o.CodeLength == 0 {
		return 32
	}
	return o.CodeLength
}

func (o OAuth) GetTokenLength() int {
	if o.TokenLength == 0 {
		return oauth2.DefaultTokenLength
	}
	return o.TokenLength
}

func (o OAuth) GetTokenType() oauth2.TokenType {
	tt, ok := oauth2.ParseTokenType(o.TokenType)
	if !ok {
		return oauth2.BearerTokenType
	}
	return tt
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	if o.AccessTokenExpiry == 0 {
		return 1 * time.Hour
	}
	return o.AccessTokenExpiry
}

func (o OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	if o.RefreshTokenExpiry == 0 {
		return 7 * 24 * time.Hour // 7 days
	}
	return o.RefreshTokenExpiry
}

// GetEnabledGrantTypes returns the grants the token endpoint serves. Unknown names are skipped.
func (o OAuth) GetEnabledGrantTypes() []oauth2.GrantType {
	if o.GrantTypes == nil {
		return oauth2.GrantTypes
	}
	enabled := make([]oauth2.GrantType, 0, len(o.GrantTypes))
	for _, raw := range o.GrantTypes {
		if gt, ok := oauth2.ParseGrantType(raw); ok {
			enabled = append(enabled, gt)
		}
	}
	return enabled
}
