package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config interface {
	EnvConfig
	OAuthConfig
	StorageConfig
	SecurityConfig
}

type mainConfig struct {
	EnvVars
	OAuth
	Storage
	Security
}

var _ Config = mainConfig{}

// New reads the configuration from the environment, applying defaults for unset variables.
func New() (Config, error) {
	var c mainConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("[config New] failed to process environment: %w", err)
	}
	if err := c.OAuth.validate(); err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	if err := c.Storage.validate(); err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	return c, nil
}

// GetRedactInternalErrors is always on in production.
func (c mainConfig) GetRedactInternalErrors() bool {
	return c.Security.GetRedactInternalErrors() || c.EnvVars.GetEnv() == EnvProduction
}
