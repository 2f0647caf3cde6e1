package config

import "fmt"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type StorageConfig interface {
	GetStorage() string
	GetTokenStore() string
	GetDatabaseURL() string
	GetRedisURL() string
}

type Storage struct {
	Backend     string `envconfig:"STORAGE" default:"memory"`
	TokenStore  string `envconfig:"TOKEN_STORE"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

var _ StorageConfig = Storage{}

func (s Storage) validate() error {
	switch s.GetStorage() {
	case StorageMemory:
	case StoragePostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}

	switch s.GetTokenStore() {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when TOKEN_STORE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown token store %q", s.TokenStore)
	}
	return nil
}

// GetStorage selects the user and client repositories.
func (s Storage) GetStorage() string {
	if s.Backend == "" {
		return StorageMemory
	}
	return s.Backend
}

// GetTokenStore falls back to the main storage backend.
func (s Storage) GetTokenStore() string {
	if s.TokenStore == "" {
		return s.GetStorage()
	}
	return s.TokenStore
}

func (s Storage) GetDatabaseURL() string {
	return s.DatabaseURL
}

func (s Storage) GetRedisURL() string {
	return s.RedisURL
}
